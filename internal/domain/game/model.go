package game

import "strings"

const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusPostponed  = "postponed"
	StatusDelayed    = "delayed"
	StatusSuspended  = "suspended"
)

// Team is the display record embedded in every game.
type Team struct {
	ID           string   `json:"_id"`
	Name         string   `json:"name"`
	Abbreviation string   `json:"abbreviation"`
	City         string   `json:"city"`
	TeamName     string   `json:"teamName"`
	League       string   `json:"league"`
	Division     string   `json:"division"`
	Players      []string `json:"players,omitempty"`
	MLBID        int64    `json:"mlbId,omitempty"`
}

// Game is one scheduled MLB game for a calendar day.
type Game struct {
	ID              string `json:"_id"`
	Season          string `json:"season"`
	Date            string `json:"date"`
	DateTime        string `json:"dateTime"`
	HomeTeam        Team   `json:"homeTeam"`
	AwayTeam        Team   `json:"awayTeam"`
	HomeScore       int    `json:"homeScore"`
	AwayScore       int    `json:"awayScore"`
	Status          string `json:"status"`
	InningOrdinal   string `json:"inningOrdinal,omitempty"`
	InningState     string `json:"inningState,omitempty"`
	Winner          string `json:"winner,omitempty"`
	DelayReason     string `json:"delayReason,omitempty"`
	SuspensionPoint string `json:"suspensionPoint,omitempty"`
	ResumedDate     string `json:"resumedDate,omitempty"`
	GamePK          int64  `json:"gamePk"`
}

// TeamIDs returns away then home, the order the board renders team tabs in.
func (g Game) TeamIDs() []string {
	return []string{g.AwayTeam.ID, g.HomeTeam.ID}
}

func NormalizeStatus(value string) string {
	status := strings.ToLower(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsLiveStatus(status string) bool {
	return NormalizeStatus(status) == StatusInProgress
}

func IsFinishedStatus(status string) bool {
	return NormalizeStatus(status) == StatusCompleted
}

// SameIDs reports whether two game lists carry the same id sequence.
func SameIDs(a, b []Game) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}
