package gameplayer

import (
	"bytes"
	"sort"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
)

// Ref points at another document. The API sends either the bare id or the
// populated document; only the id is kept.
type Ref struct {
	ID        string
	Populated bool
}

func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = Ref{}
		return nil
	case data[0] == '"':
		var id string
		if err := sonic.Unmarshal(data, &id); err != nil {
			return crerr.Wrap(err, "decode ref id")
		}
		*r = Ref{ID: id}
		return nil
	case data[0] == '{':
		var doc struct {
			ID string `json:"_id"`
		}
		if err := sonic.Unmarshal(data, &doc); err != nil {
			return crerr.Wrap(err, "decode populated ref")
		}
		*r = Ref{ID: doc.ID, Populated: true}
		return nil
	default:
		return crerr.Newf("ref must be a string or object, got %q", data[:1])
	}
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(r.ID)
}

// Player is the season-level player record populated into each roster entry.
type Player struct {
	ID                   string  `json:"_id"`
	Name                 string  `json:"name"`
	Position             string  `json:"position"`
	Team                 string  `json:"team"`
	Bats                 string  `json:"bats,omitempty"`
	Throws               string  `json:"throws,omitempty"`
	MLBID                int64   `json:"mlbId,omitempty"`
	SeasonAvg            float64 `json:"seasonAvg"`
	SeasonOps            float64 `json:"seasonOps"`
	SeasonHomeRuns       int     `json:"seasonHomeRuns"`
	SeasonRbis           int     `json:"seasonRbis"`
	SeasonStolenBases    int     `json:"seasonStolenBases"`
	SeasonHits           int     `json:"seasonHits"`
	SeasonRuns           int     `json:"seasonRuns"`
	SeasonAtBats         int     `json:"seasonAtBats"`
	SeasonCaughtStealing int     `json:"seasonCaughtStealing"`
	SeasonStrikeOuts     int     `json:"seasonStrikeOuts"`
	SeasonPoints         float64 `json:"seasonPoints"`
}

// GamePlayer is one player's lineup entry for one game.
type GamePlayer struct {
	ID             string  `json:"_id"`
	Game           Ref     `json:"game"`
	Team           Ref     `json:"team"`
	Player         *Player `json:"player,omitempty"`
	BattingOrder   int     `json:"battingOrder"`
	AtBats         int     `json:"atBats"`
	Hits           int     `json:"hits"`
	Runs           int     `json:"runs"`
	Rbis           int     `json:"rbis"`
	HomeRuns       int     `json:"homeRuns"`
	StolenBases    int     `json:"stolenBases"`
	Triples        int     `json:"triples"`
	Doubles        int     `json:"doubles"`
	Singles        int     `json:"singles"`
	Walks          int     `json:"walks"`
	StrikeOuts     int     `json:"strikeOuts"`
	CaughtStealing int     `json:"caughtStealing"`
	Errors         int     `json:"errors"`
	Points         float64 `json:"points"`
	Name           string  `json:"name,omitempty"`
	Position       string  `json:"position,omitempty"`
}

// DisplayName prefers the flattened name and falls back to the populated player.
func (p GamePlayer) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Player != nil && p.Player.Name != "" {
		return p.Player.Name
	}
	return "Unknown Player"
}

func (p GamePlayer) DisplayPosition() string {
	if p.Position != "" {
		return p.Position
	}
	if p.Player != nil && p.Player.Position != "" {
		return p.Player.Position
	}
	return "Unknown Position"
}

// SortByBattingOrder orders a lineup 1..9 in place; ties keep API order.
func SortByBattingOrder(players []GamePlayer) {
	sort.SliceStable(players, func(i, j int) bool {
		return players[i].BattingOrder < players[j].BattingOrder
	})
}
