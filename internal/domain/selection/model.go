package selection

import (
	"bytes"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
)

// ConflictMessage is the server's message when (user, game, team) already has a selection.
const ConflictMessage = "You already have a selection for this team in this game"

// ErrAlreadySelected marks a create rejected by the (user, game, team) uniqueness rule.
var ErrAlreadySelected = crerr.New("selection already exists for team in game")

// EntryRef is the selected roster entry, sent either as its id or populated.
type EntryRef struct {
	ID    string
	Entry *gameplayer.GamePlayer
}

func (r *EntryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = EntryRef{}
		return nil
	case data[0] == '"':
		var id string
		if err := sonic.Unmarshal(data, &id); err != nil {
			return crerr.Wrap(err, "decode game player id")
		}
		*r = EntryRef{ID: id}
		return nil
	case data[0] == '{':
		var entry gameplayer.GamePlayer
		if err := sonic.Unmarshal(data, &entry); err != nil {
			return crerr.Wrap(err, "decode populated game player")
		}
		*r = EntryRef{ID: entry.ID, Entry: &entry}
		return nil
	default:
		return crerr.Newf("game player must be a string or object, got %q", data[:1])
	}
}

func (r EntryRef) MarshalJSON() ([]byte, error) {
	if r.Entry != nil {
		return sonic.Marshal(r.Entry)
	}
	return sonic.Marshal(r.ID)
}

// Selection binds one user to one roster entry for a (game, team) pair.
type Selection struct {
	ID         string         `json:"_id"`
	User       string         `json:"user"`
	GamePlayer EntryRef       `json:"gamePlayer"`
	Game       gameplayer.Ref `json:"game"`
	Team       gameplayer.Ref `json:"team"`
	Notes      string         `json:"notes,omitempty"`
	CreatedAt  string         `json:"createdAt,omitempty"`
}

// Matches reports whether the selection belongs to the given game and team.
func (s Selection) Matches(gameID, teamID string) bool {
	return s.Game.ID == gameID && s.Team.ID == teamID
}

// FindFor scans selections linearly for the (game, team) pair.
func FindFor(items []Selection, gameID, teamID string) (Selection, bool) {
	for _, item := range items {
		if item.Matches(gameID, teamID) {
			return item, true
		}
	}
	return Selection{}, false
}
