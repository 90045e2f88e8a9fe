package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
)

type rosterKey struct {
	gameID string
	teamID string
}

// BoardRepository holds the schedule and lineups served by the pick API.
type BoardRepository struct {
	mu      sync.RWMutex
	games   map[string][]game.Game
	rosters map[rosterKey][]gameplayer.GamePlayer
	entries map[string]gameplayer.GamePlayer
}

func NewBoardRepository() *BoardRepository {
	return &BoardRepository{
		games:   make(map[string][]game.Game),
		rosters: make(map[rosterKey][]gameplayer.GamePlayer),
		entries: make(map[string]gameplayer.GamePlayer),
	}
}

// ListGamesByDate returns the games scheduled on date (YYYY-MM-DD). Unknown dates
// have no games.
func (r *BoardRepository) ListGamesByDate(_ context.Context, date string) ([]game.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]game.Game{}, r.games[date]...), nil
}

// ListRoster returns the lineup for one team in one game, in insertion order.
func (r *BoardRepository) ListRoster(_ context.Context, gameID, teamID string) ([]gameplayer.GamePlayer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneRoster(r.rosters[rosterKey{gameID: gameID, teamID: teamID}]), nil
}

func (r *BoardRepository) GetGamePlayer(_ context.Context, id string) (gameplayer.GamePlayer, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[id]
	if !ok {
		return gameplayer.GamePlayer{}, false, nil
	}
	return cloneEntry(entry), true, nil
}

// AddGame appends g to the schedule of its date. Roster entries are indexed for
// lookups by id.
func (r *BoardRepository) AddGame(_ context.Context, g game.Game, away, home []gameplayer.GamePlayer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.games[g.Date] = append(r.games[g.Date], g)
	r.setRosterLocked(g.ID, g.AwayTeam.ID, away)
	r.setRosterLocked(g.ID, g.HomeTeam.ID, home)
}

func (r *BoardRepository) SetRoster(_ context.Context, gameID, teamID string, roster []gameplayer.GamePlayer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.setRosterLocked(gameID, teamID, roster)
}

func (r *BoardRepository) setRosterLocked(gameID, teamID string, roster []gameplayer.GamePlayer) {
	key := rosterKey{gameID: gameID, teamID: teamID}
	for _, old := range r.rosters[key] {
		delete(r.entries, old.ID)
	}
	r.rosters[key] = cloneRoster(roster)
	for _, entry := range roster {
		r.entries[entry.ID] = cloneEntry(entry)
	}
}

func cloneRoster(items []gameplayer.GamePlayer) []gameplayer.GamePlayer {
	out := make([]gameplayer.GamePlayer, 0, len(items))
	for _, item := range items {
		out = append(out, cloneEntry(item))
	}
	return out
}

func cloneEntry(item gameplayer.GamePlayer) gameplayer.GamePlayer {
	copied := item
	if item.Player != nil {
		p := *item.Player
		copied.Player = &p
	}
	return copied
}
