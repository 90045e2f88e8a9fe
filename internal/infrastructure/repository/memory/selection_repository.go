package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
)

type selectionKey struct {
	userID string
	gameID string
	teamID string
}

// SelectionRepository stores picks with a unique (user, game, team) constraint.
type SelectionRepository struct {
	mu    sync.RWMutex
	items map[string]selection.Selection
	byKey map[selectionKey]string
}

func NewSelectionRepository() *SelectionRepository {
	return &SelectionRepository{
		items: make(map[string]selection.Selection),
		byKey: make(map[selectionKey]string),
	}
}

func (r *SelectionRepository) ListByUser(_ context.Context, userID string) ([]selection.Selection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]selection.Selection, 0)
	for _, item := range r.items {
		if item.User == userID {
			out = append(out, cloneSelection(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *SelectionRepository) GetByUserGameTeam(_ context.Context, userID, gameID, teamID string) (selection.Selection, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[selectionKey{userID: userID, gameID: gameID, teamID: teamID}]
	if !ok {
		return selection.Selection{}, false, nil
	}
	return cloneSelection(r.items[id]), true, nil
}

// Insert stores item unless its user already has a pick for the same game and
// team, in which case selection.ErrAlreadySelected is returned.
func (r *SelectionRepository) Insert(_ context.Context, item selection.Selection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := selectionKey{userID: item.User, gameID: item.Game.ID, teamID: item.Team.ID}
	if _, exists := r.byKey[key]; exists {
		return selection.ErrAlreadySelected
	}
	r.items[item.ID] = cloneSelection(item)
	r.byKey[key] = item.ID
	return nil
}

// Delete removes the user's selection by id and reports whether it existed.
func (r *SelectionRepository) Delete(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || item.User != userID {
		return false, nil
	}
	delete(r.items, id)
	delete(r.byKey, selectionKey{userID: item.User, gameID: item.Game.ID, teamID: item.Team.ID})
	return true, nil
}

func cloneSelection(item selection.Selection) selection.Selection {
	copied := item
	if item.GamePlayer.Entry != nil {
		entry := cloneEntry(*item.GamePlayer.Entry)
		copied.GamePlayer.Entry = &entry
	}
	return copied
}
