package selection

import "context"

// Repository exposes the caller's selections. The backend has no upsert: Create
// fails with ErrAlreadySelected when (user, game, team) is taken.
type Repository interface {
	List(ctx context.Context, token string) ([]Selection, error)
	GetByGameTeam(ctx context.Context, token, gameID, teamID string) (Selection, bool, error)
	Create(ctx context.Context, token, gamePlayerID string) (Selection, error)
	Delete(ctx context.Context, token, selectionID string) error
}
