package gameplayer

import "context"

// Repository exposes per-game team rosters from the pick API.
type Repository interface {
	ListByGameTeam(ctx context.Context, token, gameID, teamID string) ([]GamePlayer, error)
}
