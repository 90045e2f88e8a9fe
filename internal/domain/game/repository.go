package game

import "context"

// Repository exposes the day's games from the pick API.
type Repository interface {
	ListByDate(ctx context.Context, token, date string) ([]Game, error)
}
