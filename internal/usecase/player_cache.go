package usecase

import (
	"context"
	"fmt"

	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

// FetchPlayers loads one team's roster for one game. Each key is fetched at most
// once until ResetPlayerFetchAttempt; repeated calls are no-ops.
func (s *GameDataService) FetchPlayers(ctx context.Context, gameID, teamID string) error {
	key := TeamKey{GameID: gameID, TeamID: teamID}
	if gameID == "" || teamID == "" {
		return fmt.Errorf("%w: game id and team id are required", ErrInvalidInput)
	}

	s.mu.Lock()
	if s.closed || s.playerLoading[key] || s.playerAttempts[key] {
		s.mu.Unlock()
		return nil
	}
	s.playerAttempts[key] = true
	s.playerLoading[key] = true
	delete(s.playerErrors, key)
	epoch := s.playerEpoch
	s.mu.Unlock()

	token, ok, err := s.bearerToken(ctx)
	if err != nil || !ok {
		s.finishPlayerFetch(key, epoch, nil, err)
		if !ok && err == nil {
			s.logger.DebugContext(ctx, "no bearer token, skipping players fetch", "key", key.String())
		}
		return err
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.GameDataService.FetchPlayers",
		attribute.String("game_id", gameID),
		attribute.String("team_id", teamID),
	)
	defer span.End()

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.PlayerFetchTimeout)
	defer cancel()

	players, err := s.playerRepo.ListByGameTeam(fetchCtx, token, gameID, teamID)
	if err != nil {
		err = fmt.Errorf("fetch players game_id=%s team_id=%s: %w", gameID, teamID, err)
		recordSpanError(span, err)
		s.logger.WarnContext(ctx, "players fetch failed", "key", key.String(), "error", err)
		s.finishPlayerFetch(key, epoch, nil, err)
		return err
	}

	if players == nil {
		players = []gameplayer.GamePlayer{}
	}
	gameplayer.SortByBattingOrder(players)
	s.finishPlayerFetch(key, epoch, players, nil)
	s.logger.DebugContext(ctx, "players loaded", "key", key.String(), "count", len(players))
	return nil
}

// finishPlayerFetch commits a roster result unless the date changed meanwhile.
func (s *GameDataService) finishPlayerFetch(key TeamKey, epoch uint64, players []gameplayer.GamePlayer, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.playerEpoch {
		return
	}
	delete(s.playerLoading, key)
	if err != nil {
		s.playerErrors[key] = err
		return
	}
	if players != nil {
		s.players[key.TeamID] = players
	}
}

// ResetPlayerFetchAttempt allows FetchPlayers to run again for the key. Cached
// rosters are kept.
func (s *GameDataService) ResetPlayerFetchAttempt(gameID, teamID string) {
	key := TeamKey{GameID: gameID, TeamID: teamID}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.playerAttempts, key)
	delete(s.playerErrors, key)
}

// PrefetchPlayers fetches the rosters of every team in every loaded game, the way
// the board does when all team tabs mount at once. Failures are joined.
func (s *GameDataService) PrefetchPlayers(ctx context.Context, maxConcurrent int) error {
	s.mu.Lock()
	keys := make([]TeamKey, 0, len(s.games)*2)
	for _, g := range s.games {
		for _, teamID := range g.TeamIDs() {
			if teamID == "" {
				continue
			}
			keys = append(keys, TeamKey{GameID: g.ID, TeamID: teamID})
		}
	}
	s.mu.Unlock()

	if len(keys) == 0 {
		return nil
	}
	if maxConcurrent <= 0 {
		maxConcurrent = s.cfg.SyncWorkers
	}

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(maxConcurrent)
	for _, key := range keys {
		key := key
		p.Go(func(ctx context.Context) error {
			return s.FetchPlayers(ctx, key.GameID, key.TeamID)
		})
	}
	return p.Wait()
}
