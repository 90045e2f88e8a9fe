package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"go.opentelemetry.io/otel/attribute"
)

type syncResult struct {
	key    TeamKey
	player *gameplayer.GamePlayer
}

// SyncSelections hydrates the selection cache with one lookup per team per loaded
// game. A failed lookup counts as no selection. Teams picked through SelectPlayer
// after the sync started keep the picked value.
func (s *GameDataService) SyncSelections(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || !s.authenticated || len(s.games) == 0 {
		s.mu.Unlock()
		return nil
	}
	keys := make([]TeamKey, 0, len(s.games)*2)
	for _, g := range s.games {
		for _, teamID := range g.TeamIDs() {
			keys = append(keys, TeamKey{GameID: g.ID, TeamID: teamID})
		}
	}
	s.mu.Unlock()

	token, ok, err := s.bearerToken(ctx)
	if err != nil || !ok {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.syncCancel != nil {
		s.syncCancel()
	}
	s.syncGen++
	gen := s.syncGen
	startSeq := s.writeSeq
	opCtx, cancel := context.WithCancel(ctx)
	s.syncCancel = cancel
	s.mu.Unlock()
	defer cancel()

	opCtx, span := startUsecaseSpan(opCtx, "usecase.GameDataService.SyncSelections", attribute.Int("teams", len(keys)))
	defer span.End()

	results := make(chan syncResult, len(keys))
	var workers sync.WaitGroup
	for _, key := range keys {
		key := key
		workers.Add(1)
		if err := s.pool.Submit(func() {
			defer workers.Done()
			results <- syncResult{key: key, player: s.lookupSelection(opCtx, token, key)}
		}); err != nil {
			workers.Done()
			cancel()
			workers.Wait()
			recordSpanError(span, err)
			return fmt.Errorf("submit selection lookup to worker pool: %w", err)
		}
	}
	workers.Wait()
	close(results)

	hydrated := make(map[string]*gameplayer.GamePlayer, len(keys))
	for row := range results {
		if row.player != nil {
			hydrated[row.key.TeamID] = row.player
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.syncGen || s.closed {
		s.logger.DebugContext(ctx, "selections sync superseded")
		return nil
	}
	s.syncCancel = nil
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sync selections: %w", err)
	}

	for teamID, seq := range s.writtenAt {
		if seq > startSeq {
			hydrated[teamID] = s.selected[teamID]
		}
	}
	s.selected = hydrated
	s.logger.DebugContext(ctx, "selections synced", "teams", len(keys), "selected", len(hydrated))
	return nil
}

func (s *GameDataService) lookupSelection(ctx context.Context, token string, key TeamKey) *gameplayer.GamePlayer {
	sel, ok, err := s.selectionRepo.GetByGameTeam(ctx, token, key.GameID, key.TeamID)
	if err != nil {
		if !isQuietCancel(ctx, err) {
			s.logger.DebugContext(ctx, "selection lookup failed, treating as none", "key", key.String(), "error", err)
		}
		return nil
	}
	if !ok {
		return nil
	}
	if sel.GamePlayer.Entry != nil {
		entry := *sel.GamePlayer.Entry
		return &entry
	}
	if sel.GamePlayer.ID == "" {
		return nil
	}
	// unpopulated entry: fall back to the cached roster when it has the player
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players[key.TeamID] {
		if p.ID == sel.GamePlayer.ID {
			cp := p
			return &cp
		}
	}
	return &gameplayer.GamePlayer{ID: sel.GamePlayer.ID, Game: sel.Game, Team: sel.Team}
}
