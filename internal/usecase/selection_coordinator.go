package usecase

import (
	"context"
	"fmt"
	"strings"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
	"github.com/riskibarqy/diamond-plays/internal/platform/id"
	"go.opentelemetry.io/otel/attribute"
)

type SelectionPhase string

const (
	PhaseIdle          SelectionPhase = "idle"
	PhaseCreating      SelectionPhase = "creating"
	PhaseConflict      SelectionPhase = "conflict"
	PhaseListing       SelectionPhase = "listing"
	PhaseDeleting      SelectionPhase = "deleting"
	PhaseRetryCreating SelectionPhase = "retry_creating"
	PhaseSuccess       SelectionPhase = "success"
	PhaseFailed        SelectionPhase = "failed"
)

// SelectionObserver receives the phases of every SelectPlayer call. It runs on
// the caller's goroutine and must not call back into the service.
type SelectionObserver func(key TeamKey, phase SelectionPhase)

type selectionWrite struct {
	key      TeamKey
	entry    gameplayer.GamePlayer
	gen      uint64
	startSeq uint64
	token    string
	observer SelectionObserver
}

// SelectPlayer saves gamePlayerID as the pick for its team in its game. An
// existing pick for the same team is replaced by deleting it and creating again.
// A newer SelectPlayer call cancels this one, which then returns nil. The cache
// is only touched when the cancelled write had already deleted the previous
// pick, in which case that team shows no pick. A cancel or deadline on ctx
// itself is returned.
func (s *GameDataService) SelectPlayer(ctx context.Context, gamePlayerID string) error {
	gamePlayerID = strings.TrimSpace(gamePlayerID)
	if gamePlayerID == "" {
		return fmt.Errorf("%w: game player id is required", ErrInvalidInput)
	}

	s.mu.Lock()
	entry, ok := s.cachedPlayerLocked(gamePlayerID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: game_player_id=%s", ErrPlayerNotCached, gamePlayerID)
	}

	key := TeamKey{GameID: entry.Game.ID, TeamID: entry.Team.ID}
	if !id.IsObjectID(key.GameID) || !id.IsObjectID(key.TeamID) {
		return fmt.Errorf("%w: game_id=%q team_id=%q for game player %s", ErrInvalidIdentifier, key.GameID, key.TeamID, gamePlayerID)
	}

	token, ok, err := s.bearerToken(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: no bearer token", ErrUnauthorized)
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.GameDataService.SelectPlayer",
		attribute.String("game_id", key.GameID),
		attribute.String("team_id", key.TeamID),
		attribute.String("game_player_id", gamePlayerID),
	)
	defer span.End()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.writeCancel != nil {
		s.writeCancel()
	}
	s.writeGen++
	write := selectionWrite{
		key:      key,
		entry:    entry,
		gen:      s.writeGen,
		startSeq: s.writeSeq,
		token:    token,
		observer: s.observer,
	}
	opCtx, cancel := context.WithCancel(ctx)
	s.writeCancel = cancel
	s.saving[key] = write.gen
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.writeGen == write.gen {
			s.writeCancel = nil
		}
		if s.saving[key] == write.gen {
			delete(s.saving, key)
		}
		s.mu.Unlock()
	}()

	deleted, err := s.runSelectionWrite(opCtx, write)
	if err != nil {
		if deleted {
			s.dropDeletedPick(write)
		}
		if s.superseded(write.gen) {
			s.logger.DebugContext(ctx, "selection write superseded", "key", key.String(), "deleted_previous", deleted)
			s.reportPhase(ctx, write, PhaseIdle)
			return nil
		}
		recordSpanError(span, err)
		s.reportPhase(ctx, write, PhaseFailed)
		s.logger.WarnContext(ctx, "save selection failed", "key", key.String(), "game_player_id", gamePlayerID, "error", err)
		return err
	}

	s.mu.Lock()
	if s.writeGen != write.gen {
		s.mu.Unlock()
		s.reportPhase(ctx, write, PhaseIdle)
		return nil
	}
	picked := write.entry
	s.selected[key.TeamID] = &picked
	s.writeSeq++
	s.writtenAt[key.TeamID] = s.writeSeq
	s.mu.Unlock()

	s.reportPhase(ctx, write, PhaseSuccess)
	s.logger.InfoContext(ctx, "selection saved", "key", key.String(), "game_player_id", gamePlayerID)
	return nil
}

// runSelectionWrite reports deleted once the DELETE of the previous pick has
// been sent, whether or not it landed.
func (s *GameDataService) runSelectionWrite(ctx context.Context, w selectionWrite) (deleted bool, err error) {
	s.reportPhase(ctx, w, PhaseCreating)
	_, createErr := s.selectionRepo.Create(ctx, w.token, w.entry.ID)
	if createErr == nil {
		return false, nil
	}
	if !crerr.Is(createErr, selection.ErrAlreadySelected) {
		return false, createErr
	}
	if s.superseded(w.gen) {
		return false, context.Canceled
	}

	s.reportPhase(ctx, w, PhaseConflict)
	s.logger.InfoContext(ctx, "existing selection found, replacing it", "key", w.key.String())

	s.reportPhase(ctx, w, PhaseListing)
	all, err := s.selectionRepo.List(ctx, w.token)
	if err != nil {
		return false, crerr.WithSecondaryError(crerr.Wrap(err, "list selections to resolve conflict"), createErr)
	}
	existing, found := selection.FindFor(all, w.key.GameID, w.key.TeamID)
	if !found || existing.ID == "" {
		return false, crerr.WithSecondaryError(
			fmt.Errorf("%w: game_id=%s team_id=%s", ErrSelectionInconsistent, w.key.GameID, w.key.TeamID),
			createErr,
		)
	}
	if s.superseded(w.gen) {
		return false, context.Canceled
	}

	s.reportPhase(ctx, w, PhaseDeleting)
	if err := s.selectionRepo.Delete(ctx, w.token, existing.ID); err != nil {
		return true, crerr.WithSecondaryError(crerr.Wrapf(err, "delete existing selection id=%s", existing.ID), createErr)
	}
	if s.superseded(w.gen) {
		return true, context.Canceled
	}

	s.reportPhase(ctx, w, PhaseRetryCreating)
	if _, err := s.selectionRepo.Create(ctx, w.token, w.entry.ID); err != nil {
		return true, err
	}
	return true, nil
}

// dropDeletedPick clears the cached pick of a write that deleted the previous
// pick but did not finish recreating. A write for the same team that completed
// since this one started wins.
func (s *GameDataService) dropDeletedPick(w selectionWrite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writtenAt[w.key.TeamID] > w.startSeq {
		return
	}
	delete(s.selected, w.key.TeamID)
	s.writeSeq++
	s.writtenAt[w.key.TeamID] = s.writeSeq
}

func (s *GameDataService) superseded(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.writeGen != gen
}

func (s *GameDataService) reportPhase(ctx context.Context, w selectionWrite, phase SelectionPhase) {
	s.logger.DebugContext(ctx, "selection phase", "key", w.key.String(), "phase", string(phase))
	if w.observer != nil {
		w.observer(w.key, phase)
	}
}

// cachedPlayerLocked scans the loaded rosters for the entry. An entry without a
// team reference takes the team id its roster is cached under.
func (s *GameDataService) cachedPlayerLocked(gamePlayerID string) (gameplayer.GamePlayer, bool) {
	for teamID, roster := range s.players {
		for _, p := range roster {
			if p.ID != gamePlayerID {
				continue
			}
			if p.Team.ID == "" {
				p.Team.ID = teamID
			}
			return p, true
		}
	}
	return gameplayer.GamePlayer{}, false
}
