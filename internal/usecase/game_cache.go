package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"go.opentelemetry.io/otel/attribute"
)

const gamesScopePrefix = "games:"

type FetchGamesOptions struct {
	// ShowLoading raises the Loading flag for the duration of the fetch.
	ShowLoading bool
}

// FormatLocalDate renders t as YYYY-MM-DD using its calendar day in loc,
// never the UTC day.
func FormatLocalDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(time.DateOnly)
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// FetchGames loads the games of the selected date and replaces the games cache.
func (s *GameDataService) FetchGames(ctx context.Context, opts FetchGamesOptions) error {
	_, err := s.fetchGames(ctx, opts)
	return err
}

// SetSelectedDate switches the board to another day. Rosters, fetch flags and
// selections of the old day are dropped before the new games are fetched.
func (s *GameDataService) SetSelectedDate(ctx context.Context, date time.Time) error {
	day := startOfDay(date, s.cfg.Location)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if day.Equal(s.selectedDate) {
		s.mu.Unlock()
		return nil
	}
	s.selectedDate = day
	s.players = make(map[string][]gameplayer.GamePlayer)
	s.playerLoading = make(map[TeamKey]bool)
	s.playerAttempts = make(map[TeamKey]bool)
	s.playerErrors = make(map[TeamKey]error)
	s.playerEpoch++
	s.cancelSelectionWorkLocked()
	s.selected = make(map[string]*gameplayer.GamePlayer)
	s.saving = make(map[TeamKey]uint64)
	s.writtenAt = make(map[string]uint64)
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "selected date changed", "date", FormatLocalDate(day, s.cfg.Location))
	_, err := s.fetchGames(ctx, FetchGamesOptions{ShowLoading: true})
	return err
}

// RefreshGames reloads the selected date without raising Loading.
func (s *GameDataService) RefreshGames(ctx context.Context) error {
	_, err := s.fetchGames(ctx, FetchGamesOptions{})
	return err
}

// RefreshAllData reloads games and then selections without raising Loading.
func (s *GameDataService) RefreshAllData(ctx context.Context) error {
	synced, err := s.fetchGames(ctx, FetchGamesOptions{})
	if err != nil {
		return err
	}
	if synced {
		return nil
	}

	s.mu.Lock()
	hasGames := len(s.games) > 0
	s.mu.Unlock()
	if !hasGames {
		return nil
	}
	return s.SyncSelections(ctx)
}

// fetchGames reports whether it already ran a selections sync because the game
// ids changed.
func (s *GameDataService) fetchGames(ctx context.Context, opts FetchGamesOptions) (bool, error) {
	token, ok, err := s.bearerToken(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "no bearer token, skipping games fetch")
		return false, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, nil
	}
	date := FormatLocalDate(s.selectedDate, s.cfg.Location)
	release, ok := s.guard.TryBegin(gamesScopePrefix + date)
	if !ok {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "games fetch already in flight, skipping", "date", date)
		return false, nil
	}

	// supersede the previous fetch, whatever date it was for
	if s.gamesCancel != nil {
		s.gamesCancel()
	}
	if s.gamesRelease != nil {
		s.gamesRelease()
	}
	opCtx, cancel := context.WithCancel(ctx)
	s.gamesGen++
	gen := s.gamesGen
	s.gamesCancel = cancel
	s.gamesRelease = release
	if opts.ShowLoading {
		s.loading = true
	}
	s.mu.Unlock()

	defer cancel()
	defer release()

	opCtx, span := startUsecaseSpan(opCtx, "usecase.GameDataService.FetchGames", attribute.String("date", date))
	defer span.End()

	games, fetchErr := s.gameRepo.ListByDate(opCtx, token, date)

	s.mu.Lock()
	if gen != s.gamesGen || s.closed {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "games fetch superseded", "date", date)
		return false, nil
	}
	s.gamesCancel = nil
	s.gamesRelease = nil
	s.loading = false

	if fetchErr != nil {
		if ctx.Err() != nil {
			// abandoned by the caller: keep the board only if it already shows this date
			if s.gamesDate != date {
				s.games = []game.Game{}
				s.gamesDate = date
				s.updatePollingLocked()
			}
			s.mu.Unlock()
			return false, fetchErr
		}
		s.loadErr = GamesLoadError
		s.games = []game.Game{}
		s.gamesDate = date
		s.updatePollingLocked()
		s.mu.Unlock()

		recordSpanError(span, fetchErr)
		s.logger.WarnContext(ctx, "games fetch failed", "date", date, "error", fetchErr)
		return false, fetchErr
	}

	changed := !game.SameIDs(s.games, games)
	s.games = games
	s.gamesDate = date
	s.loadErr = ""
	s.updatePollingLocked()
	authenticated := s.authenticated
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "games loaded", "date", date, "count", len(games), "ids_changed", changed)

	if !changed || !authenticated || len(games) == 0 {
		return false, nil
	}
	if err := s.SyncSelections(ctx); err != nil && !isQuietCancel(ctx, err) {
		s.logger.WarnContext(ctx, "selections sync after games load failed", "date", date, "error", err)
	}
	return true, nil
}
