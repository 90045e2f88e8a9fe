package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/diamond-plays/internal/domain/credential"
	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
)

const (
	defaultPlayerFetchTimeout = 10 * time.Second
	defaultPollInterval       = 120 * time.Second
	defaultSyncWorkers        = 8
	defaultCloseTimeout       = 5 * time.Second
)

type GameDataConfig struct {
	PlayerFetchTimeout time.Duration
	FetchThrottle      time.Duration
	PollInterval       time.Duration
	SyncWorkers        int
	CloseTimeout       time.Duration
	// Location decides which calendar day a selected date falls on. Defaults to time.Local.
	Location *time.Location
}

// TeamKey identifies one team's roster within one game.
type TeamKey struct {
	GameID string
	TeamID string
}

func (k TeamKey) String() string {
	return k.GameID + "/" + k.TeamID
}

// Snapshot is a point in time copy of the cache state. Callers may keep and
// mutate it freely.
type Snapshot struct {
	SelectedDate        time.Time
	Games               []game.Game
	Loading             bool
	Error               string
	SelectedPlayers     map[string]*gameplayer.GamePlayer
	Players             map[string][]gameplayer.GamePlayer
	PlayerLoading       map[TeamKey]bool
	PlayerFetchAttempts map[TeamKey]bool
	PlayerFetchErrors   map[TeamKey]string
	Saving              map[TeamKey]bool
	Authenticated       bool
}

// GameDataService owns the games, roster and selection caches for one signed in
// client. All cache state is guarded by mu; network calls run with mu released.
type GameDataService struct {
	gameRepo      game.Repository
	playerRepo    gameplayer.Repository
	selectionRepo selection.Repository
	creds         credential.Store
	cfg           GameDataConfig
	logger        *logging.Logger
	guard         *FetchGuard
	pool          *ants.Pool
	poller        *PollingScheduler
	now           func() time.Time

	mu            sync.Mutex
	closed        bool
	authenticated bool
	selectedDate  time.Time
	games         []game.Game
	gamesDate     string
	loading       bool
	loadErr       string

	// games fetch supersession
	gamesGen     uint64
	gamesCancel  context.CancelFunc
	gamesRelease func()

	// rosters are keyed by team id and dropped on date change
	players        map[string][]gameplayer.GamePlayer
	playerLoading  map[TeamKey]bool
	playerAttempts map[TeamKey]bool
	playerErrors   map[TeamKey]error
	playerEpoch    uint64

	selected    map[string]*gameplayer.GamePlayer
	saving      map[TeamKey]uint64
	writeGen    uint64
	writeCancel context.CancelFunc
	writeSeq    uint64
	writtenAt   map[string]uint64
	observer    SelectionObserver

	syncGen    uint64
	syncCancel context.CancelFunc
}

func NewGameDataService(
	gameRepo game.Repository,
	playerRepo gameplayer.Repository,
	selectionRepo selection.Repository,
	creds credential.Store,
	cfg GameDataConfig,
	logger *logging.Logger,
) (*GameDataService, error) {
	if gameRepo == nil || playerRepo == nil || selectionRepo == nil || creds == nil {
		return nil, fmt.Errorf("%w: game data service requires repositories and a credential store", ErrInvalidInput)
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PlayerFetchTimeout <= 0 {
		cfg.PlayerFetchTimeout = defaultPlayerFetchTimeout
	}
	if cfg.FetchThrottle <= 0 {
		cfg.FetchThrottle = defaultFetchThrottle
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.SyncWorkers <= 0 {
		cfg.SyncWorkers = defaultSyncWorkers
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaultCloseTimeout
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	pool, err := ants.NewPool(cfg.SyncWorkers)
	if err != nil {
		return nil, fmt.Errorf("create selections worker pool: %w", err)
	}

	s := &GameDataService{
		gameRepo:       gameRepo,
		playerRepo:     playerRepo,
		selectionRepo:  selectionRepo,
		creds:          creds,
		cfg:            cfg,
		logger:         logger.Named("gamedata"),
		guard:          NewFetchGuard(cfg.FetchThrottle),
		pool:           pool,
		now:            time.Now,
		players:        make(map[string][]gameplayer.GamePlayer),
		playerLoading:  make(map[TeamKey]bool),
		playerAttempts: make(map[TeamKey]bool),
		playerErrors:   make(map[TeamKey]error),
		selected:       make(map[string]*gameplayer.GamePlayer),
		saving:         make(map[TeamKey]uint64),
		writtenAt:      make(map[string]uint64),
	}
	s.selectedDate = startOfDay(s.now(), cfg.Location)
	s.poller = NewPollingScheduler(cfg.PollInterval, s.pollRefresh, s.logger)
	return s, nil
}

// SetSelectionObserver registers fn to receive every selection phase transition.
func (s *GameDataService) SetSelectionObserver(fn SelectionObserver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = fn
}

func (s *GameDataService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Snapshot{
		SelectedDate:        s.selectedDate,
		Games:               append([]game.Game(nil), s.games...),
		Loading:             s.loading,
		Error:               s.loadErr,
		SelectedPlayers:     make(map[string]*gameplayer.GamePlayer, len(s.selected)),
		Players:             make(map[string][]gameplayer.GamePlayer, len(s.players)),
		PlayerLoading:       make(map[TeamKey]bool, len(s.playerLoading)),
		PlayerFetchAttempts: make(map[TeamKey]bool, len(s.playerAttempts)),
		PlayerFetchErrors:   make(map[TeamKey]string, len(s.playerErrors)),
		Saving:              make(map[TeamKey]bool, len(s.saving)),
		Authenticated:       s.authenticated,
	}
	if out.Games == nil {
		out.Games = []game.Game{}
	}
	for teamID, player := range s.selected {
		if player == nil {
			out.SelectedPlayers[teamID] = nil
			continue
		}
		cp := *player
		out.SelectedPlayers[teamID] = &cp
	}
	for teamID, roster := range s.players {
		out.Players[teamID] = append([]gameplayer.GamePlayer{}, roster...)
	}
	for key, v := range s.playerLoading {
		if v {
			out.PlayerLoading[key] = true
		}
	}
	for key, v := range s.playerAttempts {
		if v {
			out.PlayerFetchAttempts[key] = true
		}
	}
	for key, err := range s.playerErrors {
		out.PlayerFetchErrors[key] = err.Error()
	}
	for key := range s.saving {
		out.Saving[key] = true
	}
	return out
}

// CheckAuth marks the service authenticated when a bearer token is stored.
func (s *GameDataService) CheckAuth(ctx context.Context) (bool, error) {
	_, ok, err := s.bearerToken(ctx)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = ok
	s.updatePollingLocked()
	return ok, nil
}

func (s *GameDataService) Login(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	if err := s.creds.Set(ctx, credential.TokenKey, token); err != nil {
		return crerr.Mark(crerr.Wrap(err, "store bearer token"), ErrDependencyUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = true
	s.updatePollingLocked()
	s.logger.InfoContext(ctx, "signed in")
	return nil
}

// Logout forgets the token, drops the selection cache and stops polling.
func (s *GameDataService) Logout(ctx context.Context) error {
	if err := s.creds.Delete(ctx, credential.TokenKey); err != nil {
		return crerr.Mark(crerr.Wrap(err, "delete bearer token"), ErrDependencyUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.cancelSelectionWorkLocked()
	s.selected = make(map[string]*gameplayer.GamePlayer)
	s.writtenAt = make(map[string]uint64)
	s.updatePollingLocked()
	s.logger.InfoContext(ctx, "signed out")
	return nil
}

// Close cancels in flight work, stops polling and releases the worker pool.
// It is safe to call more than once.
func (s *GameDataService) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	if s.gamesCancel != nil {
		s.gamesCancel()
		s.gamesCancel = nil
	}
	if s.gamesRelease != nil {
		s.gamesRelease()
		s.gamesRelease = nil
	}
	s.cancelSelectionWorkLocked()
	s.mu.Unlock()

	var err error
	if !s.poller.Close(s.cfg.CloseTimeout) {
		err = crerr.Newf("polling job still running after %s", s.cfg.CloseTimeout)
	}
	if releaseErr := s.pool.ReleaseTimeout(s.cfg.CloseTimeout); releaseErr != nil {
		err = crerr.CombineErrors(err, crerr.Wrap(releaseErr, "release selections worker pool"))
	}
	return err
}

func (s *GameDataService) cancelSelectionWorkLocked() {
	if s.writeCancel != nil {
		s.writeCancel()
		s.writeCancel = nil
	}
	s.writeGen++
	if s.syncCancel != nil {
		s.syncCancel()
		s.syncCancel = nil
	}
	s.syncGen++
}

// updatePollingLocked keeps the poller running exactly while signed in with games loaded.
func (s *GameDataService) updatePollingLocked() {
	if !s.closed && s.authenticated && len(s.games) > 0 {
		s.poller.Start()
		return
	}
	s.poller.Stop()
}

func (s *GameDataService) pollRefresh(ctx context.Context) {
	s.mu.Lock()
	live := !s.closed && s.authenticated && len(s.games) > 0
	s.mu.Unlock()
	if !live {
		return
	}

	s.logger.DebugContext(ctx, "periodic refresh triggered")
	if err := s.RefreshAllData(ctx); err != nil && !isQuietCancel(ctx, err) {
		s.logger.WarnContext(ctx, "periodic refresh failed", "error", err)
	}
}

func (s *GameDataService) bearerToken(ctx context.Context) (string, bool, error) {
	token, ok, err := s.creds.Get(ctx, credential.TokenKey)
	if err != nil {
		return "", false, crerr.Mark(crerr.Wrap(err, "read bearer token"), ErrDependencyUnavailable)
	}
	token = strings.TrimSpace(token)
	return token, ok && token != "", nil
}

// isQuietCancel reports errors caused by our own cancellation, which are never surfaced.
func isQuietCancel(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if crerr.Is(err, context.Canceled) {
		return true
	}
	return ctx.Err() != nil && crerr.Is(err, ctx.Err())
}
