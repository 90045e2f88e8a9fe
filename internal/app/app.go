package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/diamond-plays/external/diamondapi"
	"github.com/riskibarqy/diamond-plays/internal/config"
	"github.com/riskibarqy/diamond-plays/internal/domain/credential"
	"github.com/riskibarqy/diamond-plays/internal/infrastructure/credstore"
	"github.com/riskibarqy/diamond-plays/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/diamond-plays/internal/interfaces/httpapi"
	idgen "github.com/riskibarqy/diamond-plays/internal/platform/id"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
	"github.com/riskibarqy/diamond-plays/internal/usecase"
)

const credentialKeyPrefix = "diamond-plays:credentials:"

// PickClient bundles the API client and the cache layer built on it.
type PickClient struct {
	API     *diamondapi.Client
	Service *usecase.GameDataService
	closers []func() error
}

func NewPickClient(ctx context.Context, cfg config.Config, logger *logging.Logger) (*PickClient, error) {
	if logger == nil {
		logger = logging.Default()
	}

	creds, closeCreds, err := newCredentialStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	api, err := diamondapi.NewClient(diamondapi.ClientConfig{
		BaseURL:        cfg.APIBaseURL,
		Timeout:        cfg.APITimeout,
		MaxRetries:     cfg.APIMaxRetries,
		RateLimit:      cfg.APIRateLimit,
		RateBurst:      cfg.APIRateBurst,
		Logger:         logger,
		CircuitBreaker: cfg.APICircuit,
	})
	if err != nil {
		return nil, crerr.CombineErrors(err, closeCreds())
	}

	svc, err := usecase.NewGameDataService(api, api, api, creds, usecase.GameDataConfig{
		PlayerFetchTimeout: cfg.PlayerFetchTimeout,
		FetchThrottle:      cfg.FetchThrottle,
		PollInterval:       cfg.PollInterval,
		SyncWorkers:        cfg.SyncWorkers,
		Location:           cfg.Location,
	}, logger)
	if err != nil {
		return nil, crerr.CombineErrors(err, closeCreds())
	}

	return &PickClient{
		API:     api,
		Service: svc,
		closers: []func() error{svc.Close, closeCreds},
	}, nil
}

// SignIn exchanges credentials for a token and stores it.
func (c *PickClient) SignIn(ctx context.Context, email, password string) error {
	token, err := c.API.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return c.Service.Login(ctx, token)
}

func (c *PickClient) Close() error {
	var errs error
	for _, closeFn := range c.closers {
		errs = crerr.CombineErrors(errs, closeFn())
	}
	return errs
}

func newCredentialStore(ctx context.Context, cfg config.Config) (credential.Store, func() error, error) {
	switch cfg.CredentialBackend {
	case config.CredentialBackendRedis:
		store, err := credstore.NewRedisStore(ctx, cfg.RedisURL, credentialKeyPrefix, cfg.CredentialTTL)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: connect credential store: %v", usecase.ErrDependencyUnavailable, err)
		}
		return store, store.Close, nil
	default:
		return credstore.NewMemoryStore(cfg.CredentialTTL), func() error { return nil }, nil
	}
}

// FakeAPIConfig shapes the local pick API backend.
type FakeAPIConfig struct {
	Addr               string
	Latency            time.Duration
	CORSAllowedOrigins []string
	// SeedDates are the YYYY-MM-DD days that get the demo slate.
	SeedDates []string
}

// NewFakeAPIHandler builds the in-memory pick API with the demo slate and account.
func NewFakeAPIHandler(cfg FakeAPIConfig, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	ctx := context.Background()
	board := memory.NewBoardRepository()
	memory.SeedSlate(ctx, board, cfg.SeedDates...)
	accounts := memory.NewAccountRepository()
	memory.SeedAccounts(ctx, accounts)

	handler := httpapi.NewHandler(board, memory.NewSelectionRepository(), accounts, idgen.NewRandomGenerator(), logger)
	return httpapi.NewRouter(handler, accounts, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Latency:            cfg.Latency,
	})
}

func NewFakeAPIServer(cfg FakeAPIConfig, logger *logging.Logger) (*http.Server, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewFakeAPIHandler(cfg, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}, nil
}
