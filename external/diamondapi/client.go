package diamondapi

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
	"github.com/riskibarqy/diamond-plays/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 20 * time.Second
	maxResponseBytes = 4 << 20
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RateLimit      float64
	RateBurst      int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the pick REST API. It implements game.Repository,
// gameplayer.Repository and selection.Repository.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	limiter    *rate.Limiter
	flight     resilience.SingleFlight
}

var (
	_ game.Repository       = (*Client)(nil)
	_ gameplayer.Repository = (*Client)(nil)
	_ selection.Repository  = (*Client)(nil)
)

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, crerr.Newf("invalid pick api base url %q", cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger.Named("diamondapi"),
		breaker:    cfg.CircuitBreaker.NewBreaker(isCircuitFailure),
		limiter:    limiter,
	}, nil
}

func (c *Client) ListByDate(ctx context.Context, token, date string) ([]game.Game, error) {
	query := url.Values{}
	query.Set("date", date)

	var out []game.Game
	if _, err := c.doJSON(ctx, http.MethodGet, "/data/games", query, token, nil, &out); err != nil {
		return nil, fmt.Errorf("list games date=%s: %w", date, err)
	}
	if out == nil {
		out = []game.Game{}
	}
	return out, nil
}

// ListByGameTeam returns the roster for one team in one game. A payload that is
// not a JSON array is treated as an empty roster.
func (c *Client) ListByGameTeam(ctx context.Context, token, gameID, teamID string) ([]gameplayer.GamePlayer, error) {
	query := url.Values{}
	query.Set("gameId", gameID)
	query.Set("teamId", teamID)

	raw, err := c.doJSON(ctx, http.MethodGet, "/data/game-players", query, token, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list game players game_id=%s team_id=%s: %w", gameID, teamID, err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		c.logger.WarnContext(ctx, "game players payload is not an array", "game_id", gameID, "team_id", teamID)
		return []gameplayer.GamePlayer{}, nil
	}

	out := make([]gameplayer.GamePlayer, 0, 9)
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, crerr.Wrap(err, "decode game players")
	}
	return out, nil
}

func (c *Client) List(ctx context.Context, token string) ([]selection.Selection, error) {
	var out []selection.Selection
	if _, err := c.doJSON(ctx, http.MethodGet, "/selections", nil, token, nil, &out); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	return out, nil
}

// GetByGameTeam returns the caller's selection for one team in one game. A 404
// or empty body means no selection.
func (c *Client) GetByGameTeam(ctx context.Context, token, gameID, teamID string) (selection.Selection, bool, error) {
	path := "/selections/" + url.PathEscape(gameID) + "/" + url.PathEscape(teamID)
	raw, err := c.doJSON(ctx, http.MethodGet, path, nil, token, nil, nil)
	if err != nil {
		if StatusCode(err) == http.StatusNotFound {
			return selection.Selection{}, false, nil
		}
		return selection.Selection{}, false, fmt.Errorf("get selection game_id=%s team_id=%s: %w", gameID, teamID, err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return selection.Selection{}, false, nil
	}

	var out selection.Selection
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return selection.Selection{}, false, crerr.Wrap(err, "decode selection")
	}
	if out.GamePlayer.ID == "" && out.GamePlayer.Entry == nil {
		return selection.Selection{}, false, nil
	}
	return out, true, nil
}

// Create posts a new selection. It is never retried: a lost response followed by a
// retry would surface as a spurious uniqueness conflict.
func (c *Client) Create(ctx context.Context, token, gamePlayerID string) (selection.Selection, error) {
	payload := struct {
		GamePlayerID string `json:"gamePlayerId"`
	}{GamePlayerID: gamePlayerID}

	var out selection.Selection
	raw, err := c.doJSON(ctx, http.MethodPost, "/selections", nil, token, payload, nil)
	if err != nil {
		return selection.Selection{}, err
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		if err := sonic.Unmarshal(trimmed, &out); err != nil {
			c.logger.WarnContext(ctx, "decode created selection failed", "error", err)
		}
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, token, selectionID string) error {
	path := "/selections/" + url.PathEscape(selectionID)
	if _, err := c.doJSON(ctx, http.MethodDelete, path, nil, token, nil, nil); err != nil {
		return fmt.Errorf("delete selection id=%s: %w", selectionID, err)
	}
	return nil
}

// Login exchanges email and password for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out struct {
		Token string `json:"token"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, "", payload, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", crerr.New("login response has no token")
	}
	return out.Token, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, token string, payload any, target any) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var body []byte
	if payload != nil {
		encoded, err := encodeBody(payload)
		if err != nil {
			return nil, err
		}
		body = encoded
	}

	run := func() ([]byte, error) {
		var raw []byte
		call := func() error {
			var reqErr error
			raw, reqErr = c.executeRequest(ctx, method, path, fullURL, token, body)
			return reqErr
		}
		if c.breaker == nil {
			return raw, call()
		}
		err := c.breaker.Execute(call)
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			c.logger.WarnContext(ctx, "pick api circuit breaker rejected request", "state", c.breaker.State(), "path", path)
			return nil, crerr.Mark(crerr.Wrapf(err, "%s %s", method, path), ErrUnavailable)
		}
		return raw, err
	}

	var raw []byte
	if method == http.MethodGet {
		out, err := c.sharedGet(ctx, hashToken(token)+" "+fullURL, run)
		if err != nil {
			return nil, err
		}
		raw = out
	} else {
		var err error
		raw, err = run()
		if err != nil {
			return nil, err
		}
	}

	if target != nil {
		if err := sonic.Unmarshal(raw, target); err != nil {
			return nil, crerr.Wrapf(err, "decode %s %s payload", method, path)
		}
	}
	return raw, nil
}

// sharedGet joins identical in-flight GETs. A leader whose ctx is cancelled
// forgets its key so later callers start fresh, and a caller that is still live
// never takes a cancelled leader's error as its own.
func (c *Client) sharedGet(ctx context.Context, key string, run func() ([]byte, error)) ([]byte, error) {
	for {
		led := false
		out, err, _ := c.flight.DoContext(ctx, key, func() (any, error) {
			led = true
			stop := context.AfterFunc(ctx, func() { c.flight.Forget(key) })
			defer stop()
			return run()
		})
		if !led && err != nil && ctx.Err() == nil && isContextErr(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		raw, _ := out.([]byte)
		return raw, nil
	}
}

func (c *Client) executeRequest(ctx context.Context, method, path, fullURL, token string, body []byte) ([]byte, error) {
	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		raw, err := c.send(ctx, method, path, fullURL, token, body)
		if err == nil {
			return raw, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !isCircuitFailure(err) || attempt == attempts-1 {
			break
		}

		backoff := time.Duration(attempt+1) * 500 * time.Millisecond
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if isCircuitFailure(lastErr) {
		c.logger.WarnContext(ctx, "pick api request failed", "method", method, "path", path, "error", lastErr)
	}
	return nil, lastErr
}

func (c *Client) send(ctx context.Context, method, path, fullURL, token string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isCanceled(err) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Mark(crerr.Wrapf(err, "send %s %s", method, path), errTransient)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read response body"), errTransient)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(method, path, resp.StatusCode, raw)
	}
	return raw, nil
}

func encodeBody(payload any) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		return nil, crerr.Wrap(err, "encode request body")
	}
	return append([]byte(nil), buf.B...), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
