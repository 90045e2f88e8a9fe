package diamondapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	errors "github.com/cockroachdb/errors"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
	"github.com/riskibarqy/diamond-plays/internal/platform/resilience"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate func(*ClientConfig)) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := ClientConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL + "/api/",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	client, err := NewClient(cfg)
	require.NoError(t, err)
	return client
}

func TestNewClient_RejectsBadBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(ClientConfig{BaseURL: "not a url"})
	require.Error(t, err)
}

func TestClient_ListByDate_SendsBearerAndDate(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/data/games", r.URL.Path)
		require.Equal(t, "2024-05-01", r.URL.Query().Get("date"))
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"_id":"g1","homeTeam":{"_id":"h"},"awayTeam":{"_id":"a"},"status":"scheduled"}]`)
	}, nil)

	games, err := client.ListByDate(context.Background(), "tok", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, "g1", games[0].ID)
	require.Equal(t, []string{"a", "h"}, games[0].TeamIDs())
}

func TestClient_ListByDate_NullIsEmpty(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `null`)
	}, nil)

	games, err := client.ListByDate(context.Background(), "tok", "2024-05-01")
	require.NoError(t, err)
	require.NotNil(t, games)
	require.Empty(t, games)
}

func TestClient_ListByGameTeam_NonArrayIsEmptyRoster(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "g1", r.URL.Query().Get("gameId"))
		require.Equal(t, "t1", r.URL.Query().Get("teamId"))
		_, _ = io.WriteString(w, `{"message":"lineup not posted"}`)
	}, nil)

	players, err := client.ListByGameTeam(context.Background(), "tok", "g1", "t1")
	require.NoError(t, err)
	require.NotNil(t, players)
	require.Empty(t, players)
}

func TestClient_Create_MarksConflict(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.JSONEq(t, `{"gamePlayerId":"gp1"}`, string(body))
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"`+selection.ConflictMessage+`"}`)
	}, nil)

	_, err := client.Create(context.Background(), "tok", "gp1")
	require.Error(t, err)
	require.True(t, errors.Is(err, selection.ErrAlreadySelected))
	require.Equal(t, http.StatusBadRequest, StatusCode(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, selection.ConflictMessage, apiErr.Message)
}

func TestClient_Create_OtherErrorsAreNotConflicts(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"message":"Game already started"}`)
	}, nil)

	_, err := client.Create(context.Background(), "tok", "gp1")
	require.Error(t, err)
	require.False(t, errors.Is(err, selection.ErrAlreadySelected))
	require.Equal(t, http.StatusForbidden, StatusCode(err))
}

func TestClient_GetByGameTeam_NotFoundMeansNone(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/selections/g1/t1", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}, nil)

	_, ok, err := client.GetByGameTeam(context.Background(), "tok", "g1", "t1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestClient_GetByGameTeam_PopulatedEntry(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"_id":"s1","gamePlayer":{"_id":"gp9","battingOrder":9,"game":"g1","team":"t1"},"game":"g1","team":"t1"}`)
	}, nil)

	sel, ok, err := client.GetByGameTeam(context.Background(), "tok", "g1", "t1")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, sel.GamePlayer.Entry)
	require.Equal(t, 9, sel.GamePlayer.Entry.BattingOrder)
}

func TestClient_Delete_UsesSelectionPath(t *testing.T) {
	t.Parallel()

	var hit atomic.Bool
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/selections/s1", r.URL.Path)
		hit.Store(true)
		w.WriteHeader(http.StatusNoContent)
	}, nil)

	require.NoError(t, client.Delete(context.Background(), "tok", "s1"))
	require.True(t, hit.Load())
}

func TestClient_RetriesTransientGets(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `[]`)
	}, func(cfg *ClientConfig) { cfg.MaxRetries = 1 })

	selections, err := client.List(context.Background(), "tok")
	require.NoError(t, err)
	require.Empty(t, selections)
	require.EqualValues(t, 2, calls.Load())
}

func TestClient_NeverRetriesCreate(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(cfg *ClientConfig) { cfg.MaxRetries = 3 })

	_, err := client.Create(context.Background(), "tok", "gp1")
	require.Error(t, err)
	require.EqualValues(t, 1, calls.Load())
}

func TestClient_CircuitOpensOnTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *ClientConfig) {
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
			HalfOpenMaxReq:   1,
		}
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.List(ctx, "tok")
		require.Error(t, err)
	}
	_, err := client.List(ctx, "tok")
	require.True(t, errors.Is(err, ErrUnavailable))
	require.EqualValues(t, 2, calls.Load())
}

func TestClient_CanceledContextIsQuiet(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, nil)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := client.ListByDate(ctx, "tok", "2024-05-01")
		errCh <- err
	}()
	cancel()

	err := <-errCh
	require.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestClient_Login_ReturnsToken(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.JSONEq(t, `{"email":"demo@example.com","password":"pw"}`, string(body))
		_, _ = io.WriteString(w, `{"token":"abc"}`)
	}, nil)

	token, err := client.Login(context.Background(), "demo@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "abc", token)
}

func TestClient_Login_RejectedCredentials(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"message":"invalid email or password"}`)
	}, nil)

	_, err := client.Login(context.Background(), "demo@example.com", "nope")
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestClient_CancelledLeaderDoesNotLeakToNewerCaller(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	firstStarted := make(chan struct{})
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if requests.Add(1) == 1 {
			close(firstStarted)
			<-r.Context().Done()
			// slow to notice the cancellation
			time.Sleep(300 * time.Millisecond)
			return nil, r.Context().Err()
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`[{"_id":"g-fresh"}]`)),
			Request:    r,
		}, nil
	})

	client, err := NewClient(ClientConfig{
		HTTPClient: &http.Client{Transport: transport},
		BaseURL:    "http://pick.test/api",
	})
	require.NoError(t, err)

	stale, cancel := context.WithCancel(context.Background())
	staleDone := make(chan error, 1)
	go func() {
		_, err := client.ListByDate(stale, "tok", "2024-05-01")
		staleDone <- err
	}()
	<-firstStarted
	cancel()

	games, err := client.ListByDate(context.Background(), "tok", "2024-05-01")
	require.NoError(t, err)
	require.Len(t, games, 1)
	require.Equal(t, "g-fresh", games[0].ID)
	require.EqualValues(t, 2, requests.Load())

	require.ErrorIs(t, <-staleDone, context.Canceled)
}

func TestClient_JoinedGetStopsOnOwnDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		_, _ = io.WriteString(w, `[]`)
	}, nil)

	leaderDone := make(chan error, 1)
	go func() {
		_, err := client.ListByDate(context.Background(), "tok", "2024-05-01")
		leaderDone <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.ListByDate(ctx, "tok", "2024-05-01")
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-leaderDone)
}
