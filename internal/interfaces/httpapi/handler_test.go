package httpapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
	"github.com/riskibarqy/diamond-plays/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

const slateDate = "2024-05-01"

type apiFixture struct {
	router http.Handler
	board  *memory.BoardRepository
}

func newAPIFixture(t *testing.T) apiFixture {
	t.Helper()

	ctx := context.Background()
	board := memory.NewBoardRepository()
	memory.SeedSlate(ctx, board, slateDate)
	accounts := memory.NewAccountRepository()
	memory.SeedAccounts(ctx, accounts)

	handler := NewHandler(board, memory.NewSelectionRepository(), accounts, nil, logging.NewNop())
	return apiFixture{
		router: NewRouter(handler, accounts, logging.NewNop(), RouterConfig{}),
		board:  board,
	}
}

func (f apiFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+memory.DemoToken)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f apiFixture) firstGame(t *testing.T) game.Game {
	t.Helper()

	games, err := f.board.ListGamesByDate(context.Background(), slateDate)
	require.NoError(t, err)
	require.NotEmpty(t, games)
	return games[0]
}

func (f apiFixture) roster(t *testing.T, g game.Game, teamID string) []gameplayer.GamePlayer {
	t.Helper()

	roster, err := f.board.ListRoster(context.Background(), g.ID, teamID)
	require.NoError(t, err)
	return roster
}

func TestRouter_RequiresBearerToken(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/data/games?date="+slateDate, nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/data/games?date="+slateDate, nil)
	req.Header.Set("Authorization", "Bearer nope")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Healthz(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ListGames(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/data/games?date="+slateDate, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var games []game.Game
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games, 3)

	rec = f.do(t, http.MethodGet, "/data/games?date=2030-01-01", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = f.do(t, http.MethodGet, "/data/games?date=05/01/2024", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_ListGamePlayers(t *testing.T) {
	f := newAPIFixture(t)
	g := f.firstGame(t)

	rec := f.do(t, http.MethodGet, "/data/game-players?gameId="+g.ID+"&teamId="+g.HomeTeam.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var roster []gameplayer.GamePlayer
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &roster))
	require.Len(t, roster, 9)
	require.Equal(t, g.HomeTeam.ID, roster[0].Team.ID)

	rec = f.do(t, http.MethodGet, "/data/game-players?gameId="+g.ID, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_CreateSelection_ConflictThenReplace(t *testing.T) {
	f := newAPIFixture(t)
	g := f.firstGame(t)
	lineup := f.roster(t, g, g.AwayTeam.ID)

	rec := f.do(t, http.MethodPost, "/selections", `{"gamePlayerId":"`+lineup[0].ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created selection.Selection
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, lineup[0].ID, created.GamePlayer.ID)
	require.Equal(t, g.ID, created.Game.ID)
	require.Equal(t, g.AwayTeam.ID, created.Team.ID)

	rec = f.do(t, http.MethodPost, "/selections", `{"gamePlayerId":"`+lineup[1].ID+`"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, selection.ConflictMessage, decodeMessage(t, rec))

	rec = f.do(t, http.MethodGet, "/selections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []selection.Selection
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &listed))
	existing, ok := selection.FindFor(listed, g.ID, g.AwayTeam.ID)
	require.True(t, ok)

	rec = f.do(t, http.MethodDelete, "/selections/"+existing.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/selections", `{"gamePlayerId":"`+lineup[1].ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/selections/"+g.ID+"/"+g.AwayTeam.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var current selection.Selection
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &current))
	require.Equal(t, lineup[1].ID, current.GamePlayer.ID)
	require.NotNil(t, current.GamePlayer.Entry)
	require.Equal(t, 2, current.GamePlayer.Entry.BattingOrder)
}

func TestHandler_CreateSelection_Validation(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/selections", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/selections", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/selections", `{"gamePlayerId":"ffffffffffffffffffffffff"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_GetSelection_NoneIsNotFound(t *testing.T) {
	f := newAPIFixture(t)
	g := f.firstGame(t)

	rec := f.do(t, http.MethodGet, "/selections/"+g.ID+"/"+g.HomeTeam.ID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/selections/unknown", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Login(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"`+memory.DemoEmail+`","password":"`+memory.DemoPassword+`"}`))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body loginResponse
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)

	req = httptest.NewRequest(http.MethodGet, "/selections", nil)
	req.Header.Set("Authorization", "Bearer "+body.Token)
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"`+memory.DemoEmail+`","password":"wrong"}`))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid email or password", decodeMessage(t, rec))
}

func TestRouter_RecoversPanics(t *testing.T) {
	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
