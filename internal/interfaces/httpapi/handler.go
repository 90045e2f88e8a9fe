package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/riskibarqy/diamond-plays/internal/domain/game"
	"github.com/riskibarqy/diamond-plays/internal/domain/gameplayer"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
	"github.com/riskibarqy/diamond-plays/internal/platform/id"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
	"github.com/riskibarqy/diamond-plays/internal/usecase"
)

const maxRequestBytes = 1 << 20

// Board serves the schedule and lineups.
type Board interface {
	ListGamesByDate(ctx context.Context, date string) ([]game.Game, error)
	ListRoster(ctx context.Context, gameID, teamID string) ([]gameplayer.GamePlayer, error)
	GetGamePlayer(ctx context.Context, id string) (gameplayer.GamePlayer, bool, error)
}

// SelectionStore persists picks. Insert must reject a second pick for the same
// (user, game, team) with selection.ErrAlreadySelected.
type SelectionStore interface {
	ListByUser(ctx context.Context, userID string) ([]selection.Selection, error)
	GetByUserGameTeam(ctx context.Context, userID, gameID, teamID string) (selection.Selection, bool, error)
	Insert(ctx context.Context, item selection.Selection) error
	Delete(ctx context.Context, userID, id string) (bool, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (string, error)
}

type Handler struct {
	board      Board
	selections SelectionStore
	accounts   Authenticator
	ids        id.Generator
	now        func() time.Time
	logger     *logging.Logger
	validator  *validator.Validate
}

func NewHandler(board Board, selections SelectionStore, accounts Authenticator, ids id.Generator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}

	return &Handler{
		board:      board,
		selections: selections,
		accounts:   accounts,
		ids:        ids,
		now:        time.Now,
		logger:     logger,
		validator:  validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Login")
	defer span.End()

	var req loginRequest
	if err := h.decodeBody(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	token, err := h.accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, loginResponse{Token: token})
}

func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGames")
	defer span.End()

	req := listGamesRequest{Date: strings.TrimSpace(r.URL.Query().Get("date"))}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	games, err := h.board.ListGamesByDate(ctx, req.Date)
	if err != nil {
		h.logger.ErrorContext(ctx, "list games failed", "date", req.Date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, games)
}

func (h *Handler) ListGamePlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListGamePlayers")
	defer span.End()

	query := r.URL.Query()
	req := listGamePlayersRequest{
		GameID: strings.TrimSpace(query.Get("gameId")),
		TeamID: strings.TrimSpace(query.Get("teamId")),
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	roster, err := h.board.ListRoster(ctx, req.GameID, req.TeamID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list game players failed", "game_id", req.GameID, "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, roster)
}

func (h *Handler) ListSelections(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSelections")
	defer span.End()

	userID, ok := userIDFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized))
		return
	}

	items, err := h.selections.ListByUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list selections failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSelection")
	defer span.End()

	userID, ok := userIDFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized))
		return
	}

	vars := mux.Vars(r)
	gameID, teamID := vars["gameId"], vars["teamId"]
	item, found, err := h.selections.GetByUserGameTeam(ctx, userID, gameID, teamID)
	if err != nil {
		h.logger.ErrorContext(ctx, "get selection failed", "user_id", userID, "game_id", gameID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeMessage(ctx, w, http.StatusNotFound, "Selection not found")
		return
	}

	writeJSON(ctx, w, http.StatusOK, item)
}

func (h *Handler) CreateSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSelection")
	defer span.End()

	userID, ok := userIDFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req createSelectionRequest
	if err := h.decodeBody(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entry, found, err := h.board.GetGamePlayer(ctx, req.GamePlayerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "lookup game player failed", "game_player_id", req.GamePlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !found {
		writeError(ctx, w, fmt.Errorf("%w: game player %s", usecase.ErrNotFound, req.GamePlayerID))
		return
	}

	selectionID, err := h.ids.NewID()
	if err != nil {
		h.logger.ErrorContext(ctx, "generate selection id failed", "error", err)
		writeInternalError(ctx, w)
		return
	}

	item := selection.Selection{
		ID:         selectionID,
		User:       userID,
		GamePlayer: selection.EntryRef{ID: entry.ID, Entry: &entry},
		Game:       entry.Game,
		Team:       entry.Team,
		Notes:      req.Notes,
		CreatedAt:  h.now().UTC().Format(time.RFC3339Nano),
	}
	if err := h.selections.Insert(ctx, item); err != nil {
		h.logger.WarnContext(ctx, "create selection rejected",
			"user_id", userID,
			"game_id", entry.Game.ID,
			"team_id", entry.Team.ID,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeJSON(ctx, w, http.StatusCreated, item)
}

func (h *Handler) DeleteSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteSelection")
	defer span.End()

	userID, ok := userIDFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: user is missing from request context", usecase.ErrUnauthorized))
		return
	}

	selectionID := mux.Vars(r)["id"]
	deleted, err := h.selections.Delete(ctx, userID, selectionID)
	if err != nil {
		h.logger.ErrorContext(ctx, "delete selection failed", "user_id", userID, "selection_id", selectionID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if !deleted {
		writeMessage(ctx, w, http.StatusNotFound, "Selection not found")
		return
	}

	writeMessage(ctx, w, http.StatusOK, "Selection deleted")
}

func (h *Handler) decodeBody(ctx context.Context, w http.ResponseWriter, r *http.Request, target any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, target)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type listGamesRequest struct {
	Date string `validate:"required,datetime=2006-01-02"`
}

type listGamePlayersRequest struct {
	GameID string `validate:"required"`
	TeamID string `validate:"required"`
}

type createSelectionRequest struct {
	GamePlayerID string `json:"gamePlayerId" validate:"required"`
	Notes        string `json:"notes" validate:"max=500"`
}
