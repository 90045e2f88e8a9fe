package httpapi

import (
	"context"
	"net/http"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
	"github.com/riskibarqy/diamond-plays/internal/usecase"
)

// messageBody is the error shape the pick API clients parse.
type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	_, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

func writeMessage(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	writeJSON(ctx, w, status, messageBody{Message: msg})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	status, msg := mapError(err)
	writeMessage(ctx, w, status, msg)
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeMessage(ctx, w, http.StatusInternalServerError, "internal server error")
}

// mapError picks the status and client message for err. A duplicate pick is a
// 400 carrying the exact conflict message clients match on.
func mapError(err error) (int, string) {
	switch {
	case crerr.Is(err, selection.ErrAlreadySelected):
		return http.StatusBadRequest, selection.ConflictMessage
	case crerr.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case crerr.Is(err, usecase.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case crerr.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case crerr.Is(err, usecase.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
