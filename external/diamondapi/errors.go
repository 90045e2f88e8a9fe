package diamondapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/diamond-plays/internal/domain/selection"
)

var (
	errTransient = crerr.New("pick api transient failure")

	// ErrUnavailable is returned while the circuit breaker rejects calls.
	ErrUnavailable = crerr.New("pick api is temporarily unavailable")
)

// APIError is a non-2xx response from the pick API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("pick api %s %s status=%d: %s", e.Method, e.Path, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("pick api %s %s status=%d body=%s", e.Method, e.Path, e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an API error.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newAPIError(method, path string, status int, raw []byte) error {
	apiErr := &APIError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       abbreviateBody(raw),
	}

	var body errorBody
	if len(raw) > 0 && sonic.Unmarshal(raw, &body) == nil {
		apiErr.Message = strings.TrimSpace(body.Message)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(body.Error)
		}
	}

	var err error = apiErr
	if apiErr.Message == selection.ConflictMessage {
		err = crerr.Mark(err, selection.ErrAlreadySelected)
	}
	if isRetryableStatus(status) {
		err = crerr.Mark(err, errTransient)
	}
	return err
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func isCircuitFailure(err error) bool {
	return crerr.Is(err, errTransient)
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
