package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
)

type RouterConfig struct {
	CORSAllowedOrigins []string
	Latency            time.Duration
}

func NewRouter(handler *Handler, verifier TokenVerifier, logger *logging.Logger, cfg RouterConfig) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(r.Context(), w, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed")
	})
	registerSystemRoutes(router, handler)
	registerDataRoutes(router, handler, verifier)
	registerSelectionRoutes(router, handler, verifier)

	return RequestTracing(RequestLogging(logger, CORS(cfg.CORSAllowedOrigins, recoverPanic(logger, Latency(cfg.Latency, router)))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "panic recovered", "panic", rec, "path", r.URL.Path)
				writeInternalError(r.Context(), w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
