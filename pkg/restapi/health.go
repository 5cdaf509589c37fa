package restapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

type healthHandler struct {
	logger  zerolog.Logger
	checker HealthChecker
}

func newHealthHandler(logger zerolog.Logger, checker HealthChecker) *healthHandler {
	return &healthHandler{
		logger:  logger,
		checker: checker,
	}
}

func (h *healthHandler) handle(r chi.Router) {
	r.Get("/healthz", h.healthz)
}

func (h *healthHandler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		err := h.checker.Ping(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Msg("health check failed")
			writeError(w, "storage is unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	writeResult(w, "ok")
}
