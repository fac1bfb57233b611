// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/matchday-vote/middleware"
	"github.com/danielhkuo/matchday-vote/models"
)

const healthPingTimeout = 5 * time.Second

// Health handles GET /health
// With ?deep=1 the vote store is pinged (and opened if needed) first
func (h *VoteHandler) Health(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("deep") != "" {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.deps.Votes.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			middleware.JSONResponse(w, http.StatusServiceUnavailable, models.ErrorResponse{
				Error:   http.StatusText(http.StatusServiceUnavailable),
				Message: err.Error(),
			})
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
