package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const probeTimeout = 2 * time.Second

type readyzResponse struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}

// Readyz reports ready when the backend answers. Redis is optional, so a
// redis failure is reported but does not fail readiness.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		resp := readyzResponse{Ready: true, Checks: map[string]string{}}
		if err := d.Store.Ping(ctx); err != nil {
			d.Logger.Warn("readiness: backend ping failed", logger.Error(err))
			resp.Ready = false
			resp.Checks["backend"] = err.Error()
		} else {
			resp.Checks["backend"] = "ok"
		}

		if d.RedisClient != nil {
			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				resp.Checks["redis"] = err.Error()
			} else {
				resp.Checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		if !resp.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, resp)
	}
}
