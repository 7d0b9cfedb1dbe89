package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

type linkCheckResponse struct {
	Queued bool   `json:"queued"`
	Error  string `json:"error,omitempty"`
}

// LinkCheck queues a health check of the caller's bookmarks.
func LinkCheck(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.LinkChecker == nil {
			writeJSON(w, http.StatusServiceUnavailable, linkCheckResponse{Error: "link checker disabled"})
			return
		}
		if !d.LinkChecker.Trigger(owner(r)) {
			d.Logger.Warn("link check queue full", logger.String("owner", owner(r)))
			writeJSON(w, http.StatusTooManyRequests, linkCheckResponse{Error: "link check already queued, please wait"})
			return
		}
		d.Logger.Info("manual link check triggered via endpoint", logger.String("owner", owner(r)))
		writeJSON(w, http.StatusAccepted, linkCheckResponse{Queued: true})
	}
}
