package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
)

type componentStatus struct {
	OK              bool   `json:"ok"`
	Backend         string `json:"backend,omitempty"`
	OwnersLoaded    *int   `json:"owners_loaded,omitempty"`
	BookmarksLoaded *int   `json:"bookmarks_loaded,omitempty"`
	LastLoad        string `json:"last_load,omitempty"`
	Mode            string `json:"mode,omitempty"`
	Impact          string `json:"impact,omitempty"`
	Error           string `json:"error,omitempty"`
}

type infraResponse struct {
	ServingMode string                     `json:"serving_mode"`
	Components  map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		idx := d.Library.Index()
		owners := idx.Count()
		bookmarks := idx.BookmarkCount()
		lastLoad := idx.LastLoad()
		lastLoadStr := "never"
		if !lastLoad.IsZero() {
			lastLoadStr = lastLoad.Format("2006-01-02 15:04:05")
		}

		components := map[string]componentStatus{
			"backend": checkBackend(r.Context(), d),
			"index": {
				OK:              true,
				OwnersLoaded:    &owners,
				BookmarksLoaded: &bookmarks,
				LastLoad:        lastLoadStr,
			},
			"redis": checkRedis(r.Context(), d),
			"linkcheck": {
				OK:   d.LinkChecker != nil,
				Mode: enabled(d.LinkChecker != nil),
			},
		}

		response := infraResponse{
			ServingMode: determineServingMode(components),
			Components:  components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineServingMode(components map[string]componentStatus) string {
	if backend, exists := components["backend"]; exists && !backend.OK {
		return "critical" // no backend = no bookmarks
	}

	// Redis is optional: without it previews and collections are cached per process.
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}

	return "optimal"
}

func checkBackend(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{OK: false, Backend: d.Backend, Error: err.Error()}
	}
	return componentStatus{OK: true, Backend: d.Backend}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "per-process-cache",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	err := d.RedisClient.Ping(ctx).Err()
	if err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "shared-cache-unavailable",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "shared-cache-enabled",
	}
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
