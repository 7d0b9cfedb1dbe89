package deps

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/MrSnakeDoc/marks/internal/library"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/metrics"
	"github.com/MrSnakeDoc/marks/internal/store"
	"github.com/MrSnakeDoc/marks/internal/thumbnail"
	"github.com/MrSnakeDoc/marks/internal/version"
)

// LinkTrigger queues an on-demand link check for one owner.
type LinkTrigger interface {
	Trigger(owner string) bool
}

// ThumbnailFlusher drops every shared thumbnail cache entry.
type ThumbnailFlusher interface {
	FlushThumbnails(ctx context.Context) (int, error)
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Build        version.Info
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access the API
	AllowedCIDRS []string         // IPs allowed to access readyz/infra/metrics
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins  []string         // origins allowed by the browser client

	Backend     string             // "supabase" or "memory"
	Store       store.Store        // auth + readiness
	Library     *library.Library   // bookmark operations
	Thumbnails  *thumbnail.Service // preview resolution
	Metrics     *metrics.Collector // nil disables /metrics
	RedisClient *redis.Client      // nil when redis is not configured
	LinkChecker LinkTrigger        // nil disables /api/linkcheck
	Flusher     ThumbnailFlusher   // nil when thumbnails are cached per process
	Validate    *validator.Validate

	AppURL         string       // public URL baked into the bookmarklet
	DefaultLocale  language.Tag // title collation when the client sends none
	ImportMaxBytes int64        // upper bound on an import upload

	RateLimitBurst      int
	RateLimitPerMinute  int
	RateLimitMaxEntries int
}
