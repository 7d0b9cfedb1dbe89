package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendSupabase = "supabase"
	BackendMemory   = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	AppURL          string        // public URL of the web app, used by the bookmarklet
	DefaultLocale   string        // BCP 47 tag for title sorting when the client sends none
	ImportMaxBytes  int64         // upload limit for /api/import

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Persistence
	Backend     string            // "supabase" | "memory"
	SupabaseURL string            // ex: https://xyz.supabase.co
	SupabaseKey string            // service role key
	DevTokens   map[string]string // memory backend sessions, "token:user,token2:user2"

	// Redis (optional, empty addr = disabled)
	RedisAddr             string
	RedisUser             string
	RedisPassword         string
	RedisPasswordRequired bool
	RedisDB               int
	RedisDT               time.Duration // dial timeout
	RedisRT               time.Duration // read timeout
	RedisWT               time.Duration // write timeout
	RedisMaxWait          time.Duration // max wait between retries
	RedisPingTimeout      time.Duration
	RedisPoolSize         int
	RedisConnectTimeout   time.Duration // total time to retry connecting
	RedisRetryInterval    time.Duration // initial wait between retries, grows exponentially
	RedisWarnThreshold    int
	CollectionTTL         time.Duration // lifetime of a collection snapshot in redis

	// Thumbnails
	ScreenshotURL       string // screenshot service endpoint, empty = no screenshots
	ScreenshotKey       string
	ScreenshotWidth     int
	ScreenshotHeight    int
	ScreenshotFormat    string
	ScreenshotQuality   int
	ImageProxyURL       string // image resize proxy, empty = link images directly
	ImageProxyWidth     int
	ImageProxyHeight    int
	ImageProxyFormat    string
	ProbeEnabled        bool // false => YouTube stills are not verified and Vimeo is skipped
	ProbeTimeout        time.Duration
	ResolveTimeout      time.Duration
	ThumbnailCacheSize  int           // in-memory entries when redis is disabled
	ThumbnailCacheTTL   time.Duration // redis TTL
	FFmpegPath          string        // empty = no frame capture
	FFmpegTimeout       time.Duration
	FrameOffset         time.Duration // default capture offset for direct videos
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration

	// AllowInternalTargets lets probes, link checks and ffmpeg reach
	// loopback and private addresses. Off outside local development.
	AllowInternalTargets bool

	// Background jobs
	LinkCheckInterval    time.Duration // 0 = manual only
	LinkCheckTimeout     time.Duration
	LinkCheckConcurrency int
	IndexIdleTTL         time.Duration // evict collections unread for this long
	GCInterval           time.Duration
	HomepageFile         string // optional bookmarks.yaml/services.yaml to sync
	HomepageFormat       string // "homepage" | "homepage-services"
	HomepageOwner        string // user id receiving the synced bookmarks
	HomepageSyncInterval time.Duration

	// Access restrictions
	CORSOrigins      []string
	AllowedHosts     []string // optional, restrict access to specific Host headers
	AllowedCIDRS     []string // optional, restrict infra endpoints to specific IPs
	TrustProxy       bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
	RateLimitBurst   int
	RateLimitPerMin  int
	RateLimitEntries int
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("MARKS_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("MARKS_SHUTDOWN_TIMEOUT", 5*time.Second),
		AppURL:          strings.TrimRight(getenv("MARKS_APP_URL", "http://localhost:3000"), "/"),
		DefaultLocale:   getenv("MARKS_DEFAULT_LOCALE", "en"),
		ImportMaxBytes:  int64(getenvInt("MARKS_IMPORT_MAX_BYTES", 10<<20)),

		// Logging
		LogLevel:  getenv("MARKS_LOG_LEVEL", "info"),
		PrettyLog: mustBool("MARKS_PRETTY_LOG", true),

		// Persistence
		Backend:   strings.ToLower(getenv("MARKS_BACKEND", BackendSupabase)),
		DevTokens: parseTokens(getenv("MARKS_DEV_TOKENS", "")),

		// Redis settings
		RedisAddr:             getenv("MARKS_REDIS_ADDR", ""),
		RedisUser:             getenv("MARKS_REDIS_USERNAME", "default"),
		RedisPasswordRequired: mustBool("MARKS_REDIS_PASSWORD_REQUIRED", true),
		RedisPassword:         getenv("MARKS_REDIS_PASSWORD", ""),
		RedisDB:               getenvInt("MARKS_REDIS_DB", 0),
		RedisDT:               mustDuration("MARKS_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:               mustDuration("MARKS_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:               mustDuration("MARKS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:          mustDuration("MARKS_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:      mustDuration("MARKS_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:         getenvInt("MARKS_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout:   mustDuration("MARKS_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:    mustDuration("MARKS_REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:    getenvInt("MARKS_REDIS_WARN_THRESHOLD", 3),
		CollectionTTL:         mustDuration("MARKS_COLLECTION_TTL", 10*time.Minute),

		// Thumbnails
		ScreenshotURL:       getenv("MARKS_SCREENSHOT_URL", ""),
		ScreenshotKey:       getenv("MARKS_SCREENSHOT_KEY", ""),
		ScreenshotWidth:     getenvInt("MARKS_SCREENSHOT_WIDTH", 1280),
		ScreenshotHeight:    getenvInt("MARKS_SCREENSHOT_HEIGHT", 800),
		ScreenshotFormat:    getenv("MARKS_SCREENSHOT_FORMAT", "jpg"),
		ScreenshotQuality:   getenvInt("MARKS_SCREENSHOT_QUALITY", 85),
		ImageProxyURL:       getenv("MARKS_IMAGE_PROXY_URL", ""),
		ImageProxyWidth:     getenvInt("MARKS_IMAGE_PROXY_WIDTH", 640),
		ImageProxyHeight:    getenvInt("MARKS_IMAGE_PROXY_HEIGHT", 360),
		ImageProxyFormat:    getenv("MARKS_IMAGE_PROXY_FORMAT", "webp"),
		ProbeEnabled:        mustBool("MARKS_THUMBNAIL_PROBE", true),
		ProbeTimeout:        mustDuration("MARKS_PROBE_TIMEOUT", 5*time.Second),
		ResolveTimeout:      mustDuration("MARKS_RESOLVE_TIMEOUT", 20*time.Second),
		ThumbnailCacheSize:  getenvInt("MARKS_THUMBNAIL_CACHE_SIZE", 10000),
		ThumbnailCacheTTL:   mustDuration("MARKS_THUMBNAIL_CACHE_TTL", 7*24*time.Hour),
		FFmpegPath:          getenv("MARKS_FFMPEG_PATH", ""),
		FFmpegTimeout:       mustDuration("MARKS_FFMPEG_TIMEOUT", 15*time.Second),
		FrameOffset:         mustDuration("MARKS_FRAME_OFFSET", 5*time.Second),
		BreakerMinRequests:  getenvInt("MARKS_BREAKER_MIN_REQUESTS", 5),
		BreakerFailureRatio: getenvFloat("MARKS_BREAKER_FAILURE_RATIO", 0.8),
		BreakerOpenTimeout:  mustDuration("MARKS_BREAKER_OPEN_TIMEOUT", 60*time.Second),

		AllowInternalTargets: mustBool("MARKS_ALLOW_INTERNAL_TARGETS", false),

		// Background jobs
		LinkCheckInterval:    mustDuration("MARKS_LINKCHECK_INTERVAL", 24*time.Hour),
		LinkCheckTimeout:     mustDuration("MARKS_LINKCHECK_TIMEOUT", 10*time.Second),
		LinkCheckConcurrency: getenvInt("MARKS_LINKCHECK_CONCURRENCY", 8),
		IndexIdleTTL:         mustDuration("MARKS_INDEX_IDLE_TTL", 30*time.Minute),
		GCInterval:           mustDuration("MARKS_GC_INTERVAL", 5*time.Minute),
		HomepageFile:         getenv("MARKS_HOMEPAGE_FILE", ""),
		HomepageFormat:       getenv("MARKS_HOMEPAGE_FORMAT", "homepage"),
		HomepageOwner:        getenv("MARKS_HOMEPAGE_OWNER", ""),
		HomepageSyncInterval: mustDuration("MARKS_HOMEPAGE_SYNC_INTERVAL", 24*time.Hour),

		// Access restrictions
		CORSOrigins:      splitAndTrim(getenv("MARKS_CORS_ORIGINS", "http://localhost:3000")),
		AllowedHosts:     splitAndTrim(getenv("MARKS_ALLOWED_HOSTS", "")),
		AllowedCIDRS:     parseAllowedIPs(getenv("MARKS_ALLOWED_CIDRS", "")),
		TrustProxy:       mustBool("MARKS_TRUST_PROXY", true),
		RateLimitBurst:   getenvInt("MARKS_RATE_LIMIT_BURST", 30),
		RateLimitPerMin:  getenvInt("MARKS_RATE_LIMIT_PER_MIN", 60),
		RateLimitEntries: getenvInt("MARKS_RATE_LIMIT_MAX_ENTRIES", 10000),
	}

	switch cfg.Backend {
	case BackendSupabase:
		cfg.SupabaseURL = requireEnv("MARKS_SUPABASE_URL")
		cfg.SupabaseKey = requireEnv("MARKS_SUPABASE_SERVICE_KEY")
	case BackendMemory:
		if len(cfg.DevTokens) == 0 {
			panic("❌ FATAL: MARKS_DEV_TOKENS is required when MARKS_BACKEND=memory")
		}
	default:
		panic(fmt.Sprintf("❌ FATAL: unknown MARKS_BACKEND %q (want supabase or memory)", cfg.Backend))
	}

	// Validate Redis password configuration
	if cfg.RedisAddr != "" && cfg.RedisPasswordRequired && cfg.RedisPassword == "" {
		panic("❌ FATAL: MARKS_REDIS_PASSWORD is required when MARKS_REDIS_PASSWORD_REQUIRED=true")
	}

	if cfg.HomepageFile != "" && cfg.HomepageOwner == "" {
		panic("❌ FATAL: MARKS_HOMEPAGE_OWNER is required when MARKS_HOMEPAGE_FILE is set")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	const hidden = "***REDACTED***"
	if cp.RedisPassword != "" {
		cp.RedisPassword = hidden
	}
	if cp.RedisUser != "" {
		cp.RedisUser = hidden
	}
	if cp.SupabaseKey != "" {
		cp.SupabaseKey = hidden
	}
	if cp.ScreenshotKey != "" {
		cp.ScreenshotKey = hidden
	}
	if len(cp.DevTokens) > 0 {
		cp.DevTokens = map[string]string{hidden: fmt.Sprintf("%d sessions", len(c.DevTokens))}
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

// parseTokens reads "token:user" pairs. Malformed pairs are ignored.
func parseTokens(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range splitAndTrim(s) {
		token, user, ok := strings.Cut(pair, ":")
		token, user = strings.TrimSpace(token), strings.TrimSpace(user)
		if !ok || token == "" || user == "" {
			continue
		}
		out[token] = user
	}
	return out
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
