package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/text/language"

	"github.com/MrSnakeDoc/marks/internal/config"
	"github.com/MrSnakeDoc/marks/internal/httpserver"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/marks/internal/index"
	"github.com/MrSnakeDoc/marks/internal/library"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/metrics"
	"github.com/MrSnakeDoc/marks/internal/redis"
	"github.com/MrSnakeDoc/marks/internal/scheduler"
	"github.com/MrSnakeDoc/marks/internal/store"
	"github.com/MrSnakeDoc/marks/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/marks/internal/store/redis"
	"github.com/MrSnakeDoc/marks/internal/store/supabase"
	"github.com/MrSnakeDoc/marks/internal/thumbnail"
	"github.com/MrSnakeDoc/marks/internal/version"
)

type App struct {
	cfg          *config.Config
	logger       logger.Logger
	server       *httpserver.Server
	redisClient  *goredis.Client
	linkChecker  *scheduler.LinkChecker
	gc           *scheduler.GarbageCollector
	homepageSync *scheduler.HomepageSync
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	collector := metrics.New("marks")

	backend, err := newBackend(cfg, loggerClient.With(logger.Component("store")))
	if err != nil {
		loggerClient.Errorf("Failed to initialize %s backend: %v", cfg.Backend, err)
		os.Exit(1)
	}

	// Redis is optional; when configured it must be reachable at startup.
	var (
		redisClient *goredis.Client
		shared      *redisstore.Store
	)
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err = redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient.With(logger.Component("redis")))
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		shared = redisstore.NewStore(redisClient, cfg.ThumbnailCacheTTL, cfg.CollectionTTL)
		loggerClient.Info("Redis initialized successfully")
	} else {
		loggerClient.Info("redis not configured, caches are per process")
	}

	memIndex := index.NewMemoryIndex()
	libOpts := library.Options{
		Store:   backend,
		Index:   memIndex,
		Logger:  loggerClient.With(logger.Component("library")),
		Metrics: collector,
	}
	if shared != nil {
		libOpts.Snapshots = shared
	}
	lib := library.New(libOpts)

	thumbs := newThumbnailService(cfg, shared, loggerClient.With(logger.Component("thumbnail")), collector)

	linkChecker := scheduler.NewLinkChecker(lib, scheduler.LinkCheckerConfig{
		Interval:      cfg.LinkCheckInterval,
		Timeout:       cfg.LinkCheckTimeout,
		Concurrency:   cfg.LinkCheckConcurrency,
		AllowInternal: cfg.AllowInternalTargets,
	}, loggerClient.With(logger.Component("linkcheck")), collector)

	gc := scheduler.NewGarbageCollector(memIndex, loggerClient.With(logger.Component("gc")), cfg.GCInterval, cfg.IndexIdleTTL)

	var homepageSync *scheduler.HomepageSync
	if cfg.HomepageFile != "" {
		loggerClient.Info("homepage file configured, initializing homepage sync",
			logger.String("file", cfg.HomepageFile),
			logger.String("format", cfg.HomepageFormat))
		homepageSync = scheduler.NewHomepageSync(lib, cfg.HomepageOwner, cfg.HomepageFormat,
			cfg.HomepageFile, loggerClient.With(logger.Component("homepage")), cfg.HomepageSyncInterval)
	}

	locale, err := language.Parse(cfg.DefaultLocale)
	if err != nil {
		loggerClient.Warn("invalid default locale, using en",
			logger.String("locale", cfg.DefaultLocale), logger.Error(err))
		locale = language.English
	}

	build := version.Get()

	// Dependencies passed to routes.
	d := deps.Deps{
		Logger:              loggerClient,
		StartTime:           time.Now(),
		Build:               build,
		TimeNow:             time.Now,
		AllowedHosts:        cfg.AllowedHosts,
		AllowedCIDRS:        cfg.AllowedCIDRS,
		TrustProxy:          cfg.TrustProxy,
		CORSOrigins:         cfg.CORSOrigins,
		Backend:             cfg.Backend,
		Store:               backend,
		Library:             lib,
		Thumbnails:          thumbs,
		Metrics:             collector,
		RedisClient:         redisClient,
		LinkChecker:         linkChecker,
		Validate:            handlers.NewValidator(),
		AppURL:              cfg.AppURL,
		DefaultLocale:       locale,
		ImportMaxBytes:      cfg.ImportMaxBytes,
		RateLimitBurst:      cfg.RateLimitBurst,
		RateLimitPerMinute:  cfg.RateLimitPerMin,
		RateLimitMaxEntries: cfg.RateLimitEntries,
	}
	if shared != nil {
		d.Flusher = shared
	}

	server := httpserver.New(cfg.ListenPort, d)

	return &App{
		cfg:          cfg,
		logger:       loggerClient,
		server:       server,
		redisClient:  redisClient,
		linkChecker:  linkChecker,
		gc:           gc,
		homepageSync: homepageSync,
	}
}

func newBackend(cfg *config.Config, log logger.Logger) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		log.Warn("memory backend selected, data is lost on restart",
			logger.Int("sessions", len(cfg.DevTokens)))
		return memory.New(cfg.DevTokens), nil
	default:
		s, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseKey, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// newThumbnailService assembles the resolution ladders from what is configured.
// shared may be nil.
func newThumbnailService(cfg *config.Config, shared *redisstore.Store, log logger.Logger, m *metrics.Collector) *thumbnail.Service {
	opts := thumbnail.Options{
		Screenshot: thumbnail.ScreenshotConfig{
			BaseURL:        cfg.ScreenshotURL,
			AccessKey:      cfg.ScreenshotKey,
			ViewportWidth:  cfg.ScreenshotWidth,
			ViewportHeight: cfg.ScreenshotHeight,
			Format:         cfg.ScreenshotFormat,
			Quality:        cfg.ScreenshotQuality,
		},
		ResolveTimeout:     cfg.ResolveTimeout,
		DefaultFrameOffset: cfg.FrameOffset,
		Logger:             log,
		Metrics:            m,
	}

	if shared != nil {
		opts.Cache = shared.Thumbnails()
	} else {
		opts.Cache = thumbnail.NewMemoryCache(cfg.ThumbnailCacheSize)
	}

	if cfg.ImageProxyURL != "" {
		opts.Proxy = &thumbnail.ImageProxy{
			BaseURL: cfg.ImageProxyURL,
			Width:   cfg.ImageProxyWidth,
			Height:  cfg.ImageProxyHeight,
			Format:  cfg.ImageProxyFormat,
		}
	}

	if cfg.ProbeEnabled {
		client := thumbnail.NewClient(thumbnail.ClientConfig{
			Timeout:             cfg.ProbeTimeout,
			BreakerMinRequests:  uint32(max(cfg.BreakerMinRequests, 0)),
			BreakerFailureRatio: cfg.BreakerFailureRatio,
			BreakerOpenTimeout:  cfg.BreakerOpenTimeout,
			AllowInternal:       cfg.AllowInternalTargets,
		}, log, m)
		opts.Prober = client
		opts.JSON = client
	}

	if cfg.FFmpegPath != "" {
		opts.Frames = &thumbnail.FFmpegExtractor{
			Binary:        cfg.FFmpegPath,
			Timeout:       cfg.FFmpegTimeout,
			AllowInternal: cfg.AllowInternalTargets,
		}
	}

	return thumbnail.New(opts)
}

func (a *App) Run() error {
	build := version.Get()
	a.logger.Infof("🚀 Starting marks %s on %s", build.Version, a.cfg.ListenPort)
	a.logger.Info("build",
		logger.String("commit", build.Commit),
		logger.String("built", build.BuildDate),
		logger.String("go", build.GoVersion))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start homepage sync (imports the file once, then on its interval)
	if a.homepageSync != nil {
		if err := a.homepageSync.Start(ctx); err != nil {
			return fmt.Errorf("failed to start homepage sync: %w", err)
		}
		a.logger.Info("homepage sync started",
			logger.Duration("interval", a.cfg.HomepageSyncInterval))
	}

	// Start link checker (periodic when an interval is set, always on demand)
	if err := a.linkChecker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start link checker: %w", err)
	}
	a.logger.Info("link checker started",
		logger.Duration("interval", a.cfg.LinkCheckInterval))

	// Start garbage collector
	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.homepageSync != nil {
		a.homepageSync.Stop()
	}
	a.linkChecker.Stop()
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ marks stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
