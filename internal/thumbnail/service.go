package thumbnail

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/metrics"
)

const (
	// DefaultResolveTimeout bounds one full ladder run.
	DefaultResolveTimeout = 20 * time.Second
	// DefaultFrameOffset is used when a bookmark has no thumbnail timestamp.
	DefaultFrameOffset = 5 * time.Second
)

// Options wires a Service. Every collaborator is optional: a missing one
// removes its rung from the ladders.
type Options struct {
	Cache      Cache // defaults to an unbounded MemoryCache
	Prober     ImageProber
	JSON       JSONGetter
	Frames     FrameExtractor
	Screenshot ScreenshotConfig
	Proxy      *ImageProxy

	YouTubeBase string
	VimeoBase   string

	ResolveTimeout     time.Duration
	DefaultFrameOffset time.Duration

	Logger  logger.Logger
	Metrics *metrics.Collector
}

// Service resolves preview images for bookmarks. Results are best effort:
// failure is reported as ("", false), never as an error.
type Service struct {
	cache         Cache
	ladders       map[domain.BookmarkType][]Strategy
	fallback      []Strategy
	timeout       time.Duration
	defaultOffset time.Duration
	frames        bool
	group         singleflight.Group
	log           logger.Logger
	metrics       *metrics.Collector

	// Bumped by Regenerate; a run only caches its result if the key's
	// generation is unchanged since it started.
	mu          sync.Mutex
	generations map[string]uint64
}

type resolution struct {
	url      string
	strategy string
	ok       bool
}

// New builds the per-type ladders from opts.
func New(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache(0)
	}
	if opts.ResolveTimeout <= 0 {
		opts.ResolveTimeout = DefaultResolveTimeout
	}
	if opts.DefaultFrameOffset <= 0 {
		opts.DefaultFrameOffset = DefaultFrameOffset
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	screenshot := Screenshot(opts.Screenshot)

	video := []Strategy{YouTube(opts.YouTubeBase, opts.Prober)}
	if opts.JSON != nil {
		video = append(video, Vimeo(opts.VimeoBase, opts.JSON))
	}
	video = append(video, AnimatedImage(opts.Proxy))
	if opts.Frames != nil {
		video = append(video, VideoFrame(opts.Frames))
	}
	video = append(video, screenshot)

	return &Service{
		cache: opts.Cache,
		ladders: map[domain.BookmarkType][]Strategy{
			domain.TypeVideo:    video,
			domain.TypeImage:    {OwnImage(opts.Proxy)},
			domain.TypeDocument: {screenshot},
			domain.TypeLink:     {screenshot},
		},
		fallback:      []Strategy{screenshot},
		timeout:       opts.ResolveTimeout,
		defaultOffset: opts.DefaultFrameOffset,
		frames:        opts.Frames != nil,
		log:           opts.Logger,
		metrics:       opts.Metrics,
		generations:   make(map[string]uint64),
	}
}

// Resolve returns a preview image URL for rawURL, memoized per URL.
func (s *Service) Resolve(ctx context.Context, rawURL string, typ domain.BookmarkType) (string, bool) {
	return s.resolve(ctx, Target{URL: rawURL, Type: typ, FrameOffset: s.defaultOffset}, false)
}

// Regenerate drops any cached preview for rawURL and resolves it again.
func (s *Service) Regenerate(ctx context.Context, rawURL string, typ domain.BookmarkType) (string, bool) {
	return s.resolve(ctx, Target{URL: rawURL, Type: typ, FrameOffset: s.defaultOffset}, true)
}

// ResolveBookmark prefers the bookmark's stored thumbnail and otherwise
// resolves one, capturing video frames at the bookmark's own timestamp.
func (s *Service) ResolveBookmark(ctx context.Context, b *domain.Bookmark) (string, bool) {
	if b == nil {
		return "", false
	}
	if b.ThumbnailURL != "" {
		return b.ThumbnailURL, true
	}
	t := Target{URL: b.URL, Type: b.Type, FrameOffset: s.defaultOffset}
	if b.VideoThumbnailTimestamp != nil && *b.VideoThumbnailTimestamp >= 0 {
		t.FrameOffset = time.Duration(*b.VideoThumbnailTimestamp) * time.Second
	}
	return s.resolve(ctx, t, false)
}

func (s *Service) resolve(ctx context.Context, t Target, regenerate bool) (string, bool) {
	u, err := domain.ParseHTTPURL(t.URL)
	if err != nil {
		return "", false
	}
	t.URL = u.String()
	key := s.cacheKey(t)

	if regenerate {
		s.bump(key)
		if err := s.cache.Invalidate(ctx, key); err != nil {
			s.log.Warn("thumbnail cache invalidate failed", logger.String("url", key), logger.Error(err))
		}
		s.group.Forget(key)
	} else if cached, ok := s.cacheGet(ctx, key); ok {
		return cached, true
	}

	ch := s.group.DoChan(key, func() (any, error) {
		gen := s.generation(key)
		// The shared run outlives any single caller.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		ladder, ok := s.ladders[t.Type]
		if !ok {
			ladder = s.fallback
		}

		start := time.Now()
		url, strategy, ok := firstOf(runCtx, t, ladder)
		if !ok {
			s.metrics.ThumbnailResolved("none", "miss")
			s.log.Debug("no thumbnail found",
				logger.String("url", t.URL),
				logger.String("type", string(t.Type)),
				logger.Duration("elapsed", time.Since(start)))
			return resolution{}, nil
		}

		s.metrics.ThumbnailResolved(strategy, "hit")
		s.store(runCtx, key, url, gen)
		return resolution{url: url, strategy: strategy, ok: true}, nil
	})

	select {
	case <-ctx.Done():
		return "", false
	case res := <-ch:
		r := res.Val.(resolution)
		return r.url, r.ok
	}
}

// cacheKey is the URL, plus the capture offset when the preview may be a
// frame grabbed from the video itself.
func (s *Service) cacheKey(t Target) string {
	if s.frames && t.Type == domain.TypeVideo && domain.IsDirectVideo(t.URL) {
		return t.URL + "#frame=" + t.FrameOffset.String()
	}
	return t.URL
}

func (s *Service) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[key]
}

func (s *Service) bump(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[key]++
}

// store caches url unless the key was regenerated after gen was read. The
// lock is held across the write so a Regenerate cannot slip in between.
func (s *Service) store(ctx context.Context, key, url string, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[key] != gen {
		s.log.Debug("thumbnail superseded by a regenerate", logger.String("url", key))
		return
	}
	if err := s.cache.Set(ctx, key, url); err != nil {
		s.log.Warn("thumbnail cache write failed", logger.String("url", key), logger.Error(err))
	}
}

func (s *Service) cacheGet(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.log.Warn("thumbnail cache read failed", logger.String("url", key), logger.Error(err))
		s.metrics.ThumbnailCache("error")
		return "", false
	case !ok || v == "":
		s.metrics.ThumbnailCache("miss")
		return "", false
	default:
		s.metrics.ThumbnailCache("hit")
		return v, true
	}
}
