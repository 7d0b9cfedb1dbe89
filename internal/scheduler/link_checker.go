package scheduler

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/library"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/metrics"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

const (
	DefaultLinkCheckTimeout     = 10 * time.Second
	DefaultLinkCheckConcurrency = 8
)

// LinkCheckerConfig tunes the checker. A zero Interval disables the
// periodic run; manual triggers still work.
type LinkCheckerConfig struct {
	Interval    time.Duration
	Timeout     time.Duration
	Concurrency int
	UserAgent   string
	// AllowInternal permits checking loopback and private addresses.
	AllowInternal bool
}

// CheckSummary reports one owner's run.
type CheckSummary struct {
	Checked int `json:"checked"`
	Alive   int `json:"alive"`
	Dead    int `json:"dead"`
	Failed  int `json:"failed"`
}

// LinkChecker probes bookmark URLs and records isAlive and lastChecked.
type LinkChecker struct {
	lib     *library.Library
	http    *resty.Client
	logger  logger.Logger
	metrics *metrics.Collector
	cfg     LinkCheckerConfig
	stopCh  chan struct{}
	trigger chan string
	now     func() time.Time
}

// NewLinkChecker creates a link checker
func NewLinkChecker(lib *library.Library, cfg LinkCheckerConfig, log logger.Logger, m *metrics.Collector) *LinkChecker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLinkCheckTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultLinkCheckConcurrency
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "marks-linkcheck/1.0"
	}
	if log == nil {
		log = logger.Nop()
	}

	return &LinkChecker{
		lib: lib,
		http: resty.New().
			SetTransport(utils.OutboundTransport(cfg.AllowInternal)).
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", cfg.UserAgent).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)),
		logger:  log,
		metrics: m,
		cfg:     cfg,
		stopCh:  make(chan struct{}),
		trigger: make(chan string, 16),
		now:     time.Now,
	}
}

// Start runs the background loop. Owners are the ones with a loaded
// collection, i.e. recently active users.
func (lc *LinkChecker) Start(ctx context.Context) error {
	go func() {
		var tick <-chan time.Time
		if lc.cfg.Interval > 0 {
			ticker := time.NewTicker(lc.cfg.Interval)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-tick:
				lc.CheckActive(ctx)
			case owner := <-lc.trigger:
				lc.logger.Info("manual link check triggered", logger.String("owner", owner))
				if _, err := lc.Check(ctx, owner); err != nil {
					lc.logger.Error("link check failed", logger.String("owner", owner), logger.Error(err))
				}
			case <-lc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the checker
func (lc *LinkChecker) Stop() {
	close(lc.stopCh)
}

// Trigger queues a run for owner. It returns false when the queue is full.
func (lc *LinkChecker) Trigger(owner string) bool {
	select {
	case lc.trigger <- owner:
		return true
	default:
		return false
	}
}

// CheckActive checks every owner present in the index.
func (lc *LinkChecker) CheckActive(ctx context.Context) {
	for _, owner := range lc.lib.Index().Owners() {
		if ctx.Err() != nil {
			return
		}
		if _, err := lc.Check(ctx, owner); err != nil {
			lc.logger.Error("link check failed", logger.String("owner", owner), logger.Error(err))
		}
	}
}

// Check probes all of owner's bookmarks with bounded concurrency.
func (lc *LinkChecker) Check(ctx context.Context, owner string) (CheckSummary, error) {
	c, err := lc.lib.Collection(ctx, owner)
	if err != nil {
		return CheckSummary{}, err
	}

	start := lc.now()
	var alive, dead, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lc.cfg.Concurrency)
	for _, b := range c.Bookmarks {
		g.Go(func() error {
			ok := lc.Probe(gctx, b.URL)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			lc.metrics.LinkChecked(ok)
			if err := lc.lib.SetHealth(gctx, owner, b.ID, ok, lc.now()); err != nil {
				failed.Add(1)
				if !errors.Is(err, library.ErrNotFound) {
					lc.logger.Warn("failed to record link health",
						logger.String("bookmark_id", b.ID),
						logger.Error(err))
				}
				return nil
			}
			if ok {
				alive.Add(1)
			} else {
				dead.Add(1)
				if b.IsAlive {
					lc.logger.Info("bookmark went dead",
						logger.String("owner", owner),
						logger.String("bookmark_id", b.ID),
						logger.String("host", domain.Hostname(b.URL)))
				}
			}
			return nil
		})
	}
	err = g.Wait()

	sum := CheckSummary{
		Alive:  int(alive.Load()),
		Dead:   int(dead.Load()),
		Failed: int(failed.Load()),
	}
	sum.Checked = sum.Alive + sum.Dead
	lc.logger.Info("link check completed",
		logger.String("owner", owner),
		logger.Int("checked", sum.Checked),
		logger.Int("alive", sum.Alive),
		logger.Int("dead", sum.Dead),
		logger.Int("failed", sum.Failed),
		logger.Duration("elapsed", lc.now().Sub(start)))
	return sum, err
}

// Probe reports whether rawURL answers. HEAD is tried first and GET used
// when the server refuses HEAD. Auth walls and rate limits count as alive:
// the page exists, the checker just may not see it. Internal addresses are
// never dialed and report false.
func (lc *LinkChecker) Probe(ctx context.Context, rawURL string) bool {
	resp, err := lc.http.R().SetContext(ctx).Head(rawURL)
	if err == nil && (resp.StatusCode() == http.StatusMethodNotAllowed || resp.StatusCode() == http.StatusNotImplemented) {
		resp, err = lc.http.R().SetContext(ctx).SetDoNotParseResponse(true).Get(rawURL)
		if err == nil {
			utils.Close(resp.RawBody())
		}
	}
	if err != nil {
		return false
	}
	return reachable(resp.StatusCode())
}

func reachable(status int) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		return true
	}
	return status >= 200 && status < 400
}
