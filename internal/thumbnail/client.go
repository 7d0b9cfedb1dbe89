package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"

	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/metrics"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

var (
	// ErrNotImage means the probed resource is reachable but is not an image.
	ErrNotImage = errors.New("not an image")
)

// ImageInfo describes a probed image. Zero dimensions mean the format could
// not be decoded, only its content type was seen.
type ImageInfo struct {
	Width       int
	Height      int
	ContentType string
}

// ImageProber checks that a URL serves an image.
type ImageProber interface {
	Probe(ctx context.Context, imageURL string) (ImageInfo, error)
}

// JSONGetter fetches and decodes a JSON document.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, v any) error
}

// ClientConfig tunes outbound probing.
type ClientConfig struct {
	Timeout   time.Duration
	UserAgent string
	// AllowInternal lifts the public-address restriction on probes.
	AllowInternal bool

	// Breaker settings, applied per remote host.
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerOpenTimeout  time.Duration
}

// Client implements ImageProber and JSONGetter over resty, guarding each
// remote host with its own circuit breaker.
type Client struct {
	http    *resty.Client
	cfg     ClientConfig
	log     logger.Logger
	metrics *metrics.Collector

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.code) }

// NewClient builds a probing client. log and m may be nil.
func NewClient(cfg ClientConfig, log logger.Logger, m *metrics.Collector) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "marks-thumbnailer/1.0"
	}
	if cfg.BreakerMinRequests == 0 {
		cfg.BreakerMinRequests = 5
	}
	if cfg.BreakerFailureRatio <= 0 {
		cfg.BreakerFailureRatio = 0.8
	}
	if cfg.BreakerOpenTimeout <= 0 {
		cfg.BreakerOpenTimeout = 60 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		http: resty.New().
			SetTransport(utils.OutboundTransport(cfg.AllowInternal)).
			SetTimeout(cfg.Timeout).
			SetHeader("User-Agent", cfg.UserAgent).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
		cfg:      cfg,
		log:      log,
		metrics:  m,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (c *Client) breaker(host string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[host]; ok {
		return cb
	}

	minRequests := c.cfg.BreakerMinRequests
	ratio := c.cfg.BreakerFailureRatio
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     c.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.Warn("probe breaker state changed",
				logger.String("host", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
			c.metrics.BreakerTransition(name, to.String())
		},
		// 4xx responses do not count as failures
		IsSuccessful: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.code < 500
			}
			return err == nil
		},
	})
	c.breakers[host] = cb
	return cb
}

func (c *Client) execute(rawURL string, fn func() (any, error)) (any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", rawURL, err)
	}
	return c.breaker(u.Host).Execute(fn)
}

// Probe fetches imageURL and decodes just enough of it to learn its size.
func (c *Client) Probe(ctx context.Context, imageURL string) (ImageInfo, error) {
	out, err := c.execute(imageURL, func() (any, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetDoNotParseResponse(true).
			Get(imageURL)
		if err != nil {
			return nil, err
		}
		body := resp.RawBody()
		defer utils.Close(body)

		if resp.StatusCode() != http.StatusOK {
			return nil, &statusError{code: resp.StatusCode()}
		}

		ct := resp.Header().Get("Content-Type")
		if !strings.HasPrefix(ct, "image/") {
			return nil, ErrNotImage
		}

		info := ImageInfo{ContentType: ct}
		if cfg, _, err := image.DecodeConfig(io.LimitReader(body, 1<<20)); err == nil {
			info.Width, info.Height = cfg.Width, cfg.Height
		}
		return info, nil
	})
	if err != nil {
		return ImageInfo{}, err
	}
	return out.(ImageInfo), nil
}

// GetJSON fetches rawURL and unmarshals a 200 response into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	out, err := c.execute(rawURL, func() (any, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetHeader("Accept", "application/json").
			Get(rawURL)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, &statusError{code: resp.StatusCode()}
		}
		return resp.Body(), nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(out.([]byte), v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}
