package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/MrSnakeDoc/marks/internal/utils"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestClientProbe(t *testing.T) {
	big := pngOf(t, 640, 480)
	mux := http.NewServeMux()
	mux.HandleFunc("/big.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(big)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(ClientConfig{Timeout: time.Second, AllowInternal: true}, nil, nil)
	ctx := context.Background()

	info, err := c.Probe(ctx, srv.URL+"/big.png")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if info.Width != 640 || info.Height != 480 {
		t.Errorf("Probe() = %dx%d, want 640x480", info.Width, info.Height)
	}

	if _, err := c.Probe(ctx, srv.URL+"/page"); !errors.Is(err, ErrNotImage) {
		t.Errorf("Probe(html) error = %v, want ErrNotImage", err)
	}
	if _, err := c.Probe(ctx, srv.URL+"/missing.png"); err == nil {
		t.Error("Probe(404) should fail")
	}
}

func TestClientBreakerIgnoresNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(ClientConfig{Timeout: time.Second, BreakerMinRequests: 2, BreakerFailureRatio: 0.5, AllowInternal: true}, nil, nil)
	for i := 0; i < 5; i++ {
		_, err := c.Probe(context.Background(), srv.URL+"/nope.jpg")
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("breaker opened on 404s after %d probes", i)
		}
	}
}

func TestClientBreakerOpensOnServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Timeout: time.Second, BreakerMinRequests: 2, BreakerFailureRatio: 0.5, AllowInternal: true}, nil, nil)
	var last error
	for i := 0; i < 4; i++ {
		_, last = c.Probe(context.Background(), srv.URL+"/img.jpg")
	}
	if !errors.Is(last, gobreaker.ErrOpenState) {
		t.Errorf("last error = %v, want open breaker", last)
	}
}

func TestClientGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/video/76979871.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"thumbnail_large":"https://i.vimeocdn.com/video/452001751_640.jpg"}]`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Timeout: time.Second, AllowInternal: true}, nil, nil)
	s := Vimeo(srv.URL+"/api/v2", c)

	got, ok := s.Resolve(context.Background(), Target{URL: "https://vimeo.com/76979871"})
	if !ok || got != "https://i.vimeocdn.com/video/452001751_640.jpg" {
		t.Errorf("Vimeo() = (%q, %v)", got, ok)
	}

	if _, ok := s.Resolve(context.Background(), Target{URL: "https://vimeo.com/1"}); ok {
		t.Error("Vimeo() resolved an unknown video")
	}
}

func TestClientRefusesInternalAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("internal server was reached")
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Timeout: time.Second}, nil, nil)
	if _, err := c.Probe(context.Background(), srv.URL+"/a.png"); !errors.Is(err, utils.ErrPrivateAddress) {
		t.Errorf("Probe(loopback) error = %v, want ErrPrivateAddress", err)
	}
	var v map[string]any
	if err := c.GetJSON(context.Background(), "http://169.254.169.254/latest/meta-data", &v); !errors.Is(err, utils.ErrPrivateAddress) {
		t.Errorf("GetJSON(link-local) error = %v, want ErrPrivateAddress", err)
	}
}
