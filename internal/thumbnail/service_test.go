package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

type fakeProber struct {
	mu      sync.Mutex
	images  map[string]ImageInfo
	calls   map[string]int
	release chan struct{}
}

func newFakeProber(images map[string]ImageInfo) *fakeProber {
	return &fakeProber{images: images, calls: map[string]int{}}
}

func (p *fakeProber) Probe(ctx context.Context, imageURL string) (ImageInfo, error) {
	p.mu.Lock()
	p.calls[imageURL]++
	release := p.release
	p.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ImageInfo{}, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.images[imageURL]
	if !ok {
		return ImageInfo{}, errors.New("404")
	}
	return info, nil
}

func (p *fakeProber) set(imageURL string, info *ImageInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if info == nil {
		delete(p.images, imageURL)
		return
	}
	p.images[imageURL] = *info
}

func (p *fakeProber) count(imageURL string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[imageURL]
}

type fakeGetter struct{ body string }

func (g fakeGetter) GetJSON(_ context.Context, _ string, v any) error {
	if g.body == "" {
		return errors.New("unavailable")
	}
	return json.Unmarshal([]byte(g.body), v)
}

type fakeFrames struct{ frame string }

func (f fakeFrames) ExtractFrame(_ context.Context, _ string, at time.Duration) (string, error) {
	if f.frame == "" {
		return "", errors.New("decode failed")
	}
	return f.frame + "@" + at.String(), nil
}

const rickID = "dQw4w9WgXcQ"

var (
	fullHD  = ImageInfo{Width: 1280, Height: 720, ContentType: "image/jpeg"}
	hq      = ImageInfo{Width: 480, Height: 360, ContentType: "image/jpeg"}
	missing = ImageInfo{Width: 120, Height: 90, ContentType: "image/jpeg"}
)

func still(quality string) string {
	return youtubeStill(YouTubeImageBase, rickID, quality)
}

var screenshotCfg = ScreenshotConfig{BaseURL: "https://shots.example.com/take", AccessKey: "k"}

func TestResolveYouTube(t *testing.T) {
	prober := newFakeProber(map[string]ImageInfo{still("maxresdefault"): fullHD})
	s := New(Options{Prober: prober, Screenshot: screenshotCfg})

	got, ok := s.Resolve(context.Background(), "https://www.youtube.com/watch?v="+rickID, domain.TypeVideo)
	if !ok {
		t.Fatal("Resolve() found nothing")
	}
	if !strings.Contains(got, rickID) || !strings.Contains(got, "img.youtube.com") {
		t.Errorf("Resolve() = %q, want youtube still for %s", got, rickID)
	}
}

func TestResolveYouTubeSkipsPlaceholder(t *testing.T) {
	prober := newFakeProber(map[string]ImageInfo{
		still("maxresdefault"): missing,
		still("hqdefault"):     hq,
	})
	s := New(Options{Prober: prober})

	got, _ := s.Resolve(context.Background(), "https://youtu.be/"+rickID, domain.TypeVideo)
	if got != still("hqdefault") {
		t.Errorf("Resolve() = %q, want %q", got, still("hqdefault"))
	}
}

func TestResolveYouTubeWithoutProber(t *testing.T) {
	s := New(Options{})
	got, ok := s.Resolve(context.Background(), "https://www.youtube.com/embed/"+rickID, domain.TypeVideo)
	if !ok || got != still("hqdefault") {
		t.Errorf("Resolve() = (%q, %v), want unverified hqdefault", got, ok)
	}
}

func TestResolveVideoLadder(t *testing.T) {
	proxy := &ImageProxy{BaseURL: "https://proxy.example.com/", Width: 400}
	s := New(Options{
		Prober:     newFakeProber(nil),
		JSON:       fakeGetter{body: `[{"thumbnail_large":"https://i.vimeocdn.com/video/1_640.jpg"}]`},
		Frames:     fakeFrames{frame: "data:image/jpeg;base64,AAAA"},
		Screenshot: screenshotCfg,
		Proxy:      proxy,
	})
	ctx := context.Background()

	tests := []struct {
		name   string
		url    string
		prefix string
	}{
		{"vimeo", "https://vimeo.com/76979871", "https://i.vimeocdn.com/"},
		{"gif passthrough", "https://media.example.com/dance.gif", "https://proxy.example.com/?"},
		{"direct video frame", "https://cdn.example.com/talk.mp4", "data:image/jpeg;base64,AAAA@5s"},
		{"youtube without any still falls back to screenshot", "https://www.youtube.com/watch?v=" + rickID, "https://shots.example.com/take?"},
		{"other video host", "https://video.example.com/watch/42", "https://shots.example.com/take?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := s.Resolve(ctx, tt.url, domain.TypeVideo)
			if !ok || !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("Resolve(%q) = (%q, %v), want prefix %q", tt.url, got, ok, tt.prefix)
			}
		})
	}
}

func TestResolveImage(t *testing.T) {
	const src = "https://example.com/cat.png"

	plain := New(Options{})
	if got, ok := plain.Resolve(context.Background(), src, domain.TypeImage); !ok || got != src {
		t.Errorf("Resolve() = (%q, %v), want original url", got, ok)
	}

	proxied := New(Options{Proxy: &ImageProxy{BaseURL: "https://images.example.net", Width: 320, Height: 200, Format: "webp"}})
	got, ok := proxied.Resolve(context.Background(), src, domain.TypeImage)
	if !ok {
		t.Fatal("Resolve() found nothing")
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("proxied url unparsable: %v", err)
	}
	if u.Query().Get("url") != src {
		t.Errorf("proxied url = %q, want original preserved in url param", got)
	}
}

func TestResolveLinkAndDocumentUseScreenshot(t *testing.T) {
	s := New(Options{Screenshot: screenshotCfg})

	for _, typ := range []domain.BookmarkType{domain.TypeLink, domain.TypeDocument, domain.BookmarkType("unknown")} {
		got, ok := s.Resolve(context.Background(), "https://go.dev/doc/effective_go", typ)
		if !ok {
			t.Fatalf("%s: Resolve() found nothing", typ)
		}
		u, _ := url.Parse(got)
		if u.Host != "shots.example.com" || u.Query().Get("url") != "https://go.dev/doc/effective_go" {
			t.Errorf("%s: Resolve() = %q", typ, got)
		}
		if u.Query().Get("viewport_width") != "1280" || u.Query().Get("format") != "jpg" {
			t.Errorf("%s: screenshot defaults missing in %q", typ, got)
		}
	}
}

func TestResolveWithoutScreenshotServiceYieldsNothing(t *testing.T) {
	s := New(Options{})
	if got, ok := s.Resolve(context.Background(), "https://go.dev", domain.TypeLink); ok || got != "" {
		t.Errorf("Resolve() = (%q, %v), want none", got, ok)
	}
}

func TestResolveRejectsInvalidURL(t *testing.T) {
	prober := newFakeProber(nil)
	s := New(Options{Prober: prober, Screenshot: screenshotCfg})

	for _, raw := range []string{"", "not a url", "javascript:alert(1)", "ftp://files.example.com/a.png"} {
		if got, ok := s.Resolve(context.Background(), raw, domain.TypeImage); ok {
			t.Errorf("Resolve(%q) = %q, want none", raw, got)
		}
	}
}

func TestResolveIsCached(t *testing.T) {
	prober := newFakeProber(map[string]ImageInfo{still("maxresdefault"): fullHD})
	s := New(Options{Prober: prober})
	ctx := context.Background()
	u := "https://www.youtube.com/watch?v=" + rickID

	first, _ := s.Resolve(ctx, u, domain.TypeVideo)
	prober.set(still("maxresdefault"), nil)
	second, _ := s.Resolve(ctx, u, domain.TypeVideo)

	if first != second {
		t.Errorf("cached result changed: %q then %q", first, second)
	}
	if n := prober.count(still("maxresdefault")); n != 1 {
		t.Errorf("maxres probed %d times, want 1", n)
	}
}

func TestRegenerateBypassesCache(t *testing.T) {
	prober := newFakeProber(map[string]ImageInfo{still("maxresdefault"): fullHD, still("hqdefault"): hq})
	cache := NewMemoryCache(0)
	s := New(Options{Prober: prober, Cache: cache})
	ctx := context.Background()
	u := "https://www.youtube.com/watch?v=" + rickID

	first, _ := s.Resolve(ctx, u, domain.TypeVideo)
	if first != still("maxresdefault") {
		t.Fatalf("Resolve() = %q, want maxres", first)
	}

	prober.set(still("maxresdefault"), &missing)
	regenerated, ok := s.Regenerate(ctx, u, domain.TypeVideo)
	if !ok || regenerated != still("hqdefault") {
		t.Errorf("Regenerate() = (%q, %v), want hqdefault", regenerated, ok)
	}

	cached, _, _ := cache.Get(ctx, u)
	if cached != still("hqdefault") {
		t.Errorf("cache holds %q after regenerate, want hqdefault", cached)
	}
}

func TestFailedResolutionIsNotCached(t *testing.T) {
	cache := NewMemoryCache(0)
	s := New(Options{Cache: cache})
	_, _ = s.Resolve(context.Background(), "https://go.dev", domain.TypeLink)
	if cache.Len() != 0 {
		t.Errorf("cache has %d entries, want 0", cache.Len())
	}
}

func TestConcurrentResolvesShareOneRun(t *testing.T) {
	prober := newFakeProber(map[string]ImageInfo{still("maxresdefault"): fullHD})
	prober.release = make(chan struct{})
	s := New(Options{Prober: prober})
	u := "https://www.youtube.com/watch?v=" + rickID

	var wg sync.WaitGroup
	var found atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, ok := s.Resolve(context.Background(), u, domain.TypeVideo); ok && got == still("maxresdefault") {
				found.Add(1)
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(prober.release)
	wg.Wait()

	if found.Load() != 8 {
		t.Errorf("%d callers got the thumbnail, want 8", found.Load())
	}
	if n := prober.count(still("maxresdefault")); n != 1 {
		t.Errorf("maxres probed %d times, want 1", n)
	}
}

func TestCanceledCallerStopsWaiting(t *testing.T) {
	prober := newFakeProber(map[string]ImageInfo{still("maxresdefault"): fullHD})
	prober.release = make(chan struct{})
	cache := NewMemoryCache(0)
	s := New(Options{Prober: prober, Cache: cache})
	u := "https://www.youtube.com/watch?v=" + rickID

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		_, ok := s.Resolve(ctx, u, domain.TypeVideo)
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Error("canceled Resolve() reported a result")
		}
	case <-time.After(time.Second):
		t.Fatal("Resolve() kept waiting after cancel")
	}

	close(prober.release)
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if v, ok, _ := cache.Get(context.Background(), u); ok {
			if v != still("maxresdefault") {
				t.Errorf("cache = %q, want maxres", v)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("late result was not cached")
}

func TestResolveBookmark(t *testing.T) {
	s := New(Options{Frames: fakeFrames{frame: "frame"}})
	ctx := context.Background()

	stored := &domain.Bookmark{URL: "https://example.com", Type: domain.TypeLink, ThumbnailURL: "https://example.com/og.png"}
	if got, _ := s.ResolveBookmark(ctx, stored); got != stored.ThumbnailURL {
		t.Errorf("ResolveBookmark() = %q, want stored thumbnail", got)
	}

	ts := 42
	video := &domain.Bookmark{URL: "https://cdn.example.com/clip.webm", Type: domain.TypeVideo, VideoThumbnailTimestamp: &ts}
	if got, _ := s.ResolveBookmark(ctx, video); got != "frame@42s" {
		t.Errorf("ResolveBookmark() = %q, want frame at 42s", got)
	}

	if _, ok := s.ResolveBookmark(ctx, nil); ok {
		t.Error("ResolveBookmark(nil) reported a result")
	}
}

func TestRegenerateWinsOverAnOlderRun(t *testing.T) {
	cache := NewMemoryCache(0)
	s := New(Options{Cache: cache})
	ctx := context.Background()
	u := "https://example.com/article"

	started := make(chan struct{})
	releaseOld := make(chan struct{})
	var runs atomic.Int32
	s.ladders[domain.TypeLink] = []Strategy{{
		Name: "stub",
		Resolve: func(_ context.Context, _ Target) (string, bool) {
			if runs.Add(1) == 1 {
				close(started)
				<-releaseOld
				return "https://img.example.com/old.png", true
			}
			return "https://img.example.com/new.png", true
		},
	}}

	done := make(chan string, 1)
	go func() {
		got, _ := s.Resolve(ctx, u, domain.TypeLink)
		done <- got
	}()
	<-started

	if got, ok := s.Regenerate(ctx, u, domain.TypeLink); !ok || got != "https://img.example.com/new.png" {
		t.Fatalf("Regenerate() = (%q, %v), want new", got, ok)
	}
	close(releaseOld)
	<-done

	if v, _, _ := cache.Get(ctx, u); v != "https://img.example.com/new.png" {
		t.Errorf("cache = %q, want new", v)
	}
	if got, _ := s.Resolve(ctx, u, domain.TypeLink); got != "https://img.example.com/new.png" {
		t.Errorf("Resolve() after regenerate = %q, want new", got)
	}
}

func TestResolveBookmarkKeysFramesByTimestamp(t *testing.T) {
	s := New(Options{Frames: fakeFrames{frame: "frame"}})
	ctx := context.Background()
	clip := "https://cdn.example.com/clip.mp4"

	tests := []struct {
		seconds int
		want    string
	}{
		{10, "frame@10s"},
		{90, "frame@1m30s"},
		{10, "frame@10s"},
	}
	for _, tt := range tests {
		ts := tt.seconds
		b := &domain.Bookmark{URL: clip, Type: domain.TypeVideo, VideoThumbnailTimestamp: &ts}
		if got, _ := s.ResolveBookmark(ctx, b); got != tt.want {
			t.Errorf("ResolveBookmark(at %ds) = %q, want %q", tt.seconds, got, tt.want)
		}
	}

	if got, _ := s.Resolve(ctx, clip, domain.TypeVideo); got != "frame@5s" {
		t.Errorf("Resolve() = %q, want the default offset frame", got)
	}
}

func TestFirstOfStopsAtFirstSuccess(t *testing.T) {
	var calls []string
	rung := func(name string, ok bool) Strategy {
		return Strategy{Name: name, Resolve: func(context.Context, Target) (string, bool) {
			calls = append(calls, name)
			if ok {
				return "url-" + name, true
			}
			return "", false
		}}
	}

	got, ok := FirstOf("ladder", rung("a", false), rung("b", true), rung("c", true)).Resolve(context.Background(), Target{})
	if !ok || got != "url-b" {
		t.Errorf("FirstOf() = (%q, %v), want url-b", got, ok)
	}
	if strings.Join(calls, ",") != "a,b" {
		t.Errorf("rungs run = %v, want a,b", calls)
	}
}

func TestFirstOfHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	s := FirstOf("ladder", Strategy{Name: "a", Resolve: func(context.Context, Target) (string, bool) {
		ran = true
		return "x", true
	}})
	if _, ok := s.Resolve(ctx, Target{}); ok || ran {
		t.Error("FirstOf ran a rung on a canceled context")
	}
}
