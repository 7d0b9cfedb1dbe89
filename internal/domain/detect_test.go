package domain

import "testing"

func TestDetectType(t *testing.T) {
	tests := []struct {
		url  string
		want BookmarkType
	}{
		{"https://example.com/photo.JPG", TypeImage},
		{"https://example.com/anim.gif?size=large", TypeImage},
		{"https://cdn.example.com/clip.mp4", TypeVideo},
		{"https://example.com/movie.mkv?t=10", TypeVideo},
		{"https://example.com/paper.pdf", TypeDocument},
		{"https://example.com/notes.md", TypeDocument},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", TypeVideo},
		{"https://youtu.be/dQw4w9WgXcQ", TypeVideo},
		{"https://vimeo.com/76979871", TypeVideo},
		{"https://go.dev/doc/", TypeLink},
		{"not a url at all", TypeLink},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := DetectType(tt.url); got != tt.want {
				t.Errorf("DetectType(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestYouTubeID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=short", "", false},
		{"https://www.youtube.com/", "", false},
		{"https://example.com/watch?v=dQw4w9WgXcQ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := YouTubeID(tt.url)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("YouTubeID(%q) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestVimeoID(t *testing.T) {
	tests := []struct {
		url    string
		want   string
		wantOK bool
	}{
		{"https://vimeo.com/76979871", "76979871", true},
		{"https://vimeo.com/channels/staffpicks/76979871", "76979871", true},
		{"https://player.vimeo.com/video/76979871/", "76979871", true},
		{"https://vimeo.com/about", "", false},
		{"https://example.com/76979871", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, ok := VimeoID(tt.url)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("VimeoID(%q) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestParseHTTPURL(t *testing.T) {
	valid := []string{"https://example.com", "http://localhost:8080/path?q=1", "  https://go.dev  "}
	for _, raw := range valid {
		if _, err := ParseHTTPURL(raw); err != nil {
			t.Errorf("ParseHTTPURL(%q) error = %v", raw, err)
		}
	}

	invalid := []string{"", "example.com", "ftp://example.com/file", "javascript:alert(1)", "https://"}
	for _, raw := range invalid {
		if _, err := ParseHTTPURL(raw); err == nil {
			t.Errorf("ParseHTTPURL(%q) should fail", raw)
		}
	}
}

func TestHostname(t *testing.T) {
	tests := map[string]string{
		"https://www.example.com/page": "example.com",
		"https://docs.go.dev":          "docs.go.dev",
		"garbage":                      "garbage",
	}
	for in, want := range tests {
		if got := Hostname(in); got != want {
			t.Errorf("Hostname(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsAnimatedImage(t *testing.T) {
	if !IsAnimatedImage("https://media.example.com/funny.GIF") {
		t.Error("expected gif to be animated")
	}
	if IsAnimatedImage("https://media.example.com/still.png") {
		t.Error("png reported as animated")
	}
}
