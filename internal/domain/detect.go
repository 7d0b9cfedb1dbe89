package domain

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	imageExt    = regexp.MustCompile(`(?i)\.(jpeg|jpg|gif|png|svg|webp)(\?.*)?$`)
	videoExt    = regexp.MustCompile(`(?i)\.(mp4|webm|ogg|mov|avi|wmv|flv|mkv)(\?.*)?$`)
	documentExt = regexp.MustCompile(`(?i)\.(pdf|doc|docx|xls|xlsx|ppt|pptx|txt|md|csv)(\?.*)?$`)
	gifExt      = regexp.MustCompile(`(?i)\.gif(\?.*)?$`)

	youtubeID = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|shorts/|watch\?v=|&v=)([^#&?]*).*`)
	vimeoID   = regexp.MustCompile(`^/(?:.*/)?(\d+)/?$`)
)

var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com"}

// ErrInvalidURL is returned for anything that is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// ParseHTTPURL parses raw and requires an absolute http or https URL with a host.
func ParseHTTPURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalidURL
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// DetectType derives a bookmark type from the URL's extension or host.
// Unparseable URLs are links.
func DetectType(raw string) BookmarkType {
	switch {
	case imageExt.MatchString(raw):
		return TypeImage
	case videoExt.MatchString(raw):
		return TypeVideo
	case documentExt.MatchString(raw):
		return TypeDocument
	}

	u, err := url.Parse(raw)
	if err != nil {
		return TypeLink
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range videoHosts {
		if strings.Contains(host, h) {
			return TypeVideo
		}
	}
	return TypeLink
}

// YouTubeID extracts the 11 character video id from the common YouTube URL
// shapes (watch, embed, youtu.be, shorts).
func YouTubeID(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if !strings.Contains(host, "youtube.com") && !strings.Contains(host, "youtu.be") {
		return "", false
	}
	m := youtubeID.FindStringSubmatch(raw)
	if len(m) < 3 || len(m[2]) != 11 {
		return "", false
	}
	return m[2], true
}

// VimeoID extracts the numeric video id from a vimeo.com URL.
func VimeoID(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !strings.Contains(strings.ToLower(u.Hostname()), "vimeo.com") {
		return "", false
	}
	m := vimeoID.FindStringSubmatch(u.Path)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// IsAnimatedImage reports whether the URL points at a GIF.
func IsAnimatedImage(raw string) bool {
	return gifExt.MatchString(raw)
}

// IsDirectVideo reports whether the URL points at a raw video file.
func IsDirectVideo(raw string) bool {
	return videoExt.MatchString(raw)
}

// Hostname returns the URL host without a leading "www.", or the input
// unchanged when it cannot be parsed.
func Hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
