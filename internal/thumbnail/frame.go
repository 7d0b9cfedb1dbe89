package thumbnail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

// FrameExtractor grabs a still from a video file at the given offset and
// returns it as a URL (typically a data: URL).
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, videoURL string, at time.Duration) (string, error)
}

// ErrFrameTooLarge is returned when the extracted frame exceeds MaxBytes.
var ErrFrameTooLarge = errors.New("extracted frame too large")

// FFmpegExtractor shells out to ffmpeg and returns a JPEG data URL.
type FFmpegExtractor struct {
	Binary   string        // path to ffmpeg, defaults to "ffmpeg"
	Timeout  time.Duration // hard limit per extraction, defaults to 15s
	Width    int           // output width, height keeps the aspect ratio
	MaxBytes int           // cap on the encoded frame, defaults to 2 MiB

	// AllowInternal lets ffmpeg open loopback and private hosts.
	AllowInternal bool
}

func (f *FFmpegExtractor) ExtractFrame(ctx context.Context, videoURL string, at time.Duration) (string, error) {
	bin := orDefault(f.Binary, "ffmpeg")
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxBytes := intOrDefault(f.MaxBytes, 2<<20)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	u, err := url.Parse(videoURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", fmt.Errorf("ffmpeg: unsupported url %q", videoURL)
	}
	if !f.AllowInternal {
		if err := utils.CheckPublicHost(ctx, u.Host); err != nil {
			return "", fmt.Errorf("ffmpeg: %w", err)
		}
	}

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-protocol_whitelist", "http,https,tcp,tls",
		"-ss", strconv.FormatFloat(at.Seconds(), 'f', 3, 64),
		"-i", videoURL,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", intOrDefault(f.Width, 640)),
		"-f", "image2pipe", "-vcodec", "mjpeg",
		"pipe:1",
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("ffmpeg: %w", ctx.Err())
		}
		return "", fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return "", errors.New("ffmpeg: no frame produced")
	}
	if stdout.Len() > maxBytes {
		return "", ErrFrameTooLarge
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(stdout.Bytes()), nil
}

// VideoFrame captures a frame from direct video file URLs.
func VideoFrame(extractor FrameExtractor) Strategy {
	return Strategy{
		Name: "frame",
		Resolve: func(ctx context.Context, t Target) (string, bool) {
			if extractor == nil || !domain.IsDirectVideo(t.URL) {
				return "", false
			}
			u, err := extractor.ExtractFrame(ctx, t.URL, t.FrameOffset)
			if err != nil {
				return "", false
			}
			return u, u != ""
		},
	}
}
