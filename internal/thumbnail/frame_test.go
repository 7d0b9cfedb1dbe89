package thumbnail

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func fakeFFmpeg(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatalf("write fake ffmpeg: %v", err)
	}
	return path
}

func TestFFmpegExtractorReturnsDataURL(t *testing.T) {
	f := &FFmpegExtractor{Binary: fakeFFmpeg(t, `printf 'JPEG'`), Timeout: 5 * time.Second, AllowInternal: true}

	got, err := f.ExtractFrame(context.Background(), "https://cdn.example.com/clip.mp4", 5*time.Second)
	if err != nil {
		t.Fatalf("ExtractFrame() error = %v", err)
	}
	if got != "data:image/jpeg;base64,SlBFRw==" {
		t.Errorf("ExtractFrame() = %q", got)
	}
}

func TestFFmpegExtractorFailures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		timeout time.Duration
		max     int
		wantErr string
	}{
		{"non-zero exit", `echo "boom" >&2; exit 1`, 5 * time.Second, 0, "boom"},
		{"empty output", `exit 0`, 5 * time.Second, 0, "no frame"},
		{"timeout", `exec sleep 5`, 100 * time.Millisecond, 0, "deadline"},
		{"too large", `printf 'JPEGJPEG'`, 5 * time.Second, 4, "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &FFmpegExtractor{Binary: fakeFFmpeg(t, tt.script), Timeout: tt.timeout, MaxBytes: tt.max, AllowInternal: true}
			_, err := f.ExtractFrame(context.Background(), "https://cdn.example.com/clip.mp4", time.Second)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ExtractFrame() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestFFmpegExtractorRefusesInternalHosts(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ran")
	f := &FFmpegExtractor{Binary: fakeFFmpeg(t, "touch "+marker+"; printf 'JPEG'"), Timeout: 5 * time.Second}

	for _, u := range []string{
		"http://127.0.0.1:6379/clip.mp4",
		"http://169.254.169.254/clip.mp4",
		"http://[fd00::1]/clip.webm",
		"file:///etc/passwd.mp4",
	} {
		if _, err := f.ExtractFrame(context.Background(), u, time.Second); err == nil {
			t.Errorf("ExtractFrame(%s) succeeded, want refusal", u)
		}
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("ffmpeg was started for an internal url")
	}
}

func TestVideoFrameOnlyHandlesDirectVideo(t *testing.T) {
	s := VideoFrame(fakeFrames{frame: "frame"})
	if _, ok := s.Resolve(context.Background(), Target{URL: "https://example.com/page"}); ok {
		t.Error("VideoFrame resolved a non-video url")
	}
	if got, ok := s.Resolve(context.Background(), Target{URL: "https://example.com/a.mov", FrameOffset: time.Second}); !ok || got != "frame@1s" {
		t.Errorf("VideoFrame = (%q, %v)", got, ok)
	}
}
