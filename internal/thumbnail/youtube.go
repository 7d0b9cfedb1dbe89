package thumbnail

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// YouTubeImageBase is where YouTube serves video stills.
const YouTubeImageBase = "https://img.youtube.com/vi"

// Best first. YouTube answers missing qualities with a 120x90 placeholder.
var youtubeQualities = []string{"maxresdefault", "hqdefault", "mqdefault", "sddefault", "default"}

const (
	placeholderWidth  = 120
	placeholderHeight = 90
)

func youtubeStill(base, id, quality string) string {
	return fmt.Sprintf("%s/%s/%s.jpg", base, id, quality)
}

// YouTube resolves YouTube URLs to the best still that is a real image.
// Without a prober it returns the hqdefault still unverified.
func YouTube(base string, prober ImageProber) Strategy {
	if base == "" {
		base = YouTubeImageBase
	}
	return Strategy{
		Name: "youtube",
		Resolve: func(ctx context.Context, t Target) (string, bool) {
			id, ok := domain.YouTubeID(t.URL)
			if !ok {
				return "", false
			}
			if prober == nil {
				return youtubeStill(base, id, "hqdefault"), true
			}

			rungs := make([]Strategy, 0, len(youtubeQualities))
			for _, q := range youtubeQualities {
				still := youtubeStill(base, id, q)
				rungs = append(rungs, Strategy{
					Name: q,
					Resolve: func(ctx context.Context, _ Target) (string, bool) {
						info, err := prober.Probe(ctx, still)
						if err != nil || isPlaceholder(info) {
							return "", false
						}
						return still, true
					},
				})
			}
			return FirstOf("youtube", rungs...).Resolve(ctx, t)
		},
	}
}

func isPlaceholder(info ImageInfo) bool {
	return info.Width == placeholderWidth && info.Height == placeholderHeight
}
