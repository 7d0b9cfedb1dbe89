package thumbnail

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// VimeoAPIBase is the public (unauthenticated) Vimeo v2 API.
const VimeoAPIBase = "https://vimeo.com/api/v2"

type vimeoVideo struct {
	ThumbnailLarge  string `json:"thumbnail_large"`
	ThumbnailMedium string `json:"thumbnail_medium"`
}

// Vimeo looks the video up in the Vimeo API and returns its large thumbnail.
func Vimeo(base string, getter JSONGetter) Strategy {
	if base == "" {
		base = VimeoAPIBase
	}
	base = strings.TrimRight(base, "/")
	return Strategy{
		Name: "vimeo",
		Resolve: func(ctx context.Context, t Target) (string, bool) {
			id, ok := domain.VimeoID(t.URL)
			if !ok || getter == nil {
				return "", false
			}

			var videos []vimeoVideo
			if err := getter.GetJSON(ctx, fmt.Sprintf("%s/video/%s.json", base, id), &videos); err != nil {
				return "", false
			}
			if len(videos) == 0 {
				return "", false
			}
			if videos[0].ThumbnailLarge != "" {
				return videos[0].ThumbnailLarge, true
			}
			return videos[0].ThumbnailMedium, videos[0].ThumbnailMedium != ""
		},
	}
}
