package thumbnail

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

// Target is what a strategy resolves a preview for.
type Target struct {
	URL  string
	Type domain.BookmarkType
	// FrameOffset is where to grab a frame for direct video files.
	FrameOffset time.Duration
}

// StrategyFunc returns a preview URL, or false to hand over to the next rung.
// It must return once ctx is done.
type StrategyFunc func(ctx context.Context, t Target) (string, bool)

// Strategy is one named rung of a fallback ladder.
type Strategy struct {
	Name    string
	Resolve StrategyFunc
}

// FirstOf runs rungs in order and returns the first success.
func FirstOf(name string, rungs ...Strategy) Strategy {
	return Strategy{
		Name: name,
		Resolve: func(ctx context.Context, t Target) (string, bool) {
			u, _, ok := firstOf(ctx, t, rungs)
			return u, ok
		},
	}
}

// firstOf also reports which rung won.
func firstOf(ctx context.Context, t Target, rungs []Strategy) (string, string, bool) {
	for _, r := range rungs {
		if ctx.Err() != nil {
			return "", "", false
		}
		if u, ok := r.Resolve(ctx, t); ok && u != "" {
			return u, r.Name, true
		}
	}
	return "", "", false
}
