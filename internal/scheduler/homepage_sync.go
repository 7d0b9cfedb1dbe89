package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/marks/internal/library"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/sources/homepage"
)

// HomepageSync periodically imports a Homepage bookmarks.yaml or
// services.yaml into one owner's library. Imports skip known URLs, so
// repeated runs only add new entries.
type HomepageSync struct {
	lib      *library.Library
	owner    string
	format   string
	path     string
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

// NewHomepageSync creates a homepage sync
func NewHomepageSync(lib *library.Library, owner, format, path string, log logger.Logger, interval time.Duration) *HomepageSync {
	return &HomepageSync{
		lib:      lib,
		owner:    owner,
		format:   format,
		path:     path,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start syncs once, then on every tick
func (hs *HomepageSync) Start(ctx context.Context) error {
	if err := hs.Sync(ctx); err != nil {
		hs.logger.Warn("initial homepage sync failed", logger.Error(err))
	}
	if hs.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(hs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := hs.Sync(ctx); err != nil {
					hs.logger.Error("homepage sync failed", logger.Error(err))
				}
			case <-hs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sync
func (hs *HomepageSync) Stop() {
	close(hs.stopCh)
}

// Sync loads the file and imports it.
func (hs *HomepageSync) Sync(ctx context.Context) error {
	drafts, err := homepage.LoadFile(hs.format, hs.path)
	if err != nil {
		return fmt.Errorf("failed to load homepage file: %w", err)
	}

	res, err := hs.lib.Import(ctx, hs.owner, hs.format, drafts)
	if err != nil {
		return fmt.Errorf("failed to import homepage file: %w", err)
	}

	hs.logger.Info("homepage synced",
		logger.String("file", hs.path),
		logger.Int("entries", len(drafts)),
		logger.Int("imported", res.Imported),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed))
	return nil
}
