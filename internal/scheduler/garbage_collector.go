package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/marks/internal/index"
	"github.com/MrSnakeDoc/marks/internal/logger"
)

const (
	// DefaultIdleThreshold is how long an unread collection stays in memory
	DefaultIdleThreshold = 30 * time.Minute
)

// GarbageCollector evicts collections of owners that went idle, bounding
// memory and the link checker's working set.
type GarbageCollector struct {
	index     *index.MemoryIndex
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(idx *index.MemoryIndex, log logger.Logger, interval, threshold time.Duration) *GarbageCollector {
	if threshold <= 0 {
		threshold = DefaultIdleThreshold
	}
	if interval <= 0 {
		interval = threshold / 2
	}

	return &GarbageCollector{
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic collection
func (gc *GarbageCollector) Start(ctx context.Context) error {
	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gc.Collect()
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	close(gc.stopCh)
}

// Collect evicts idle collections and returns how many were dropped.
func (gc *GarbageCollector) Collect() int {
	evicted := gc.index.EvictIdle(gc.threshold)
	if len(evicted) == 0 {
		gc.logger.Debug("no idle collections to evict")
		return 0
	}
	gc.logger.Info("evicted idle collections",
		logger.Int("count", len(evicted)),
		logger.Int("remaining", gc.index.Count()),
		logger.Duration("idle_threshold", gc.threshold))
	return len(evicted)
}
