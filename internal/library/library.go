// Package library applies the bookmark data rules on top of a store.Store and
// keeps the per-owner working set cached.
package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/index"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/metrics"
	"github.com/MrSnakeDoc/marks/internal/store"
)

var (
	ErrInvalidURL      = domain.ErrInvalidURL
	ErrNotFound        = store.ErrNotFound
	ErrUnknownTag      = errors.New("unknown tag")
	ErrUnknownCategory = errors.New("unknown category")
	ErrDuplicateName   = errors.New("name already exists")
	ErrEmptyName       = errors.New("name is required")
)

// Snapshots shares loaded collections between replicas. Optional.
type Snapshots interface {
	SaveCollection(ctx context.Context, owner string, c *domain.Collection) error
	LoadCollection(ctx context.Context, owner string) (*domain.Collection, error)
	InvalidateCollection(ctx context.Context, owner string) error
}

type Options struct {
	Store     store.Store
	Index     *index.MemoryIndex
	Snapshots Snapshots
	Logger    logger.Logger
	Metrics   *metrics.Collector

	NewID func() string
	Now   func() time.Time
}

const (
	loadAttempts    = 3
	snapshotTimeout = 2 * time.Second
)

type Library struct {
	store     store.Store
	index     *index.MemoryIndex
	snapshots Snapshots
	log       logger.Logger
	metrics   *metrics.Collector
	newID     func() string
	now       func() time.Time

	// Owners whose snapshot could not be deleted after a write.
	mu        sync.Mutex
	untrusted map[string]bool
}

func New(opts Options) *Library {
	if opts.Index == nil {
		opts.Index = index.NewMemoryIndex()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Library{
		store:     opts.Store,
		index:     opts.Index,
		snapshots: opts.Snapshots,
		log:       opts.Logger,
		metrics:   opts.Metrics,
		newID:     opts.NewID,
		now:       opts.Now,
		untrusted: make(map[string]bool),
	}
}

// Index exposes the working set, used by the schedulers.
func (l *Library) Index() *index.MemoryIndex { return l.index }

// Collection returns the owner's bookmarks, tags and categories, from the
// index, then the shared snapshot, then the store. A load that overlaps a
// write is discarded and retried so the index never caches pre-write data.
func (l *Library) Collection(ctx context.Context, owner string) (*domain.Collection, error) {
	var c *domain.Collection
	for range loadAttempts {
		if cached, ok := l.index.Get(owner); ok {
			return cached, nil
		}
		gen := l.index.Generation(owner)

		loaded, fromSnapshot, err := l.load(ctx, owner)
		if err != nil {
			return nil, err
		}
		c = loaded
		if l.index.PutIfCurrent(owner, c, gen) {
			if !fromSnapshot {
				l.saveSnapshot(ctx, owner, c, gen)
			}
			return l.cached(owner, c), nil
		}
		l.log.Debug("collection changed while loading, reloading", logger.String("owner", owner))
	}
	return c, nil
}

func (l *Library) load(ctx context.Context, owner string) (*domain.Collection, bool, error) {
	if l.snapshots != nil && l.snapshotTrusted(owner) {
		c, err := l.snapshots.LoadCollection(ctx, owner)
		if err != nil {
			l.log.Warn("collection snapshot read failed", logger.String("owner", owner), logger.Error(err))
		} else if c != nil {
			return c, true, nil
		}
	}

	bookmarks, err := l.store.ListBookmarks(ctx, owner)
	if err != nil {
		return nil, false, fmt.Errorf("load bookmarks: %w", err)
	}
	tags, err := l.store.ListTags(ctx, owner)
	if err != nil {
		return nil, false, fmt.Errorf("load tags: %w", err)
	}
	categories, err := l.store.ListCategories(ctx, owner)
	if err != nil {
		return nil, false, fmt.Errorf("load categories: %w", err)
	}

	l.log.Debug("collection loaded",
		logger.String("owner", owner),
		logger.Int("bookmarks", len(bookmarks)),
		logger.Int("tags", len(tags)),
		logger.Int("categories", len(categories)))
	return &domain.Collection{
		Bookmarks:  bookmarks,
		Tags:       tags,
		Categories: categories,
		LoadedAt:   l.now(),
	}, false, nil
}

// saveSnapshot shares a fresh store load. If a write slipped in while the
// snapshot was being written, the snapshot is dropped again.
func (l *Library) saveSnapshot(ctx context.Context, owner string, c *domain.Collection, gen uint64) {
	if l.snapshots == nil {
		return
	}
	if err := l.snapshots.SaveCollection(ctx, owner, c); err != nil {
		l.log.Warn("collection snapshot write failed", logger.String("owner", owner), logger.Error(err))
		return
	}
	if !l.trustSnapshot(owner, gen) {
		l.dropSnapshot(ctx, owner)
	}
}

func (l *Library) cached(owner string, fallback *domain.Collection) *domain.Collection {
	if c, ok := l.index.Get(owner); ok {
		return c
	}
	return fallback
}

// Result is a query answer. Total is the owner's bookmark count before
// filtering, so callers can tell an empty library from an empty match.
type Result struct {
	Bookmarks []*domain.Bookmark
	Total     int
}

// Query runs the filter and sort over the owner's collection.
func (l *Library) Query(ctx context.Context, owner string, spec domain.FilterSpec, locale language.Tag) (Result, error) {
	c, err := l.Collection(ctx, owner)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Bookmarks: domain.FilterAndSortIn(c.Bookmarks, spec, locale),
		Total:     len(c.Bookmarks),
	}, nil
}

// Bookmark returns one bookmark of the owner.
func (l *Library) Bookmark(ctx context.Context, owner, id string) (*domain.Bookmark, error) {
	c, err := l.Collection(ctx, owner)
	if err != nil {
		return nil, err
	}
	b, ok := c.Bookmark(id)
	if !ok {
		return nil, ErrNotFound
	}
	return b.Clone(), nil
}

func (l *Library) Tags(ctx context.Context, owner string) ([]*domain.Tag, error) {
	c, err := l.Collection(ctx, owner)
	if err != nil {
		return nil, err
	}
	return c.Tags, nil
}

func (l *Library) Categories(ctx context.Context, owner string) ([]*domain.Category, error) {
	c, err := l.Collection(ctx, owner)
	if err != nil {
		return nil, err
	}
	return c.Categories, nil
}

// invalidate runs after every store write, including failed ones that may
// have partially applied. The snapshot delete outlives the caller's context;
// the index is bumped again afterwards so a load that read the snapshot
// before the delete is not kept.
func (l *Library) invalidate(ctx context.Context, owner string) {
	l.index.Invalidate(owner)
	if l.snapshots == nil {
		return
	}
	l.dropSnapshot(ctx, owner)
	l.index.Invalidate(owner)
}

func (l *Library) dropSnapshot(ctx context.Context, owner string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	if err := l.snapshots.InvalidateCollection(ctx, owner); err != nil {
		l.distrustSnapshot(owner)
		l.log.Warn("collection snapshot invalidate failed, reading from the store until rewritten",
			logger.String("owner", owner), logger.Error(err))
	}
}

func (l *Library) snapshotTrusted(owner string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.untrusted[owner]
}

func (l *Library) distrustSnapshot(owner string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.untrusted[owner] = true
}

// trustSnapshot clears the flag unless a write happened since gen. Writes
// bump the generation before they can set the flag.
func (l *Library) trustSnapshot(owner string, gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.index.Generation(owner) != gen {
		return false
	}
	delete(l.untrusted, owner)
	return true
}
