package index

import (
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/marks/internal/domain"
)

type entry struct {
	collection *domain.Collection
	lastAccess time.Time
}

// MemoryIndex holds each owner's loaded collection so listing and filtering
// do not hit the backend on every request.
//
// Every Invalidate bumps the owner's generation. A loader reads Generation
// before fetching and installs with PutIfCurrent, so a load that raced a
// write is dropped instead of cached.
type MemoryIndex struct {
	mu          sync.RWMutex
	owners      map[string]*entry
	generations map[string]uint64
	lastLoad    time.Time
	now         func() time.Time
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		owners:      make(map[string]*entry),
		generations: make(map[string]uint64),
		now:         time.Now,
	}
}

// Generation returns the owner's invalidation counter.
func (idx *MemoryIndex) Generation(owner string) uint64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.generations[owner]
}

// Put replaces the owner's collection unconditionally.
func (idx *MemoryIndex) Put(owner string, c *domain.Collection) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.put(owner, c)
}

// PutIfCurrent installs c only if the owner was not invalidated since gen
// was read. It reports whether c was installed.
func (idx *MemoryIndex) PutIfCurrent(owner string, c *domain.Collection, gen uint64) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.generations[owner] != gen {
		return false
	}
	idx.put(owner, c)
	return true
}

func (idx *MemoryIndex) put(owner string, c *domain.Collection) {
	now := idx.now()
	idx.owners[owner] = &entry{collection: c, lastAccess: now}
	idx.lastLoad = now
}

// Get returns a shallow copy of the owner's collection: the slices are new,
// the elements are shared and must be treated as read-only.
func (idx *MemoryIndex) Get(owner string) (*domain.Collection, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	e, ok := idx.owners[owner]
	if !ok {
		return nil, false
	}
	e.lastAccess = idx.now()

	c := *e.collection
	c.Bookmarks = append([]*domain.Bookmark(nil), e.collection.Bookmarks...)
	c.Tags = append([]*domain.Tag(nil), e.collection.Tags...)
	c.Categories = append([]*domain.Category(nil), e.collection.Categories...)
	return &c, true
}

// Invalidate drops the owner's collection and bumps its generation.
func (idx *MemoryIndex) Invalidate(owner string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.owners, owner)
	idx.generations[owner]++
}

// Owners lists owners with a loaded collection, sorted.
func (idx *MemoryIndex) Owners() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]string, 0, len(idx.owners))
	for o := range idx.owners {
		out = append(out, o)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of loaded collections
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.owners)
}

// BookmarkCount sums bookmarks over every loaded collection.
func (idx *MemoryIndex) BookmarkCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := 0
	for _, e := range idx.owners {
		n += len(e.collection.Bookmarks)
	}
	return n
}

// LastLoad returns when a collection was last put
func (idx *MemoryIndex) LastLoad() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastLoad
}

// EvictIdle removes collections not read or written for longer than maxIdle
// and returns the evicted owners.
func (idx *MemoryIndex) EvictIdle(maxIdle time.Duration) []string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cutoff := idx.now().Add(-maxIdle)
	var evicted []string
	for o, e := range idx.owners {
		if e.lastAccess.Before(cutoff) {
			delete(idx.owners, o)
			evicted = append(evicted, o)
		}
	}
	sort.Strings(evicted)
	return evicted
}
