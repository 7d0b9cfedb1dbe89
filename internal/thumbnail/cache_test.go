package thumbnail

import (
	"context"
	"testing"
)

func TestMemoryCacheGetSetInvalidate(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)

	if _, ok, _ := c.Get(ctx, "https://a"); ok {
		t.Fatal("empty cache reported a hit")
	}
	if err := c.Set(ctx, "https://a", "thumb-a"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, ok, err := c.Get(ctx, "https://a")
	if err != nil || !ok || v != "thumb-a" {
		t.Fatalf("Get() = (%q, %v, %v), want thumb-a", v, ok, err)
	}
	if err := c.Invalidate(ctx, "https://a"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx, "https://a"); ok {
		t.Error("entry still present after Invalidate")
	}
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(2)

	_ = c.Set(ctx, "a", "1")
	_ = c.Set(ctx, "b", "2")
	_, _, _ = c.Get(ctx, "a") // a is now most recent
	_ = c.Set(ctx, "c", "3")

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, ok, _ := c.Get(ctx, "b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok, _ := c.Get(ctx, "a"); !ok {
		t.Error("a should have survived")
	}
}

func TestMemoryCacheUnboundedKeepsEverything(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	for _, k := range []string{"a", "b", "c", "d"} {
		_ = c.Set(ctx, k, k)
	}
	if c.Len() != 4 {
		t.Errorf("Len() = %d, want 4", c.Len())
	}
}
