package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheEviction(t *testing.T) {
	c, _ := newTestCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1") // key2 becomes least recently used
	c.Set("key4", "value4")

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, key := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(key); !found {
			t.Errorf("%s should still be cached", key)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c, clock := newTestCache[string](10, time.Minute)

	c.Set("key1", "value1")
	if v, found := c.Get("key1"); !found || v != "value1" {
		t.Fatalf("Get() = %q, %v; want value1, true", v, found)
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, found := c.Get("key1"); found {
		t.Error("key1 should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be dropped on read, size = %d", c.Size())
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c, clock := newTestCache[int](10, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	clock.t = clock.t.Add(30 * time.Second)
	c.Set("c", 3)
	clock.t = clock.t.Add(45 * time.Second)

	if removed := c.CleanExpired(); removed != 2 {
		t.Errorf("CleanExpired() = %d, want 2", removed)
	}
	if _, found := c.Get("c"); !found {
		t.Error("c should survive the sweep")
	}
}

func TestLRUCacheSetOverwritesAndPurge(t *testing.T) {
	c, _ := newTestCache[int](2, time.Hour)

	c.Set("a", 1)
	c.Set("a", 2)
	if v, _ := c.Get("a"); v != 2 {
		t.Errorf("Get(a) = %d, want 2", v)
	}
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("Stats() = %+v", stats)
	}

	c.Purge()
	if c.Size() != 0 {
		t.Errorf("Size() after Purge = %d", c.Size())
	}
	c.Set("b", 3)
	if _, found := c.Get("b"); !found {
		t.Error("cache should be usable after Purge")
	}
}

func TestManagerSweep(t *testing.T) {
	c1, clock1 := newTestCache[int](10, time.Minute)
	c2, clock2 := newTestCache[string](10, time.Hour)
	c1.Set("x", 1)
	c2.Set("y", "y")
	clock1.t = clock1.t.Add(2 * time.Minute)
	clock2.t = clock2.t.Add(2 * time.Minute)

	m := NewManager()
	m.Register(c1)
	m.Register(c2)

	if n := m.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx, time.Millisecond)
	cancel()
	m.Wait()
}
