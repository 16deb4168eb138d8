package pisrs

import (
	"testing"
	"time"
)

func TestRegisterCache_SetAndGet(t *testing.T) {
	registerCache := NewRegisterCache(time.Hour)
	registerCache.Set("ZAKO4697", registerEntry{MopedID: "ZAKO4697", Kratica: "ZDoh-2"})

	cached, found := registerCache.Get("ZAKO4697")
	if !found {
		t.Fatal("expected cache hit")
	}
	if cached.Kratica != "ZDoh-2" {
		t.Errorf("Kratica: got %q, want %q", cached.Kratica, "ZDoh-2")
	}

	if _, found := registerCache.Get("ZAKO0001"); found {
		t.Error("expected cache miss for unknown key")
	}

	stats := registerCache.Stats()
	if stats != (CacheStats{Entries: 1, Hits: 1, Misses: 1}) {
		t.Errorf("Stats: got %+v, want 1 entry, 1 hit, 1 miss", stats)
	}
}

func TestRegisterCache_Expiry(t *testing.T) {
	registerCache := NewRegisterCache(time.Minute)
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	registerCache.now = func() time.Time { return current }

	registerCache.Set("ZAKO4697", registerEntry{MopedID: "ZAKO4697"})
	if _, found := registerCache.Get("ZAKO4697"); !found {
		t.Fatal("expected fresh entry to be found")
	}

	current = current.Add(2 * time.Minute)
	if _, found := registerCache.Get("ZAKO4697"); found {
		t.Error("expected expired entry to be evicted")
	}
	if stats := registerCache.Stats(); stats.Entries != 0 || stats.Misses != 1 {
		t.Errorf("Stats: got %+v, want 0 entries and 1 miss after eviction", stats)
	}
}
