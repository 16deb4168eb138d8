package pisrs

import (
	"sync"
	"time"
)

// DefaultCacheTTL is the default time-to-live for memoized register lookups.
// One batch of conversions fits well within it.
const DefaultCacheTTL = 1 * time.Hour

type cachedEntry struct {
	entry     registerEntry
	expiresAt time.Time
}

// CacheStats counts register lookups served by a RegisterCache.
type CacheStats struct {
	Entries int
	Hits    int
	Misses  int
}

// RegisterCache memoizes register entries by MOPED ID. The probe law checked
// by ValidateAccess and the base law of each conversion are looked up once
// per TTL. Safe for concurrent use.
type RegisterCache struct {
	mu      sync.Mutex
	entries map[string]cachedEntry
	ttl     time.Duration
	now     func() time.Time
	hits    int
	misses  int
}

// NewRegisterCache creates a cache whose entries live for ttl.
func NewRegisterCache(ttl time.Duration) *RegisterCache {
	return &RegisterCache{
		entries: make(map[string]cachedEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the register entry of mopedID if one was stored less than a
// TTL ago. Stale entries are dropped on the way.
func (registerCache *RegisterCache) Get(mopedID string) (registerEntry, bool) {
	registerCache.mu.Lock()
	defer registerCache.mu.Unlock()

	cached, found := registerCache.entries[mopedID]
	if found && registerCache.now().After(cached.expiresAt) {
		delete(registerCache.entries, mopedID)
		found = false
	}
	if !found {
		registerCache.misses++
		return registerEntry{}, false
	}
	registerCache.hits++
	return cached.entry, true
}

// Set stores entry under mopedID.
func (registerCache *RegisterCache) Set(mopedID string, entry registerEntry) {
	registerCache.mu.Lock()
	defer registerCache.mu.Unlock()

	registerCache.entries[mopedID] = cachedEntry{
		entry:     entry,
		expiresAt: registerCache.now().Add(registerCache.ttl),
	}
}

// Stats reports the stored entries and the lookups served so far.
func (registerCache *RegisterCache) Stats() CacheStats {
	registerCache.mu.Lock()
	defer registerCache.mu.Unlock()
	return CacheStats{
		Entries: len(registerCache.entries),
		Hits:    registerCache.hits,
		Misses:  registerCache.misses,
	}
}
