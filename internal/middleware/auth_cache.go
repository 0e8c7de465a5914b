package middleware

import (
	"context"
	"sync"
	"time"
)

// Membership checks run on every tenant-scoped request, so positive
// results are cached briefly. The TTLs are short: a revoked membership
// must stop working quickly, and a short negative TTL still absorbs
// request bursts against the database.
const (
	memberCacheTTL       = 30 * time.Second
	memberNegativeTTL    = 5 * time.Second
	maxMemberCacheSize   = 10000
	memberCleanupPeriod  = 60 * time.Second
	memberCacheSeparator = "\x00"
)

type cachedMembership struct {
	member    bool
	fetchedAt time.Time
}

// ttl returns the appropriate TTL for this entry.
func (cm cachedMembership) ttl() time.Duration {
	if !cm.member {
		return memberNegativeTTL
	}
	return memberCacheTTL
}

// CachedMembership wraps a MembershipChecker with a bounded in-memory cache.
type CachedMembership struct {
	inner MembershipChecker
	mu    sync.RWMutex
	cache map[string]cachedMembership
}

// NewCachedMembership creates a caching wrapper around the given checker.
// The provided context controls the lifetime of the background eviction goroutine.
func NewCachedMembership(ctx context.Context, inner MembershipChecker) *CachedMembership {
	c := &CachedMembership{
		inner: inner,
		cache: make(map[string]cachedMembership),
	}
	go c.evictLoop(ctx)
	return c
}

// evictLoop periodically removes expired entries from the cache.
func (c *CachedMembership) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(memberCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.cache {
				if now.Sub(v.fetchedAt) >= v.ttl() {
					delete(c.cache, k)
				}
			}
			c.mu.Unlock()
		}
	}
}

// IsMember returns a cached membership verdict or delegates to the inner
// checker. Lookup errors are never cached.
func (c *CachedMembership) IsMember(ctx context.Context, tenantID, userID string) (bool, error) {
	key := tenantID + memberCacheSeparator + userID

	// Read path takes RLock so concurrent cache hits don't serialize.
	c.mu.RLock()
	entry, ok := c.cache[key]
	if ok && time.Since(entry.fetchedAt) < entry.ttl() {
		c.mu.RUnlock()
		return entry.member, nil
	}
	c.mu.RUnlock()

	member, err := c.inner.IsMember(ctx, tenantID, userID)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	if len(c.cache) >= maxMemberCacheSize {
		// Evict expired entries, then trim if still over limit.
		now := time.Now()
		for k, v := range c.cache {
			if now.Sub(v.fetchedAt) >= v.ttl() {
				delete(c.cache, k)
			}
		}
		for k := range c.cache {
			if len(c.cache) < maxMemberCacheSize {
				break
			}
			delete(c.cache, k)
		}
	}
	c.cache[key] = cachedMembership{member: member, fetchedAt: time.Now()}
	c.mu.Unlock()

	return member, nil
}

// Invalidate drops the cached verdict for one tenant/user pair, e.g.
// after a membership change.
func (c *CachedMembership) Invalidate(tenantID, userID string) {
	c.mu.Lock()
	delete(c.cache, tenantID+memberCacheSeparator+userID)
	c.mu.Unlock()
}
