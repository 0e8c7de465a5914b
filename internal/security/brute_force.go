// Package security provides login abuse protections.
package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	BruteForceMaxAttempts = 5
	BruteForceWindow      = 15 * time.Minute
	BruteForceLockout     = 5 * time.Minute
	bruteForceCleanup     = 60 * time.Second
	bruteForceMaxRecords  = 10000
)

type failureRecord struct {
	attempts  int
	firstFail time.Time
	lockedAt  time.Time
}

// BruteForceGuard tracks failed login attempts per account and locks
// accounts that exceed the failure threshold within the tracking window.
// Accounts are keyed by a hash of the lowercased email so addresses are
// never held in memory.
type BruteForceGuard struct {
	mu      sync.Mutex
	records map[string]*failureRecord
	log     *logrus.Logger
}

// NewBruteForceGuard creates a new guard and starts a background cleanup goroutine
// that stops when ctx is cancelled.
func NewBruteForceGuard(ctx context.Context, log *logrus.Logger) *BruteForceGuard {
	g := &BruteForceGuard{
		records: make(map[string]*failureRecord),
		log:     log,
	}
	go g.cleanupLoop(ctx)
	return g
}

func accountHash(email string) string {
	h := sha256.Sum256([]byte(strings.ToLower(email)))
	return hex.EncodeToString(h[:])
}

// IsBlocked returns true if the given account is currently locked out.
func (g *BruteForceGuard) IsBlocked(email string) bool {
	ah := accountHash(email)
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[ah]
	if !ok {
		return false
	}

	if !rec.lockedAt.IsZero() && time.Since(rec.lockedAt) < BruteForceLockout {
		return true
	}

	return false
}

// RecordFailure records a failed login attempt for the given account.
func (g *BruteForceGuard) RecordFailure(email string) {
	ah := accountHash(email)
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[ah]
	if !ok {
		g.records[ah] = &failureRecord{attempts: 1, firstFail: now}
		return
	}

	// Reset if outside the tracking window.
	if now.Sub(rec.firstFail) > BruteForceWindow {
		rec.attempts = 1
		rec.firstFail = now
		rec.lockedAt = time.Time{}
		return
	}

	rec.attempts++
	if rec.attempts >= BruteForceMaxAttempts {
		rec.lockedAt = now
		g.log.WithField("account_hash", ah[:16]+"...").Warn("account locked out due to repeated login failures")
	}
}

// Reset clears failure tracking for an account (call on successful login).
func (g *BruteForceGuard) Reset(email string) {
	ah := accountHash(email)
	g.mu.Lock()
	delete(g.records, ah)
	g.mu.Unlock()
}

func (g *BruteForceGuard) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(bruteForceCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			g.mu.Lock()
			for k, rec := range g.records {
				if !rec.lockedAt.IsZero() && now.Sub(rec.lockedAt) >= BruteForceLockout {
					delete(g.records, k)
				} else if now.Sub(rec.firstFail) >= BruteForceWindow {
					delete(g.records, k)
				}
			}
			if len(g.records) > bruteForceMaxRecords {
				g.evictOldest(len(g.records) - bruteForceMaxRecords)
			}
			g.mu.Unlock()
		}
	}
}

// evictOldest removes n entries with the oldest firstFail times.
// Caller must hold g.mu. Complexity: O(m log m) via sort.
func (g *BruteForceGuard) evictOldest(n int) {
	type entry struct {
		key  string
		time time.Time
	}
	entries := make([]entry, 0, len(g.records))
	for k, rec := range g.records {
		entries = append(entries, entry{k, rec.firstFail})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].time.Before(entries[j].time)
	})
	for i := 0; i < n; i++ {
		delete(g.records, entries[i].key)
	}
}
