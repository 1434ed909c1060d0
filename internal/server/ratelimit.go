package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// tabLimiter enforces a token-bucket rate limit per browser tab.
// Stale entries are swept in the background so closed tabs do not
// accumulate.
type tabLimiter struct {
	mu       sync.Mutex
	limiters map[int]*tabEntry
	r        rate.Limit
	burst    int
	stopCh   chan struct{}
}

type tabEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

const limiterCleanupInterval = 5 * time.Minute

func newTabLimiter(perSecond, burst int) *tabLimiter {
	tl := &tabLimiter{
		limiters: make(map[int]*tabEntry),
		r:        rate.Limit(perSecond),
		burst:    burst,
		stopCh:   make(chan struct{}),
	}
	go tl.cleanupLoop()
	return tl
}

// Allow reports whether a message from the given tab may proceed.
func (tl *tabLimiter) Allow(tabID int) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	entry, ok := tl.limiters[tabID]
	if !ok {
		entry = &tabEntry{limiter: rate.NewLimiter(tl.r, tl.burst)}
		tl.limiters[tabID] = entry
	}
	entry.lastAccess = time.Now()
	return entry.limiter.Allow()
}

func (tl *tabLimiter) Stop() {
	close(tl.stopCh)
}

func (tl *tabLimiter) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tl.cleanup()
		case <-tl.stopCh:
			return
		}
	}
}

func (tl *tabLimiter) cleanup() {
	ttl := limiterCleanupInterval * 2
	now := time.Now()

	tl.mu.Lock()
	defer tl.mu.Unlock()
	for tabID, entry := range tl.limiters {
		if now.Sub(entry.lastAccess) > ttl {
			delete(tl.limiters, tabID)
		}
	}
}
