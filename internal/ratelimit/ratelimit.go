// Package ratelimit provides a per-key token bucket limiter.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter keeps an independent limiter for every key. Keys whose
// bucket has had time to refill are swept in the background.
type KeyedRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a limiter allowing perInterval events every interval per key,
// with bursts of up to burst events. Call Stop to end the sweeper.
func New(perInterval int, interval time.Duration, burst int) *KeyedRateLimiter {
	limit := rate.Limit(float64(perInterval) / interval.Seconds())

	// A key untouched for this long has a full bucket again, so dropping it
	// loses nothing.
	idle := interval
	if perInterval > 0 {
		if refill := interval * time.Duration(burst) / time.Duration(perInterval); refill > idle {
			idle = refill
		}
	}

	krl := &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		limit:    limit,
		burst:    burst,
		idle:     idle,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go krl.cleanup()
	return krl
}

// Allow reports whether an event for key may happen now.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// Len returns the number of tracked keys.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.RLock()
	defer krl.mu.RUnlock()
	return len(krl.limiters)
}

// Stop shuts down the cleanup goroutine.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	now := krl.now()

	krl.mu.Lock()
	defer krl.mu.Unlock()

	if e, exists := krl.limiters[key]; exists {
		e.lastSeen = now
		return e.limiter
	}

	e := &entry{limiter: rate.NewLimiter(krl.limit, krl.burst), lastSeen: now}
	krl.limiters[key] = e
	return e.limiter
}

// sweep drops keys not seen within the idle window and returns how many
// were removed.
func (krl *KeyedRateLimiter) sweep(now time.Time) int {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	removed := 0
	for key, e := range krl.limiters {
		if now.Sub(e.lastSeen) >= krl.idle {
			delete(krl.limiters, key)
			removed++
		}
	}
	return removed
}

func (krl *KeyedRateLimiter) cleanup() {
	ticker := time.NewTicker(krl.idle)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			krl.sweep(krl.now())
		case <-krl.done:
			return
		}
	}
}
