// Package ratelimit throttles callers by key, such as a remote address.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Keyed keeps one token bucket per key and forgets keys idle for longer
// than the configured TTL. A nil *Keyed allows everything.
type Keyed struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*bucket
	calls uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// sweepEvery is how many Allow calls pass between idle sweeps.
const sweepEvery = 256

// New creates a limiter allowing rps events per second per key with the
// given burst. It returns nil, meaning unlimited, when rps or burst is not
// positive.
func New(rps float64, burst int, idleTTL time.Duration) *Keyed {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 15 * time.Minute
	}
	return &Keyed{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[string]*bucket),
	}
}

// Allow consumes a token for key at now.
func (k *Keyed) Allow(key string, now time.Time) bool {
	if k == nil {
		return true
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	b, ok := k.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.byKey[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	k.calls++
	if k.calls%sweepEvery == 0 {
		k.sweep(now)
	}
	return allowed
}

// RetryAfter estimates how long key has to wait for its next token.
func (k *Keyed) RetryAfter(key string, now time.Time) time.Duration {
	if k == nil {
		return 0
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	b, ok := k.byKey[key]
	if !ok {
		return 0
	}
	r := b.limiter.ReserveN(now, 1)
	defer r.CancelAt(now)
	return r.DelayFrom(now)
}

// Len returns the number of tracked keys.
func (k *Keyed) Len() int {
	if k == nil {
		return 0
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.byKey)
}

func (k *Keyed) sweep(now time.Time) {
	cutoff := now.Add(-k.idleTTL)
	for key, b := range k.byKey {
		if b.lastSeen.Before(cutoff) {
			delete(k.byKey, key)
		}
	}
}
