package execution

import (
	"sync"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/config"
)

// TokenBucket is a capacity/refill-rate limiter. The refill math
// mirrors the teacher's pkg/ratelimit.TokenBucket, generalized from a
// per-endpoint string key to a single gate per executor operation
// (spec.md §4.9 step 1).
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewTokenBucket creates a bucket starting full.
func NewTokenBucket(capacity, refillRate uint32) *TokenBucket {
	return &TokenBucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: float64(refillRate),
		lastRefill: time.Now(),
	}
}

func (b *TokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// TryAcquire attempts to take one token, returning true on success.
func (b *TokenBucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// TimeUntilAvailable reports how long until at least one token will be
// available, for the Wait policy.
func (b *TokenBucket) TimeUntilAvailable() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	if b.tokens >= 1 || b.refillRate <= 0 {
		return 0
	}
	need := 1 - b.tokens
	return time.Duration(need/b.refillRate*float64(time.Second)) + time.Millisecond
}

// RateLimitedCallback is invoked under the Callback policy when a
// token could not be acquired immediately.
type RateLimitedCallback func(orderId uint64, wait time.Duration)

// RateLimitGate wraps a TokenBucket with the policy spec.md §4.9 step
// 1 describes: Reject returns immediately, Wait sleeps up to
// TimeUntilAvailable then retries once, Callback hands off to the
// caller-supplied handler without issuing the request.
type RateLimitGate struct {
	bucket   *TokenBucket
	policy   config.RateLimitPolicy
	onLimited RateLimitedCallback
}

// NewRateLimitGate builds a gate from config; onLimited may be nil
// unless policy is Callback.
func NewRateLimitGate(cfg config.RateLimitConfig, onLimited RateLimitedCallback) *RateLimitGate {
	return &RateLimitGate{
		bucket:    NewTokenBucket(cfg.Capacity, cfg.RefillRate),
		policy:    cfg.Policy,
		onLimited: onLimited,
	}
}

// Allow reports whether the operation for orderId may proceed now.
func (g *RateLimitGate) Allow(orderId uint64) bool {
	if g.bucket.TryAcquire() {
		return true
	}
	switch g.policy {
	case config.RateLimitWait:
		time.Sleep(g.bucket.TimeUntilAvailable())
		return g.bucket.TryAcquire()
	case config.RateLimitCallback:
		if g.onLimited != nil {
			g.onLimited(orderId, g.bucket.TimeUntilAvailable())
		}
		return false
	default: // Reject
		return false
	}
}
