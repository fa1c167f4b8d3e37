package execution

import (
	"fmt"
	"hash/fnv"
	"sync"
	"time"
)

// ErrDuplicateInFlight is returned by TryAcquire when key already has an
// unexpired reservation: the same order id is still being submitted,
// canceled or replaced, or completed recently enough to still be inside
// the dedup window.
var ErrDuplicateInFlight = fmt.Errorf("duplicate in-flight")

// InFlightDeduper gives Pipeline.Allow a deterministic, bounded-cost guard
// against the same order id being pushed through submit/cancel/replace
// twice while the first attempt is still outstanding — e.g. a caller
// retrying SubmitOrder after a slow response it mistook for a drop.
//
// It is sharded by key hash to keep lock contention low and purges
// expired entries lazily on access rather than running a background
// sweep. False negatives (an expired reservation briefly still visible)
// are acceptable; false positives (blocking a distinct order) are not,
// so reservations key on the exact order id rather than a hash bucket.
type InFlightDeduper struct {
	ttl    time.Duration
	shards []inFlightShard
}

type inFlightShard struct {
	mu sync.Mutex
	m  map[string]time.Time // key -> expiresAt
}

// DefaultInFlightTTL covers the typical window between a submit/cancel/
// replace call starting and its HTTP response (or the timeout reaper)
// calling TrackDone.
const DefaultInFlightTTL = 2 * time.Second

// NewInFlightDeduper builds a deduper with ttl (DefaultInFlightTTL when
// ttl <= 0) and shardCount shards (64 when shardCount <= 0).
func NewInFlightDeduper(ttl time.Duration, shardCount int) *InFlightDeduper {
	if ttl <= 0 {
		ttl = DefaultInFlightTTL
	}
	if shardCount <= 0 {
		shardCount = 64
	}
	shards := make([]inFlightShard, shardCount)
	for i := range shards {
		shards[i].m = make(map[string]time.Time)
	}
	return &InFlightDeduper{ttl: ttl, shards: shards}
}

// TryAcquire reserves key for the deduper's TTL. It returns
// ErrDuplicateInFlight if key already has an unexpired reservation.
func (d *InFlightDeduper) TryAcquire(key string) error {
	if d == nil || key == "" {
		return nil
	}
	now := time.Now()
	sh := d.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for k, exp := range sh.m {
		if !exp.After(now) {
			delete(sh.m, k)
		}
	}

	if exp, ok := sh.m[key]; ok && exp.After(now) {
		return ErrDuplicateInFlight
	}
	sh.m[key] = now.Add(d.ttl)
	return nil
}

// Release clears key's reservation early, letting a subsequent
// TryAcquire for the same key succeed immediately instead of waiting
// out the TTL. Pipeline calls this once an operation's outcome is known.
func (d *InFlightDeduper) Release(key string) {
	if d == nil || key == "" {
		return
	}
	sh := d.shard(key)
	sh.mu.Lock()
	delete(sh.m, key)
	sh.mu.Unlock()
}

func (d *InFlightDeduper) shard(key string) *inFlightShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	idx := int(h.Sum32()) % len(d.shards)
	return &d.shards[idx]
}
