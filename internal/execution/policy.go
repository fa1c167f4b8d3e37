// Package execution implements the order-executor pipeline's pluggable
// rate-limit and timeout policies (spec.md §4.9): an in-flight dedup
// guard and a token-bucket gate consulted before every submit/cancel/
// replace, and a timeout reaper that races the venue's response
// callback to remove each PendingOp exactly once.
package execution

import (
	"fmt"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
)

// PolicyKind is the compile-time-in-spirit variant of spec.md §9's
// design note: {None, RateLimit, Timeout, Full}, held inline rather
// than as separate template instantiations.
type PolicyKind int

const (
	PolicyNone PolicyKind = iota
	PolicyRateLimitOnly
	PolicyTimeoutOnly
	PolicyFull
)

// Pipeline is the policy bundle an OrderExecutor consults around every
// operation. A zero-value kind (PolicyNone) makes every method a no-op
// that always allows the operation through.
type Pipeline struct {
	kind PolicyKind

	rateLimit *RateLimitGate
	store     *PendingOpStore
	reaper    *TimeoutReaper
	dedup     *InFlightDeduper
	logger    ports.Logger
}

// NewPipeline builds a Pipeline for kind. rlCfg/toCfg are ignored when
// the corresponding policy is not active. onLimited fires when the
// rate-limit Callback policy is configured; onReject/onTimeout fire
// per the timeout policy (spec.md §4.9 step 4).
func NewPipeline(
	kind PolicyKind,
	rlCfg config.RateLimitConfig,
	toCfg config.TimeoutConfig,
	onLimited RateLimitedCallback,
	onReject func(model.OrderId, string),
	onTimeout func(model.OrderId, string),
	logger ports.Logger,
) *Pipeline {
	p := &Pipeline{kind: kind, logger: logger}
	if kind == PolicyRateLimitOnly || kind == PolicyFull {
		p.rateLimit = NewRateLimitGate(rlCfg, onLimited)
	}
	if kind == PolicyTimeoutOnly || kind == PolicyFull {
		p.store = NewPendingOpStore()
		p.reaper = NewTimeoutReaper(p.store, toCfg, onReject, onTimeout, logger)
	}
	if kind == PolicyFull {
		p.dedup = NewInFlightDeduper(0, 0)
	}
	return p
}

// Start launches the timeout reaper, if this pipeline tracks timeouts.
func (p *Pipeline) Start() {
	if p.reaper != nil {
		p.reaper.Start()
	}
}

// Stop joins the timeout reaper.
func (p *Pipeline) Stop() {
	if p.reaper != nil {
		p.reaper.Stop()
	}
}

// Allow first consults the in-flight dedup guard (PolicyFull only),
// then the rate-limit gate (spec.md §4.9 step 1). When the Reject
// policy drops an operation it logs a warning naming the order id,
// matching scenario S5.
func (p *Pipeline) Allow(orderId model.OrderId) bool {
	key := dedupKey(orderId)
	if p.dedup != nil {
		if err := p.dedup.TryAcquire(key); err != nil {
			if p.logger != nil {
				p.logger.Warn(fmt.Sprintf("duplicate in-flight operation, dropping orderId=%d", orderId))
			}
			return false
		}
	}

	if p.rateLimit == nil {
		return true
	}
	ok := p.rateLimit.Allow(uint64(orderId))
	if !ok {
		p.dedup.Release(key)
		if p.rateLimit.policy == config.RateLimitReject && p.logger != nil {
			p.logger.Warn(fmt.Sprintf("rate limit exceeded, dropping operation orderId=%d", orderId))
		}
	}
	return ok
}

func dedupKey(orderId model.OrderId) string {
	return fmt.Sprintf("%d", orderId)
}

// TrackStart inserts a PendingOp before the HTTP request is issued
// (spec.md §4.9 step 4). No-op when timeout tracking is disabled.
func (p *Pipeline) TrackStart(orderId model.OrderId, op model.OpType) {
	if p.store == nil {
		return
	}
	p.store.Insert(model.PendingOp{OrderId: orderId, Op: op, StartedAt: time.Now()})
}

// TrackDone atomically removes the PendingOp for orderId, and releases
// its dedup reservation so a legitimate follow-up operation on the same
// order id doesn't have to wait out the dedup TTL. The executors call
// this when the HTTP response arrives; the reaper removes expired
// entries from the same store under the same mutex, so ok==false means
// the reaper already took the entry.
func (p *Pipeline) TrackDone(orderId model.OrderId) (model.PendingOp, bool) {
	p.dedup.Release(dedupKey(orderId))
	if p.store == nil {
		return model.PendingOp{}, false
	}
	return p.store.Extract(orderId)
}

// PendingCount reports the number of outstanding tracked operations,
// used by tests asserting the pending-op map drains after a timeout.
func (p *Pipeline) PendingCount() int {
	if p.store == nil {
		return 0
	}
	return p.store.Len()
}
