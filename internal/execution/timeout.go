package execution

import (
	"sync"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/pkg/syncgroup"
)

// PendingOpStore is the mutex-protected map of in-flight operations
// spec.md §9's "Pending-op race" design note calls for: the response
// callback removes an entry with Extract and the reaper removes expired
// entries inside expired(), both under the same mutex, so each entry is
// removed exactly once. Extract's ok==false means the reaper already
// took the entry.
type PendingOpStore struct {
	mu  sync.Mutex
	ops map[model.OrderId]model.PendingOp
}

// NewPendingOpStore builds an empty store.
func NewPendingOpStore() *PendingOpStore {
	return &PendingOpStore{ops: make(map[model.OrderId]model.PendingOp)}
}

// Insert records a new outgoing request. A newer op for the same
// order id replaces any prior one, per spec.md §3's PendingOp
// invariant ("one per order_id active at a time").
func (s *PendingOpStore) Insert(op model.PendingOp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[op.OrderId] = op
}

// Extract atomically removes and returns the pending op for id, if any.
func (s *PendingOpStore) Extract(id model.OrderId) (model.PendingOp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	op, ok := s.ops[id]
	if ok {
		delete(s.ops, id)
	}
	return op, ok
}

// Len reports the number of outstanding operations.
func (s *PendingOpStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

func (s *PendingOpStore) expired(now time.Time, cfg config.TimeoutConfig) []model.PendingOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.PendingOp
	for id, op := range s.ops {
		if now.Sub(op.StartedAt) >= timeoutFor(cfg, op.Op) {
			out = append(out, op)
			delete(s.ops, id)
		}
	}
	return out
}

func timeoutFor(cfg config.TimeoutConfig, op model.OpType) time.Duration {
	switch op {
	case model.OpSubmit:
		return time.Duration(cfg.SubmitTimeoutMs) * time.Millisecond
	case model.OpCancel:
		return time.Duration(cfg.CancelTimeoutMs) * time.Millisecond
	case model.OpReplace:
		return time.Duration(cfg.ReplaceTimeoutMs) * time.Millisecond
	default:
		return time.Duration(cfg.SubmitTimeoutMs) * time.Millisecond
	}
}

// TimeoutReaper scans PendingOpStore every CheckIntervalMs and applies
// the configured policy to anything that outlived its op-specific
// timeout (spec.md §4.9 step 4).
type TimeoutReaper struct {
	store     *PendingOpStore
	cfg       config.TimeoutConfig
	onReject  func(id model.OrderId, reason string)
	onTimeout func(id model.OrderId, op string)
	logger    ports.Logger

	sg      *syncgroup.SyncGroup
	stopCh  chan struct{}
}

// NewTimeoutReaper builds a reaper; onReject/onTimeout may be nil for
// policies that do not use them.
func NewTimeoutReaper(store *PendingOpStore, cfg config.TimeoutConfig, onReject func(model.OrderId, string), onTimeout func(model.OrderId, string), logger ports.Logger) *TimeoutReaper {
	if cfg.CheckIntervalMs <= 0 {
		cfg.CheckIntervalMs = 100
	}
	return &TimeoutReaper{
		store:     store,
		cfg:       cfg,
		onReject:  onReject,
		onTimeout: onTimeout,
		logger:    logger,
		sg:        syncgroup.New(logger),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the reaper goroutine.
func (r *TimeoutReaper) Start() {
	r.sg.Go("timeout-reaper", r.loop)
}

// Stop signals the reaper to exit and joins it.
func (r *TimeoutReaper) Stop() {
	close(r.stopCh)
	r.sg.Wait()
}

func (r *TimeoutReaper) loop() {
	interval := time.Duration(r.cfg.CheckIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			for _, op := range r.store.expired(time.Now(), r.cfg) {
				r.handleExpired(op)
			}
		}
	}
}

func (r *TimeoutReaper) handleExpired(op model.PendingOp) {
	reason := op.Op.String() + " timeout"
	switch r.cfg.Policy {
	case config.TimeoutReject:
		if r.onReject != nil {
			r.onReject(op.OrderId, reason)
		}
	case config.TimeoutCallback, config.TimeoutReconcile:
		if r.onTimeout != nil {
			r.onTimeout(op.OrderId, op.Op.String())
		}
	default: // LogOnly
		if r.logger != nil {
			r.logger.Warn("pending op timed out", "orderId", op.OrderId, "op", op.Op.String())
		}
	}
}
