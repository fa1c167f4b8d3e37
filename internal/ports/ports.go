// Package ports defines the narrow interfaces the connectors depend on but
// do not implement: the engine's event buses, its authoritative order
// store, and its log sink. Keeping them in a leaf package (rather than next
// to the connectors that use them) avoids import cycles between the
// connector packages and whatever concrete bus/tracker/logger the embedding
// engine supplies.
package ports

import "github.com/flox-foundation/flox-connectors/internal/model"

// BookUpdateBus is the MPMC sink connectors publish order-book
// snapshots/deltas to. Publish must not block the caller for long; buses
// are expected to be bounded and to drop or backpressure on their own
// terms, not the connector's. Publish must fully consume event (copy out
// whatever fields it retains) before returning: the connector reclaims
// event's pool slot as soon as Publish returns, so a bus must never hold
// onto the pointer past the call.
type BookUpdateBus interface {
	Publish(event *model.BookUpdateEvent)
}

// TradeBus is the MPMC sink connectors publish trade prints to.
type TradeBus interface {
	Publish(event model.TradeEvent)
}

// OrderExecutionBus is the MPMC sink connectors publish order lifecycle
// events to (submitted/filled/canceled/rejected/expired).
type OrderExecutionBus interface {
	Publish(event model.OrderEvent)
}

// OrderState is the subset of OrderTracker's per-order record an executor
// needs to read back (e.g. to cancel/replace by exchange id).
type OrderState struct {
	LocalOrder     model.Order
	ExchangeOrderId string
	ClientOrderId   string
}

// OrderTracker is the authoritative, engine-owned local<->exchange order
// state store. It must be internally thread-safe: executor callbacks can
// arrive on the websocket receive thread, the HTTP pool's calling
// goroutine, or the timeout reaper, all concurrently.
type OrderTracker interface {
	Get(id model.OrderId) (OrderState, bool)
	OnSubmitted(order model.Order, exchangeOrderId string, clientOrderId string)
	OnCanceled(id model.OrderId)
	OnReplaced(oldId model.OrderId, newOrder model.Order, exchangeOrderId string, clientOrderId string)
	OnRejected(id model.OrderId, reason string)
}

// Logger is the structured log sink every component writes through. It
// mirrors the small set of levels the reference logger exposes, each
// taking a message plus loosely-typed key/value pairs.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}
