// Package connector defines the venue-agnostic capability set spec.md
// §9's "Polymorphism across venues" design note calls for: a small
// interface the engine depends on, with the four concrete venues as
// independent implementations sharing no deep hierarchy.
package connector

import "github.com/flox-foundation/flox-connectors/internal/model"

// Connector is the lifecycle and identity surface every venue
// implements: start/stop the websocket session(s) and market-data
// subscriptions, report which exchange it is, and resolve a venue
// symbol string to a registry-wide SymbolId.
type Connector interface {
	// Start establishes the websocket connection(s) and begins
	// publishing market data. Non-blocking: connection/reconnection
	// happens on an internal goroutine.
	Start() error

	// Stop joins every goroutine the connector owns and closes its
	// websocket connection(s). Idempotent.
	Stop()

	// ExchangeId names the venue this connector talks to, e.g.
	// "bybit", "bitget", "hyperliquid", "polymarket".
	ExchangeId() string

	// ResolveSymbolId implements spec.md §4.5's four-step resolution:
	// registry lookup, option-symbol parse, configured default
	// instrument type, then register-and-return.
	ResolveSymbolId(venueSymbol string) model.SymbolId
}

// OrderExecutor is the order-command surface a Connector exposes when
// it also drives order execution (every venue except a pure
// market-data-only deployment). Each method is synchronous: the HTTP
// round trip happens before it returns, and a venue-confirmed outcome
// is reported to OrderTracker on the caller's goroutine before the
// method returns.
type OrderExecutor interface {
	SubmitOrder(order model.Order) error
	CancelOrder(id model.OrderId) error
	ReplaceOrder(oldId model.OrderId, newOrder model.Order) error
}
