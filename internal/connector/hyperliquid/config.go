// Package hyperliquid implements the Hyperliquid connector: a public
// websocket decoder for l2Book/trades channels, a 30s application-level
// `{"method":"ping"}` heartbeat, 5-symbol/10-message subscribe batching
// with 50ms gaps (spec.md §4.7), and a REST order executor that signs
// through internal/signing/hyperliquid's out-of-process daemon.
package hyperliquid

import "github.com/flox-foundation/flox-connectors/internal/model"

// Origin is the Origin header Hyperliquid's websocket gateway expects.
const Origin = "https://app.hyperliquid.xyz"

// PingInterval is the `{"method":"ping"}` heartbeat interval spec.md
// §4.6 specifies for Hyperliquid.
const PingInterval = 30

// SubscribeBatchSize is the number of symbols per batch of subscribe
// messages (l2Book + trades = 2 messages/symbol) spec.md §4.7
// specifies: 5 symbols -> 10 messages per batch.
const SubscribeBatchSize = 5

// SubscribeBatchDelayMs is the sleep between subscribe batches, in
// milliseconds, spec.md §4.7 specifies.
const SubscribeBatchDelayMs = 50

// DefaultInstrumentType is the instrument type resolveSymbolId falls
// back to: every Hyperliquid symbol is a perpetual future.
const DefaultInstrumentType = model.InstrumentFuture

// InfoURL is Hyperliquid's metadata endpoint, queried once per process
// to resolve a coin name to its asset index (spec.md §9's asset-id
// cache, mutex-protected, loaded once).
func InfoURL(restEndpoint string) string {
	return restEndpoint + "/info"
}

// ExchangeURL is Hyperliquid's order-action endpoint.
func ExchangeURL(restEndpoint string) string {
	return restEndpoint + "/exchange"
}
