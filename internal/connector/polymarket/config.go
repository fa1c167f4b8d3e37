// Package polymarket implements the Polymarket connector: a market-data
// websocket decoder plus an order executor that calls out to
// internal/polymarketffi instead of signing REST requests itself,
// since Polymarket's order engine lives out-of-process behind a C ABI
// (spec.md §4.10).
package polymarket

import "github.com/flox-foundation/flox-connectors/internal/model"

// Origin is the websocket handshake Origin header Polymarket's market
// channel expects.
const Origin = "https://polymarket.com"

// DefaultInstrumentType is used when a token id is resolved for the
// first time; Polymarket markets are binary outcome tokens and are
// registered under the Spot type, since the registry has no
// prediction-market instrument type.
const DefaultInstrumentType = model.InstrumentSpot
