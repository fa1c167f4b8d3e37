// Package symbol provides the process-wide registry mapping venue
// (exchange, symbol) pairs to a stable SymbolId, plus Bybit's option
// symbol parser used when a registration has no prior entry.
package symbol

import (
	"sync"

	"github.com/flox-foundation/flox-connectors/internal/model"
)

type key struct {
	exchange string
	symbol   string
}

// Registry is a concurrent, append-only (exchange,symbol) -> SymbolId
// store. register is linearizable with respect to readers: once it
// returns, GetInfo for the returned id observes the full record.
type Registry struct {
	mu      sync.RWMutex
	byKey   map[key]model.SymbolId
	byId    []model.SymbolInfo // index i holds the info for SymbolId(i+1)
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byKey: make(map[key]model.SymbolId)}
}

// Register returns the existing id for (info.Exchange, info.Symbol) if
// already present, otherwise mints a new one and stores info under it.
func (r *Registry) Register(info model.SymbolInfo) model.SymbolId {
	k := key{info.Exchange, info.Symbol}

	r.mu.RLock()
	if id, ok := r.byKey[k]; ok {
		r.mu.RUnlock()
		return id
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[k]; ok {
		return id
	}
	r.byId = append(r.byId, info)
	id := model.SymbolId(len(r.byId))
	r.byKey[k] = id
	return id
}

// GetId returns the id already registered for (exchange, symbol), if any.
func (r *Registry) GetId(exchange, symbol string) (model.SymbolId, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[key{exchange, symbol}]
	return id, ok
}

// GetInfo returns the immutable record a SymbolId resolves to.
func (r *Registry) GetInfo(id model.SymbolId) (model.SymbolInfo, bool) {
	if id == 0 {
		return model.SymbolInfo{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(r.byId) {
		return model.SymbolInfo{}, false
	}
	return r.byId[idx], true
}

// Resolve implements spec.md §4.5's resolve-symbol-id algorithm: look
// up an existing registration, else try an option-symbol parse, else
// fall back to defaultType, registering a fresh entry either way.
func (r *Registry) Resolve(exchange, venueSymbol string, defaultType model.InstrumentType) model.SymbolId {
	if id, ok := r.GetId(exchange, venueSymbol); ok {
		return id
	}
	if opt, ok := ParseBybitOption(venueSymbol); ok {
		return r.Register(model.SymbolInfo{
			Exchange:       exchange,
			Symbol:         venueSymbol,
			InstrumentType: model.InstrumentOption,
			Option:         opt,
		})
	}
	return r.Register(model.SymbolInfo{
		Exchange:       exchange,
		Symbol:         venueSymbol,
		InstrumentType: defaultType,
	})
}
