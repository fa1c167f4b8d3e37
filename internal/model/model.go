// Package model holds the venue-agnostic data types shared by every
// connector: symbols, orders, and the market-data/execution events that
// cross the bus boundaries described in the engine's BookUpdateBus,
// TradeBus and OrderExecutionBus collaborators.
package model

import (
	"time"

	"github.com/flox-foundation/flox-connectors/internal/numeric"
)

// SymbolId is a process-wide, never-reused handle minted by the symbol
// registry on first registration.
type SymbolId uint32

// InstrumentType classifies the instrument a SymbolId refers to.
type InstrumentType uint8

const (
	InstrumentSpot InstrumentType = iota
	InstrumentFuture
	InstrumentInverse
	InstrumentOption
)

func (t InstrumentType) String() string {
	switch t {
	case InstrumentSpot:
		return "spot"
	case InstrumentFuture:
		return "future"
	case InstrumentInverse:
		return "inverse"
	case InstrumentOption:
		return "option"
	default:
		return "unknown"
	}
}

// OptionSide is Call or Put for an Option instrument.
type OptionSide uint8

const (
	OptionCall OptionSide = iota
	OptionPut
)

// OptionMeta carries the extra fields an Option SymbolInfo needs.
type OptionMeta struct {
	Strike numeric.Price
	Expiry time.Time
	Side   OptionSide
}

// SymbolInfo is the immutable record a SymbolId resolves to.
type SymbolInfo struct {
	Exchange       string
	Symbol         string
	InstrumentType InstrumentType
	Option         *OptionMeta // non-nil only for InstrumentOption
}

// Side is the direction of an order or trade.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

// OrderId is assigned by the engine before submit.
type OrderId uint64

// Order is the local, engine-owned view of a working order.
type Order struct {
	Id        OrderId
	Symbol    SymbolId
	Side      Side
	Price     numeric.Price
	Quantity  numeric.Quantity
	CreatedAt time.Time
}

// OrderStatus is the lifecycle state communicated to OrderTracker via
// OrderEvent.
type OrderStatus uint8

const (
	OrderSubmitted OrderStatus = iota
	OrderPartiallyFilled
	OrderFilled
	OrderCanceled
	OrderRejected
	OrderExpired
)

// OrderEvent is emitted only on the private/user channel.
type OrderEvent struct {
	Order     Order
	FilledQty numeric.Quantity
	Status    OrderStatus
}

// PriceLevel is one (price, quantity) entry of a book snapshot or delta.
type PriceLevel struct {
	Price    numeric.Price
	Quantity numeric.Quantity
}

// BookUpdateType distinguishes a full snapshot from an incremental delta.
// Reconstructing a running book from these is a downstream responsibility;
// this type only records which one a frame was.
type BookUpdateType uint8

const (
	BookSnapshot BookUpdateType = iota
	BookDelta
)

// BookUpdateEvent is acquired from a BookUpdatePool, populated by a
// decoder, published to the BookUpdateBus, and returned to the pool once
// the downstream consumer drops its reference.
type BookUpdateEvent struct {
	Symbol         SymbolId
	Type           BookUpdateType
	Bids           []PriceLevel
	Asks           []PriceLevel
	InstrumentType InstrumentType
	Option         *OptionMeta
	ExchangeTsNs   int64
	RecvNs         int64
	PublishNs      int64
}

// Reset clears an event for reuse by the pool without reallocating the
// backing slices.
func (e *BookUpdateEvent) Reset() {
	e.Bids = e.Bids[:0]
	e.Asks = e.Asks[:0]
	e.Symbol = 0
	e.Option = nil
	e.ExchangeTsNs = 0
	e.RecvNs = 0
	e.PublishNs = 0
}

// TradeEvent is a value type, copied into the TradeBus.
type TradeEvent struct {
	Symbol         SymbolId
	Price          numeric.Price
	Quantity       numeric.Quantity
	IsBuy          bool
	ExchangeTsNs   int64
	InstrumentType InstrumentType
}

// OpType identifies which order-executor operation a PendingOp tracks.
type OpType uint8

const (
	OpSubmit OpType = iota
	OpCancel
	OpReplace
)

func (o OpType) String() string {
	switch o {
	case OpSubmit:
		return "submit"
	case OpCancel:
		return "cancel"
	case OpReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// PendingOp records an outgoing order-executor request until its response
// (or the timeout reaper) removes it. At most one is active per order id;
// a newer op for the same id replaces the old one.
type PendingOp struct {
	OrderId   OrderId
	Op        OpType
	StartedAt time.Time
}
