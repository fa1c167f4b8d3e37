package polymarket

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/flox-foundation/flox-connectors/internal/connector"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type bookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type bookObject struct {
	EventType string      `json:"event_type"`
	AssetId   string      `json:"asset_id"`
	Bids      []bookLevel `json:"bids"`
	Asks      []bookLevel `json:"asks"`
}

type tradeObject struct {
	EventType string              `json:"event_type"`
	AssetId   string              `json:"asset_id"`
	Price     jsoniter.RawMessage `json:"price"`
	Size      jsoniter.RawMessage `json:"size"`
	Side      string              `json:"side"`
}

// bookPool is the narrow acquire/release surface the decoder needs.
type bookPool interface {
	Acquire() (*model.BookUpdateEvent, int, bool)
	Release(idx int)
}

// Decoder implements spec.md §4.5 for Polymarket's wire shape: the
// first message on a subscription is a JSON array of initial book
// snapshots; every later message is a single JSON object carrying
// `event_type` (`book`, `trade`, `last_trade_price`; `price_changes`
// is an incremental update the decoder does not yet apply and drops,
// matching the original connector).
type Decoder struct {
	exchange   string
	registry   *symbol.Registry
	bookBus    ports.BookUpdateBus
	tradeBus   ports.TradeBus
	pool       bookPool
	logger     ports.Logger
	exhaustion *connector.PoolExhaustionLogger
}

// NewDecoder builds a Decoder.
func NewDecoder(exchange string, registry *symbol.Registry, bookBus ports.BookUpdateBus, tradeBus ports.TradeBus, p bookPool, logger ports.Logger) *Decoder {
	return &Decoder{
		exchange:   exchange,
		registry:   registry,
		bookBus:    bookBus,
		tradeBus:   tradeBus,
		pool:       p,
		logger:     logger,
		exhaustion: connector.NewPoolExhaustionLogger(logger, 0),
	}
}

// HandleMessage implements the common algorithm of spec.md §4.5 for
// Polymarket's wire shape.
func (d *Decoder) HandleMessage(payload []byte) {
	recvNs := connector.MonotonicNowNs()

	trimmed := payload
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[0] == '\t' || trimmed[0] == '\n' || trimmed[0] == '\r') {
		trimmed = trimmed[1:]
	}
	if len(trimmed) == 0 {
		return
	}

	if trimmed[0] == '[' {
		var snapshots []bookObject
		if err := json.Unmarshal(trimmed, &snapshots); err != nil {
			return
		}
		for _, snap := range snapshots {
			d.handleBook(snap, recvNs)
		}
		return
	}

	var probe struct {
		PriceChanges jsoniter.RawMessage `json:"price_changes"`
		EventType    string              `json:"event_type"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return
	}
	if probe.PriceChanges != nil {
		// Incremental updates: full books arrive via "book" events, so
		// these are not yet applied.
		return
	}

	switch probe.EventType {
	case "book":
		var obj bookObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return
		}
		d.handleBook(obj, recvNs)
	case "last_trade_price", "trade":
		var obj tradeObject
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return
		}
		d.handleTrade(obj, recvNs)
	}
}

func (d *Decoder) handleBook(obj bookObject, recvNs int64) {
	if obj.AssetId == "" {
		return
	}
	symbolId := d.resolveSymbolId(obj.AssetId)
	info, _ := d.registry.GetInfo(symbolId)

	ev, idx, ok := d.pool.Acquire()
	if !ok {
		d.exhaustion.Warn(d.exchange, obj.AssetId)
		return
	}

	ev.Symbol = symbolId
	ev.InstrumentType = info.InstrumentType
	ev.Option = info.Option
	ev.RecvNs = recvNs
	ev.ExchangeTsNs = recvNs
	// Polymarket's "book" message always carries the full depth snapshot.
	ev.Type = model.BookSnapshot

	for _, lvl := range obj.Bids {
		ev.Bids = connector.AppendLevel(ev.Bids, lvl.Price, lvl.Size, d.logger, "bid")
	}
	for _, lvl := range obj.Asks {
		ev.Asks = connector.AppendLevel(ev.Asks, lvl.Price, lvl.Size, d.logger, "ask")
	}

	if len(ev.Bids) == 0 && len(ev.Asks) == 0 {
		d.pool.Release(idx)
		return
	}

	ev.PublishNs = connector.MonotonicNowNs()
	d.bookBus.Publish(ev)
	d.pool.Release(idx)
}

func (d *Decoder) handleTrade(obj tradeObject, recvNs int64) {
	if obj.AssetId == "" || len(obj.Price) == 0 || len(obj.Size) == 0 {
		return
	}

	priceStr, ok := stringOrNumber(obj.Price)
	if !ok {
		return
	}
	sizeStr, ok := stringOrNumber(obj.Size)
	if !ok {
		return
	}

	lvl, err := connector.ParseLevel(priceStr, sizeStr)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("dropping malformed trade", "price", priceStr, "size", sizeStr, "err", err)
		}
		return
	}

	symbolId := d.resolveSymbolId(obj.AssetId)
	info, _ := d.registry.GetInfo(symbolId)

	d.tradeBus.Publish(model.TradeEvent{
		Symbol:         symbolId,
		Price:          lvl.Price,
		Quantity:       lvl.Quantity,
		IsBuy:          obj.Side == "BUY",
		ExchangeTsNs:   recvNs,
		InstrumentType: info.InstrumentType,
	})
}

// stringOrNumber reads a json.RawMessage that may be either a quoted
// string or a bare number, matching Polymarket's inconsistent wire
// encoding of price/size across message types.
func stringOrNumber(raw jsoniter.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}
	return string(raw), true
}

func (d *Decoder) resolveSymbolId(tokenId string) model.SymbolId {
	return d.registry.Resolve(d.exchange, tokenId, DefaultInstrumentType)
}
