package hyperliquid

import (
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/flox-foundation/flox-connectors/internal/connector"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type wsEnvelope struct {
	Channel string              `json:"channel"`
	Data    jsoniter.RawMessage `json:"data"`
}

type l2BookData struct {
	Coin   string        `json:"coin"`
	TimeMs int64         `json:"time"`
	Levels [][]wireLevel `json:"levels"`
}

type wireLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
}

type tradeEntry struct {
	Coin string `json:"coin"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Side string `json:"side"`
}

// bookPool is the narrow acquire/release surface the decoder needs.
type bookPool interface {
	Acquire() (*model.BookUpdateEvent, int, bool)
	Release(idx int)
}

// Decoder implements spec.md §4.5's handle_message algorithm for
// Hyperliquid's `channel`/`data` wire shape: l2Book is always a
// snapshot (Hyperliquid never sends deltas), trades is an array of
// individual fills.
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
		exhaustion: connector.NewPoolExhaustionLogger(logger, time.Second),
	}
}

// HandleMessage implements the common algorithm of spec.md §4.5 for
// Hyperliquid's wire shape.
func (d *Decoder) HandleMessage(payload []byte) {
	recvNs := connector.MonotonicNowNs()

	if string(payload) == `{"method":"ping"}` {
		return
	}

	var env wsEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return
	}

	switch env.Channel {
	case "l2Book":
		d.handleBook(env, recvNs)
	case "trades":
		d.handleTrades(env)
	}
}

func (d *Decoder) handleBook(env wsEnvelope, recvNs int64) {
	var data l2BookData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return
	}
	if len(data.Levels) < 2 {
		return
	}

	symbolId := d.resolveSymbolId(data.Coin)
	info, _ := d.registry.GetInfo(symbolId)

	ev, idx, ok := d.pool.Acquire()
	if !ok {
		d.exhaustion.Warn(d.exchange, data.Coin)
		return
	}

	ev.Symbol = symbolId
	ev.InstrumentType = info.InstrumentType
	ev.Option = info.Option
	ev.RecvNs = recvNs
	ev.ExchangeTsNs = data.TimeMs * int64(time.Millisecond)
	// Hyperliquid's l2Book always carries the full book: every message
	// is a snapshot, never a delta.
	ev.Type = model.BookSnapshot

	for _, lvl := range data.Levels[0] {
		ev.Bids = connector.AppendLevel(ev.Bids, lvl.Px, lvl.Sz, d.logger, "bid")
	}
	for _, lvl := range data.Levels[1] {
		ev.Asks = connector.AppendLevel(ev.Asks, lvl.Px, lvl.Sz, d.logger, "ask")
	}

	if len(ev.Bids) == 0 && len(ev.Asks) == 0 {
		d.pool.Release(idx)
		return
	}

	ev.PublishNs = connector.MonotonicNowNs()
	d.bookBus.Publish(ev)
	d.pool.Release(idx)
}

func (d *Decoder) handleTrades(env wsEnvelope) {
	var entries []tradeEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		return
	}

	recvNs := connector.MonotonicNowNs()

	for _, e := range entries {
		lvl, err := connector.ParseLevel(e.Px, e.Sz)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("dropping malformed trade", "price", e.Px, "size", e.Sz, "err", err)
			}
			continue
		}

		symbolId := d.resolveSymbolId(e.Coin)
		info, _ := d.registry.GetInfo(symbolId)

		d.tradeBus.Publish(model.TradeEvent{
			Symbol: symbolId,
			Price:  lvl.Price,
			// "B"/"buy" means buy; anything else (including "A"/"sell")
			// is treated as sell, per spec.md's recorded ambiguity.
			Quantity:       lvl.Quantity,
			IsBuy:          connector.IsBuySide(e.Side),
			ExchangeTsNs:   recvNs,
			InstrumentType: info.InstrumentType,
		})
	}
}

func (d *Decoder) resolveSymbolId(coin string) model.SymbolId {
	return d.registry.Resolve(d.exchange, coin, DefaultInstrumentType)
}
