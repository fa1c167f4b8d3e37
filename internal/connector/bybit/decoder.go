package bybit

import (
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/flox-foundation/flox-connectors/internal/connector"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/numeric"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type wsEnvelope struct {
	Topic string             `json:"topic"`
	Type  string             `json:"type"`
	Ts    int64              `json:"ts"`
	Data  jsoniter.RawMessage `json:"data"`
}

type bookData struct {
	Symbol string     `json:"s"`
	Bids   [][]string `json:"b"`
	Asks   [][]string `json:"a"`
}

type tradeEntry struct {
	TimestampMs int64  `json:"T"`
	Symbol      string `json:"s"`
	Side        string `json:"S"`
	Size        string `json:"v"`
	Price       string `json:"p"`
}

// Decoder implements spec.md §4.5's handle_message algorithm for
// Bybit's `topic`/`type` discrimination, honoring the Open Question
// resolution that `type=="delta"` emits Delta, everything else
// Snapshot.
type Decoder struct {
	exchange   string
	registry   *symbol.Registry
	bookBus    ports.BookUpdateBus
	tradeBus   ports.TradeBus
	pool       bookPool
	logger     ports.Logger
	exhaustion *connector.PoolExhaustionLogger
	defaultType func(string) model.InstrumentType
}

// bookPool is the narrow acquire/release surface the decoder needs,
// satisfied by *internal/pool.BookUpdatePool.
type bookPool interface {
	Acquire() (*model.BookUpdateEvent, int, bool)
	Release(idx int)
}

// NewDecoder builds a Decoder. defaultType resolves the configured
// instrument type for a symbol absent from the registry.
func NewDecoder(exchange string, registry *symbol.Registry, bookBus ports.BookUpdateBus, tradeBus ports.TradeBus, p bookPool, logger ports.Logger, defaultType func(string) model.InstrumentType) *Decoder {
	return &Decoder{
		exchange:    exchange,
		registry:    registry,
		bookBus:     bookBus,
		tradeBus:    tradeBus,
		pool:        p,
		logger:      logger,
		exhaustion:  connector.NewPoolExhaustionLogger(logger, time.Second),
		defaultType: defaultType,
	}
}

// HandleMessage implements the common algorithm of spec.md §4.5 for
// Bybit's wire shape.
func (d *Decoder) HandleMessage(payload []byte) {
	recvNs := connector.MonotonicNowNs()

	var env wsEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return
	}
	switch {
	case strings.HasPrefix(env.Topic, "orderbook."):
		d.handleBook(env, recvNs)
	case strings.HasPrefix(env.Topic, "publicTrade."):
		d.handleTrades(env)
	}
}

func (d *Decoder) handleBook(env wsEnvelope, recvNs int64) {
	var data bookData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return
	}

	symbolId := d.resolveSymbolId(data.Symbol)
	info, _ := d.registry.GetInfo(symbolId)

	ev, idx, ok := d.pool.Acquire()
	if !ok {
		d.exhaustion.Warn(d.exchange, data.Symbol)
		return
	}

	ev.Symbol = symbolId
	ev.InstrumentType = info.InstrumentType
	ev.Option = info.Option
	ev.ExchangeTsNs = env.Ts * int64(time.Millisecond)
	ev.RecvNs = recvNs

	for _, lvl := range data.Bids {
		if len(lvl) != 2 {
			continue
		}
		ev.Bids = connector.AppendLevel(ev.Bids, lvl[0], lvl[1], d.logger, "bid")
	}
	for _, lvl := range data.Asks {
		if len(lvl) != 2 {
			continue
		}
		ev.Asks = connector.AppendLevel(ev.Asks, lvl[0], lvl[1], d.logger, "ask")
	}

	if env.Type == "delta" {
		ev.Type = model.BookDelta
	} else {
		ev.Type = model.BookSnapshot
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
	for _, te := range entries {
		price, err := numeric.PriceFromDecimalString(te.Price)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("dropping malformed trade", "price", te.Price, "err", err)
			}
			continue
		}
		qty, err := numeric.QuantityFromDecimalString(te.Size)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("dropping malformed trade", "size", te.Size, "err", err)
			}
			continue
		}

		symbolId := d.resolveSymbolId(te.Symbol)
		info, _ := d.registry.GetInfo(symbolId)

		d.tradeBus.Publish(model.TradeEvent{
			Symbol:         symbolId,
			Price:          price,
			Quantity:       qty,
			IsBuy:          connector.IsBuySide(te.Side),
			ExchangeTsNs:   te.TimestampMs * int64(time.Millisecond),
			InstrumentType: info.InstrumentType,
		})
	}
}

func (d *Decoder) resolveSymbolId(venueSymbol string) model.SymbolId {
	dt := model.InstrumentSpot
	if d.defaultType != nil {
		dt = d.defaultType(venueSymbol)
	}
	return d.registry.Resolve(d.exchange, venueSymbol, dt)
}

