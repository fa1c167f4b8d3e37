package bitget

import (
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/flox-foundation/flox-connectors/internal/connector"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type wsEnvelope struct {
	Action string             `json:"action"`
	Arg    wsArg              `json:"arg"`
	Data   jsoniter.RawMessage `json:"data"`
}

type wsArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstId   string `json:"instId"`
}

type bookEntry struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// bookPool is the narrow acquire/release surface the decoder needs.
type bookPool interface {
	Acquire() (*model.BookUpdateEvent, int, bool)
	Release(idx int)
}

// Decoder implements spec.md §4.5's handle_message algorithm for
// Bitget's `arg.channel`/`action` discrimination, including the
// literal-"pong" drop of §4.5 step 1 / scenario S2.
type Decoder struct {
	exchange    string
	registry    *symbol.Registry
	bookBus     ports.BookUpdateBus
	tradeBus    ports.TradeBus
	pool        bookPool
	logger      ports.Logger
	exhaustion  *connector.PoolExhaustionLogger
	defaultType func(string) model.InstrumentType
}

// NewDecoder builds a Decoder.
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
// Bitget's wire shape.
func (d *Decoder) HandleMessage(payload []byte) {
	recvNs := connector.MonotonicNowNs()

	if string(payload) == "pong" {
		return
	}

	var env wsEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return
	}
	if env.Arg.Channel == "" {
		return
	}

	switch {
	case strings.HasPrefix(env.Arg.Channel, "books"):
		d.handleBook(env, recvNs)
	case env.Arg.Channel == "trade":
		d.handleTrades(env)
	}
}

func (d *Decoder) handleBook(env wsEnvelope, recvNs int64) {
	var entries []bookEntry
	if err := json.Unmarshal(env.Data, &entries); err != nil {
		return
	}

	symbolId := d.resolveSymbolId(env.Arg.InstId)
	info, _ := d.registry.GetInfo(symbolId)

	ev, idx, ok := d.pool.Acquire()
	if !ok {
		d.exhaustion.Warn(d.exchange, env.Arg.InstId)
		return
	}

	ev.Symbol = symbolId
	ev.InstrumentType = info.InstrumentType
	ev.Option = info.Option
	ev.RecvNs = recvNs
	if env.Action == "update" {
		ev.Type = model.BookDelta
	} else {
		ev.Type = model.BookSnapshot
	}

	for _, entry := range entries {
		for _, lvl := range entry.Bids {
			if len(lvl) != 2 {
				continue
			}
			ev.Bids = connector.AppendLevel(ev.Bids, lvl[0], lvl[1], d.logger, "bid")
		}
		for _, lvl := range entry.Asks {
			if len(lvl) != 2 {
				continue
			}
			ev.Asks = connector.AppendLevel(ev.Asks, lvl[0], lvl[1], d.logger, "ask")
		}
	}

	if len(ev.Bids) == 0 && len(ev.Asks) == 0 {
		d.pool.Release(idx)
		return
	}

	ev.PublishNs = connector.MonotonicNowNs()
	d.bookBus.Publish(ev)
	d.pool.Release(idx)
}

// handleTrades parses the [ts, price, size, side] row shape per
// bitget_exchange_connector.cpp.
func (d *Decoder) handleTrades(env wsEnvelope) {
	var rows [][]string
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return
	}

	symbolId := d.resolveSymbolId(env.Arg.InstId)
	info, _ := d.registry.GetInfo(symbolId)

	for _, row := range rows {
		if len(row) < 4 {
			continue
		}
		tsMs, priceStr, sizeStr, sideStr := row[0], row[1], row[2], row[3]

		lvl, err := connector.ParseLevel(priceStr, sizeStr)
		if err != nil {
			if d.logger != nil {
				d.logger.Warn("dropping malformed trade", "price", priceStr, "size", sizeStr, "err", err)
			}
			continue
		}

		var exchangeTsNs int64
		if ms, err := parseMs(tsMs); err == nil {
			exchangeTsNs = ms * int64(time.Millisecond)
		}

		d.tradeBus.Publish(model.TradeEvent{
			Symbol:         symbolId,
			Price:          lvl.Price,
			Quantity:       lvl.Quantity,
			IsBuy:          connector.IsBuySide(sideStr),
			ExchangeTsNs:   exchangeTsNs,
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

func parseMs(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
