package bybit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/pool"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
)

type capturingBookBus struct {
	events []*model.BookUpdateEvent
}

func (b *capturingBookBus) Publish(ev *model.BookUpdateEvent) {
	b.events = append(b.events, ev)
}

type capturingTradeBus struct {
	events []model.TradeEvent
}

func (b *capturingTradeBus) Publish(ev model.TradeEvent) {
	b.events = append(b.events, ev)
}

// S1 — Bybit book delta.
func TestDecoderHandlesBookDelta(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)

	d := NewDecoder("bybit", reg, books, trades, p, nil, func(string) model.InstrumentType {
		return model.InstrumentSpot
	})

	d.HandleMessage([]byte(`{"topic":"orderbook.50.BTCUSDT","type":"delta","data":{"s":"BTCUSDT","b":[["65000.5","0.01"]],"a":[]}}`))

	require.Len(t, books.events, 1)
	ev := books.events[0]
	require.Equal(t, model.BookDelta, ev.Type)
	require.Len(t, ev.Bids, 1)
	require.Empty(t, ev.Asks)
	require.Equal(t, "65000.5", ev.Bids[0].Price.String())
	require.Equal(t, "0.01", ev.Bids[0].Quantity.String())

	wantId, ok := reg.GetId("bybit", "BTCUSDT")
	require.True(t, ok)
	require.Equal(t, wantId, ev.Symbol)
}

func TestDecoderDropsEmptyBook(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("bybit", reg, books, trades, p, nil, func(string) model.InstrumentType {
		return model.InstrumentSpot
	})

	d.HandleMessage([]byte(`{"topic":"orderbook.50.BTCUSDT","type":"snapshot","data":{"s":"BTCUSDT","b":[],"a":[]}}`))

	require.Empty(t, books.events)
	require.Equal(t, 4, p.Len())
}

func TestDecoderReleasesPoolSlotAfterPublish(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(1)
	d := NewDecoder("bybit", reg, books, trades, p, nil, func(string) model.InstrumentType {
		return model.InstrumentSpot
	})

	for i := 0; i < 3; i++ {
		d.HandleMessage([]byte(`{"topic":"orderbook.50.BTCUSDT","type":"delta","data":{"s":"BTCUSDT","b":[["65000.5","0.01"]],"a":[]}}`))
	}

	require.Len(t, books.events, 3, "a single-slot pool must not exhaust across repeated successful publishes")
}

func TestDecoderSkipsMalformedLevelNotWholeFrame(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("bybit", reg, books, trades, p, nil, func(string) model.InstrumentType {
		return model.InstrumentSpot
	})

	d.HandleMessage([]byte(`{"topic":"orderbook.50.BTCUSDT","type":"snapshot","data":{"s":"BTCUSDT","b":[["not-a-number","0.01"],["100","1"]],"a":[]}}`))

	require.Len(t, books.events, 1)
	require.Len(t, books.events[0].Bids, 1)
	require.Equal(t, "100", books.events[0].Bids[0].Price.String())
}

func TestDecoderHandlesTrade(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("bybit", reg, books, trades, p, nil, func(string) model.InstrumentType {
		return model.InstrumentSpot
	})

	d.HandleMessage([]byte(`{"topic":"publicTrade.BTCUSDT","data":[{"T":1700000000000,"s":"BTCUSDT","S":"Buy","v":"0.5","p":"65000"}]}`))

	require.Len(t, trades.events, 1)
	tr := trades.events[0]
	require.True(t, tr.IsBuy)
	require.Equal(t, "65000", tr.Price.String())
	require.Equal(t, int64(1700000000000)*1_000_000, tr.ExchangeTsNs)
}
