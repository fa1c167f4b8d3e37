package hyperliquid

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

// S3 — Hyperliquid l2 snapshot.
func TestDecoderHandlesL2Snapshot(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("hyperliquid", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"channel":"l2Book","data":{"coin":"BTC","time":1700000000000,"levels":[[{"px":"43000.0","sz":"1.5"}],[{"px":"43001.0","sz":"2.0"}]]}}`))

	require.Len(t, books.events, 1)
	ev := books.events[0]
	require.Equal(t, model.BookSnapshot, ev.Type)
	require.Len(t, ev.Bids, 1)
	require.Len(t, ev.Asks, 1)
	require.Equal(t, "43000", ev.Bids[0].Price.String())
	require.Equal(t, "1.5", ev.Bids[0].Quantity.String())
	require.Equal(t, "43001", ev.Asks[0].Price.String())
	require.Equal(t, "2", ev.Asks[0].Quantity.String())
	require.Equal(t, int64(1_700_000_000_000_000_000), ev.ExchangeTsNs)

	wantId, ok := reg.GetId("hyperliquid", "BTC")
	require.True(t, ok)
	require.Equal(t, wantId, ev.Symbol)
}

func TestDecoderReleasesPoolSlotAfterPublish(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(1)
	d := NewDecoder("hyperliquid", reg, books, trades, p, nil)

	for i := 0; i < 3; i++ {
		d.HandleMessage([]byte(`{"channel":"l2Book","data":{"coin":"BTC","time":1700000000000,"levels":[[{"px":"43000.0","sz":"1.5"}],[{"px":"43001.0","sz":"2.0"}]]}}`))
	}

	require.Len(t, books.events, 3, "a single-slot pool must not exhaust across repeated successful publishes")
}

func TestDecoderDropsPingEcho(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("hyperliquid", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"method":"ping"}`))

	require.Empty(t, books.events)
	require.Empty(t, trades.events)
}

func TestDecoderDropsEmptyBook(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("hyperliquid", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"channel":"l2Book","data":{"coin":"BTC","time":1700000000000,"levels":[[],[]]}}`))

	require.Empty(t, books.events)
	require.Equal(t, 4, p.Len())
}

func TestDecoderHandlesTrades(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("hyperliquid", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"channel":"trades","data":[{"coin":"BTC","px":"43000","sz":"0.5","side":"B"},{"coin":"BTC","px":"43001","sz":"0.1","side":"A"}]}`))

	require.Len(t, trades.events, 2)
	require.True(t, trades.events[0].IsBuy)
	require.False(t, trades.events[1].IsBuy)
}
