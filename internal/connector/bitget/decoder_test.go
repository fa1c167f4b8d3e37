package bitget

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

func newTestDecoder() (*Decoder, *symbol.Registry, *capturingBookBus, *capturingTradeBus, *pool.BookUpdatePool) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("bitget", reg, books, trades, p, nil, func(string) model.InstrumentType {
		return model.InstrumentSpot
	})
	return d, reg, books, trades, p
}

// S2 — literal "pong" text frame is dropped without publishing or erroring.
func TestDecoderDropsLiteralPong(t *testing.T) {
	d, _, books, trades, _ := newTestDecoder()

	d.HandleMessage([]byte("pong"))

	require.Empty(t, books.events)
	require.Empty(t, trades.events)
}

func TestDecoderHandlesBookUpdate(t *testing.T) {
	d, reg, books, _, _ := newTestDecoder()

	d.HandleMessage([]byte(`{"action":"update","arg":{"instType":"SPOT","channel":"books","instId":"BTCUSDT"},"data":[{"bids":[["65000.5","0.01"]],"asks":[]}]}`))

	require.Len(t, books.events, 1)
	ev := books.events[0]
	require.Equal(t, model.BookDelta, ev.Type)
	require.Len(t, ev.Bids, 1)
	require.Empty(t, ev.Asks)
	require.Equal(t, "65000.5", ev.Bids[0].Price.String())
	require.Equal(t, "0.01", ev.Bids[0].Quantity.String())

	wantId, ok := reg.GetId("bitget", "BTCUSDT")
	require.True(t, ok)
	require.Equal(t, wantId, ev.Symbol)
}

func TestDecoderBookSnapshotWhenActionNotUpdate(t *testing.T) {
	d, _, books, _, _ := newTestDecoder()

	d.HandleMessage([]byte(`{"action":"snapshot","arg":{"instType":"SPOT","channel":"books","instId":"BTCUSDT"},"data":[{"bids":[["100","1"]],"asks":[["101","2"]]}]}`))

	require.Len(t, books.events, 1)
	require.Equal(t, model.BookSnapshot, books.events[0].Type)
}

func TestDecoderDropsEmptyBook(t *testing.T) {
	d, _, books, _, p := newTestDecoder()

	d.HandleMessage([]byte(`{"action":"update","arg":{"instType":"SPOT","channel":"books","instId":"BTCUSDT"},"data":[{"bids":[],"asks":[]}]}`))

	require.Empty(t, books.events)
	require.Equal(t, 4, p.Len())
}

func TestDecoderReleasesPoolSlotAfterPublish(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(1)
	d := NewDecoder("bitget", reg, books, trades, p, nil, func(string) model.InstrumentType {
		return model.InstrumentSpot
	})

	for i := 0; i < 3; i++ {
		d.HandleMessage([]byte(`{"action":"update","arg":{"instType":"SPOT","channel":"books","instId":"BTCUSDT"},"data":[{"bids":[["65000.5","0.01"]],"asks":[]}]}`))
	}

	require.Len(t, books.events, 3, "a single-slot pool must not exhaust across repeated successful publishes")
}

func TestDecoderHandlesTrade(t *testing.T) {
	d, _, _, trades, _ := newTestDecoder()

	d.HandleMessage([]byte(`{"action":"snapshot","arg":{"instType":"SPOT","channel":"trade","instId":"BTCUSDT"},"data":[["1700000000000","65000","0.5","buy"]]}`))

	require.Len(t, trades.events, 1)
	tr := trades.events[0]
	require.True(t, tr.IsBuy)
	require.Equal(t, "65000", tr.Price.String())
	require.Equal(t, int64(1700000000000)*1_000_000, tr.ExchangeTsNs)
}

func TestDecoderSkipsMalformedTradeRow(t *testing.T) {
	d, _, _, trades, _ := newTestDecoder()

	d.HandleMessage([]byte(`{"action":"snapshot","arg":{"instType":"SPOT","channel":"trade","instId":"BTCUSDT"},"data":[["1700000000000","not-a-number","0.5","buy"],["1700000000001","100","1","sell"]]}`))

	require.Len(t, trades.events, 1)
	require.Equal(t, "100", trades.events[0].Price.String())
	require.False(t, trades.events[0].IsBuy)
}

func TestDecoderIgnoresEnvelopeWithoutChannel(t *testing.T) {
	d, _, books, trades, _ := newTestDecoder()

	d.HandleMessage([]byte(`{"event":"subscribe","arg":{"instType":"SPOT","instId":"BTCUSDT"}}`))

	require.Empty(t, books.events)
	require.Empty(t, trades.events)
}
