package polymarket

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

func TestDecoderHandlesInitialSnapshotArray(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("polymarket", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`[{"asset_id":"111","bids":[{"price":"0.45","size":"100"}],"asks":[{"price":"0.47","size":"50"}]}]`))

	require.Len(t, books.events, 1)
	ev := books.events[0]
	require.Equal(t, model.BookSnapshot, ev.Type)
	require.Len(t, ev.Bids, 1)
	require.Len(t, ev.Asks, 1)
	require.Equal(t, "0.45", ev.Bids[0].Price.String())
	require.Equal(t, "0.47", ev.Asks[0].Price.String())
}

func TestDecoderHandlesBookEventType(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("polymarket", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"event_type":"book","asset_id":"111","bids":[{"price":"0.45","size":"100"}],"asks":[{"price":"0.47","size":"50"}]}`))

	require.Len(t, books.events, 1)
}

func TestDecoderReleasesPoolSlotAfterPublish(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(1)
	d := NewDecoder("polymarket", reg, books, trades, p, nil)

	for i := 0; i < 3; i++ {
		d.HandleMessage([]byte(`{"event_type":"book","asset_id":"111","bids":[{"price":"0.45","size":"100"}],"asks":[{"price":"0.47","size":"50"}]}`))
	}

	require.Len(t, books.events, 3, "a single-slot pool must not exhaust across repeated successful publishes")
}

func TestDecoderIgnoresPriceChanges(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("polymarket", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"event_type":"price_changes","price_changes":[{"asset_id":"111","price":"0.5"}]}`))

	require.Empty(t, books.events)
	require.Equal(t, 4, p.Len())
}

func TestDecoderDropsEmptyBook(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("polymarket", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"event_type":"book","asset_id":"111","bids":[],"asks":[]}`))

	require.Empty(t, books.events)
	require.Equal(t, 4, p.Len())
}

func TestDecoderHandlesLastTradePriceStringFields(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("polymarket", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"event_type":"last_trade_price","asset_id":"111","price":"0.46","size":"25","side":"BUY"}`))

	require.Len(t, trades.events, 1)
	require.True(t, trades.events[0].IsBuy)
	require.Equal(t, "0.46", trades.events[0].Price.String())
}

func TestDecoderHandlesTradeWithNumericFields(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("polymarket", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"event_type":"trade","asset_id":"111","price":0.46,"size":25,"side":"SELL"}`))

	require.Len(t, trades.events, 1)
	require.False(t, trades.events[0].IsBuy)
}

func TestDecoderIgnoresUnknownEventType(t *testing.T) {
	reg := symbol.New()
	books := &capturingBookBus{}
	trades := &capturingTradeBus{}
	p := pool.New(4)
	d := NewDecoder("polymarket", reg, books, trades, p, nil)

	d.HandleMessage([]byte(`{"event_type":"tick_size_change","asset_id":"111"}`))

	require.Empty(t, books.events)
	require.Empty(t, trades.events)
}
