package symbol

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flox-foundation/flox-connectors/internal/model"
)

func TestRegisterIdempotent(t *testing.T) {
	r := New()
	info := model.SymbolInfo{Exchange: "bybit", Symbol: "BTCUSDT", InstrumentType: model.InstrumentSpot}
	id1 := r.Register(info)
	id2 := r.Register(info)
	require.Equal(t, id1, id2)
}

func TestRegisterConcurrent(t *testing.T) {
	r := New()
	info := model.SymbolInfo{Exchange: "bybit", Symbol: "ETHUSDT", InstrumentType: model.InstrumentSpot}

	var wg sync.WaitGroup
	ids := make([]model.SymbolId, 64)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = r.Register(info)
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		require.Equal(t, ids[0], id)
	}

	got, ok := r.GetInfo(ids[0])
	require.True(t, ok)
	require.Equal(t, info, got)
}

func TestResolveFallsBackToOptionParse(t *testing.T) {
	r := New()
	id := r.Resolve("bybit", "BTC-27DEC24-65000-C", model.InstrumentSpot)
	info, ok := r.GetInfo(id)
	require.True(t, ok)
	require.Equal(t, model.InstrumentOption, info.InstrumentType)
	require.NotNil(t, info.Option)
	require.Equal(t, model.OptionCall, info.Option.Side)
}

func TestResolveFallsBackToDefaultType(t *testing.T) {
	r := New()
	id := r.Resolve("bybit", "BTCUSDT", model.InstrumentSpot)
	info, ok := r.GetInfo(id)
	require.True(t, ok)
	require.Equal(t, model.InstrumentSpot, info.InstrumentType)
	require.Nil(t, info.Option)
}

func TestParseBybitOptionRejectsGarbage(t *testing.T) {
	for _, s := range []string{"BTCUSDT", "BTC-27XYZ24-65000-C", "BTC-27DEC24-abc-C", "BTC-27DEC24-65000-X"} {
		_, ok := ParseBybitOption(s)
		require.False(t, ok, "input %q", s)
	}
}
