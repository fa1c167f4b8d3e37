package bitget

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/execution"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
)

type fakeTracker struct {
	states     map[model.OrderId]ports.OrderState
	submitted  []string
	rejected   []string
	canceled   []model.OrderId
	replaced   []model.OrderId
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{states: map[model.OrderId]ports.OrderState{}}
}

func (f *fakeTracker) Get(id model.OrderId) (ports.OrderState, bool) {
	s, ok := f.states[id]
	return s, ok
}

func (f *fakeTracker) OnSubmitted(order model.Order, exchangeOrderId, clientOrderId string) {
	f.submitted = append(f.submitted, exchangeOrderId)
	f.states[order.Id] = ports.OrderState{LocalOrder: order, ExchangeOrderId: exchangeOrderId, ClientOrderId: clientOrderId}
}

func (f *fakeTracker) OnCanceled(id model.OrderId) {
	f.canceled = append(f.canceled, id)
}

func (f *fakeTracker) OnReplaced(oldId model.OrderId, newOrder model.Order, exchangeOrderId, clientOrderId string) {
	f.replaced = append(f.replaced, oldId)
	f.states[oldId] = ports.OrderState{LocalOrder: newOrder, ExchangeOrderId: exchangeOrderId, ClientOrderId: clientOrderId}
}

func (f *fakeTracker) OnRejected(id model.OrderId, reason string) {
	f.rejected = append(f.rejected, reason)
}

func newTestExecutor(t *testing.T, handler http.HandlerFunc) (*Executor, *symbol.Registry, *fakeTracker) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reg := symbol.New()
	reg.Resolve("bitget", "BTCUSDT", model.InstrumentSpot)

	cfg := config.BitgetConfig{
		PrivateEndpoint: srv.URL,
		ApiKey:          "key",
		ApiSecret:       "secret",
		Passphrase:      "pass",
		ProductType:     "USDT-FUTURES",
		MarginMode:      "crossed",
		MarginCoin:      "USDT",
		ForcePolicy:     "gtc",
	}
	pool := transport.NewHTTPPool(transport.HTTPPoolConfig{InitialSize: 1, MaxSize: 1})
	pipeline := execution.NewPipeline(execution.PolicyNone, config.RateLimitConfig{}, config.TimeoutConfig{}, nil, nil, nil, nil)
	tracker := newFakeTracker()

	return NewExecutor(cfg, pool, pipeline, reg, tracker, nil), reg, tracker
}

func TestSubmitOrderSuccess(t *testing.T) {
	exec, reg, tracker := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), `"productType":"USDT-FUTURES"`)
		require.Contains(t, string(body), `"tradeSide":"open"`)
		w.Write([]byte(`{"code":"00000","msg":"success","data":{"orderId":"ex-123"}}`))
	})

	symId, _ := reg.GetId("bitget", "BTCUSDT")
	order := model.Order{Id: 1, Symbol: symId, Side: model.SideBuy, Price: 6500000000000, Quantity: 100000000}

	err := exec.SubmitOrder(order)
	require.NoError(t, err)
	require.Equal(t, []string{"ex-123"}, tracker.submitted)
}

func TestSubmitOrderRejected(t *testing.T) {
	exec, reg, tracker := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"40001","msg":"insufficient balance"}`))
	})

	symId, _ := reg.GetId("bitget", "BTCUSDT")
	order := model.Order{Id: 2, Symbol: symId, Side: model.SideSell, Price: 6500000000000, Quantity: 100000000}

	err := exec.SubmitOrder(order)
	require.NoError(t, err)
	require.Equal(t, []string{"insufficient balance"}, tracker.rejected)
}

func TestCancelOrderPrefersExchangeId(t *testing.T) {
	exec, reg, tracker := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.Contains(t, string(body), `"orderId":"ex-999"`)
		require.NotContains(t, string(body), "clientOid")
		w.Write([]byte(`{"code":"00000","msg":"success"}`))
	})

	symId, _ := reg.GetId("bitget", "BTCUSDT")
	order := model.Order{Id: 3, Symbol: symId, Side: model.SideBuy}
	tracker.states[order.Id] = ports.OrderState{LocalOrder: order, ExchangeOrderId: "ex-999"}

	err := exec.CancelOrder(order.Id)
	require.NoError(t, err)
	require.Equal(t, []model.OrderId{3}, tracker.canceled)
}
