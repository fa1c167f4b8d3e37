package hyperliquid

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	hlsign "github.com/flox-foundation/flox-connectors/internal/signing/hyperliquid"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
)

type fakeTracker struct {
	states    map[model.OrderId]ports.OrderState
	submitted []string
	canceled  []model.OrderId
	replaced  []model.OrderId
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

func (f *fakeTracker) OnRejected(id model.OrderId, reason string) {}

const testPrivateKey = "0000000000000000000000000000000000000000000000000000000000000001"

func newTestExecutor(t *testing.T, handler http.HandlerFunc) (*Executor, *symbol.Registry, *fakeTracker) {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	reg := symbol.New()
	reg.Resolve("hyperliquid", "BTC", model.InstrumentFuture)

	cfg := config.HyperliquidConfig{
		RestEndpoint: srv.URL,
		PrivateKey:   testPrivateKey,
		Mainnet:      true,
	}
	pool := transport.NewHTTPPool(transport.HTTPPoolConfig{InitialSize: 1, MaxSize: 1})
	tracker := newFakeTracker()

	return NewExecutor(cfg, pool, hlsign.EmbeddedSigner{}, reg, tracker, nil), reg, tracker
}

func TestSubmitOrderSuccess(t *testing.T) {
	exec, reg, tracker := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"type":"meta"`) {
			w.Write([]byte(`{"universe":[{"name":"BTC"},{"name":"ETH"}]}`))
			return
		}
		require.Contains(t, string(body), `"a":0`)
		require.Contains(t, string(body), `"b":true`)
		w.Write([]byte(`{"status":"ok","response":{"type":"order","data":{"statuses":[{"resting":{"oid":555}}]}}}`))
	})

	symId, _ := reg.GetId("hyperliquid", "BTC")
	order := model.Order{Id: 1, Symbol: symId, Side: model.SideBuy, Price: 4300000000000, Quantity: 150000000}

	err := exec.SubmitOrder(order)
	require.NoError(t, err)
	require.Equal(t, []string{"555"}, tracker.submitted)
}

func TestCancelOrderByCloid(t *testing.T) {
	exec, reg, tracker := newTestExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if strings.Contains(string(body), `"type":"meta"`) {
			w.Write([]byte(`{"universe":[{"name":"BTC"}]}`))
			return
		}
		require.Contains(t, string(body), `"type":"cancelByCloid"`)
		require.Contains(t, string(body), `"cloid":"0xabc"`)
		w.Write([]byte(`{"status":"ok"}`))
	})

	symId, _ := reg.GetId("hyperliquid", "BTC")
	order := model.Order{Id: 2, Symbol: symId, Side: model.SideBuy}
	tracker.states[order.Id] = ports.OrderState{LocalOrder: order, ExchangeOrderId: "123", ClientOrderId: "0xabc"}

	err := exec.CancelOrder(order.Id)
	require.NoError(t, err)
	require.Equal(t, []model.OrderId{2}, tracker.canceled)
}
