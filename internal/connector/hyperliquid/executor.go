package hyperliquid

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	hlsign "github.com/flox-foundation/flox-connectors/internal/signing/hyperliquid"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
)

// assetCache resolves a coin name to Hyperliquid's integer asset index,
// loaded once per process from the `{"type":"meta"}` info endpoint and
// protected by a mutex (spec.md §9's "asset-id cache ... loaded once
// per process").
type assetCache struct {
	mu     sync.Mutex
	loaded bool
	byCoin map[string]int
}

func newAssetCache() *assetCache {
	return &assetCache{byCoin: map[string]int{}}
}

func (c *assetCache) ensureLoaded(pool *transport.HTTPPool, url string, logger ports.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	c.loaded = true

	res := pool.Post(context.Background(), url, `{"type":"meta"}`, map[string]string{"Content-Type": "application/json"}, 0)
	if res.Err != nil {
		if logger != nil {
			logger.Warn("hyperliquid: meta fetch failed", "err", res.Err)
		}
		return
	}

	var meta struct {
		Universe []struct {
			Name string `json:"name"`
		} `json:"universe"`
	}
	if err := json.Unmarshal([]byte(res.Body), &meta); err != nil {
		if logger != nil {
			logger.Warn("hyperliquid: meta parse failed", "err", err)
		}
		return
	}
	for i, u := range meta.Universe {
		c.byCoin[u.Name] = i
	}
	if logger != nil {
		logger.Info("hyperliquid: asset map loaded", "count", len(c.byCoin))
	}
}

func (c *assetCache) get(coin string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.byCoin[coin]
	return id, ok
}

// Executor implements spec.md §4.9 for Hyperliquid: orders are signed
// out-of-process via a Signer and posted to the exchange endpoint.
type Executor struct {
	cfg      config.HyperliquidConfig
	url      string
	pool     *transport.HTTPPool
	signer   hlsign.Signer
	registry *symbol.Registry
	tracker  ports.OrderTracker
	logger   ports.Logger
	assets   *assetCache
}

// NewExecutor wires an Executor. signer is normally a
// *hlsign.DaemonSigner; tests may substitute hlsign.EmbeddedSigner.
func NewExecutor(cfg config.HyperliquidConfig, pool *transport.HTTPPool, signer hlsign.Signer, registry *symbol.Registry, tracker ports.OrderTracker, logger ports.Logger) *Executor {
	return &Executor{
		cfg:      cfg,
		url:      ExchangeURL(cfg.RestEndpoint),
		pool:     pool,
		signer:   signer,
		registry: registry,
		tracker:  tracker,
		logger:   logger,
		assets:   newAssetCache(),
	}
}

type hlResponse struct {
	Status   string `json:"status"`
	Response struct {
		Data struct {
			Statuses []jsoniter.RawMessage `json:"statuses"`
		} `json:"data"`
	} `json:"response"`
}

type hlOrderStatus struct {
	Resting *struct {
		Oid uint64 `json:"oid"`
	} `json:"resting"`
	Filled *struct {
		Oid uint64 `json:"oid"`
	} `json:"filled"`
}

// SubmitOrder implements OrderExecutor.SubmitOrder.
func (e *Executor) SubmitOrder(order model.Order) error {
	e.assets.ensureLoaded(e.pool, InfoURL(e.cfg.RestEndpoint), e.logger)

	info, ok := e.registry.GetInfo(order.Symbol)
	if !ok {
		if e.logger != nil {
			e.logger.Error("submit_order: unknown symbol id, dropping", "orderId", order.Id, "symbol", order.Symbol)
		}
		return fmt.Errorf("hyperliquid: unknown symbol id %d", order.Symbol)
	}
	asset, ok := e.assets.get(info.Symbol)
	if !ok {
		if e.logger != nil {
			e.logger.Error("submit_order: no assetId cached, dropping", "orderId", order.Id, "symbol", info.Symbol)
		}
		return fmt.Errorf("hyperliquid: no assetId for %s", info.Symbol)
	}

	cloid := newCloid()
	orderObj := orderActionObject(asset, order.Side == model.SideBuy, order.Price.String(), order.Quantity.String(), cloid)
	action := fmt.Sprintf(`{"type":"order","orders":[%s],"grouping":"na"}`, orderObj)

	body, err := e.signAndWrap(action)
	if err != nil {
		if e.logger != nil {
			e.logger.Error("submit_order: signing failed", "orderId", order.Id, "err", err)
		}
		return err
	}

	res := e.pool.Post(context.Background(), e.url, body, map[string]string{"Content-Type": "application/json"}, 0)
	if res.Err != nil {
		if e.logger != nil {
			e.logger.Error("submit_order failed", "orderId", order.Id, "err", res.Err)
		}
		return res.Err
	}

	var resp hlResponse
	if err := json.Unmarshal([]byte(res.Body), &resp); err != nil {
		return err
	}
	var exId string
	if len(resp.Response.Data.Statuses) > 0 {
		var st hlOrderStatus
		if err := json.Unmarshal(resp.Response.Data.Statuses[0], &st); err == nil {
			if st.Resting != nil {
				exId = fmt.Sprintf("%d", st.Resting.Oid)
			}
			if st.Filled != nil {
				exId = fmt.Sprintf("%d", st.Filled.Oid)
			}
		}
	}
	e.tracker.OnSubmitted(order, exId, cloid)
	return nil
}

// CancelOrder implements OrderExecutor.CancelOrder, canceling by the
// client order id per spec.md §9 ("cancelByCloid").
func (e *Executor) CancelOrder(id model.OrderId) error {
	e.assets.ensureLoaded(e.pool, InfoURL(e.cfg.RestEndpoint), e.logger)

	state, ok := e.tracker.Get(id)
	if !ok {
		return fmt.Errorf("hyperliquid: cancel_order: unknown order id %d", id)
	}
	if state.ClientOrderId == "" {
		return fmt.Errorf("hyperliquid: cancel_order: no clientOrderId for order id %d", id)
	}

	info, ok := e.registry.GetInfo(state.LocalOrder.Symbol)
	if !ok {
		return fmt.Errorf("hyperliquid: cancel_order: unknown symbol id %d", state.LocalOrder.Symbol)
	}
	asset, ok := e.assets.get(info.Symbol)
	if !ok {
		return fmt.Errorf("hyperliquid: cancel_order: no assetId for %s", info.Symbol)
	}

	action := fmt.Sprintf(`{"type":"cancelByCloid","cancels":[{"asset":%d,"cloid":"%s"}]}`, asset, state.ClientOrderId)

	body, err := e.signAndWrap(action)
	if err != nil {
		return err
	}

	res := e.pool.Post(context.Background(), e.url, body, map[string]string{"Content-Type": "application/json"}, 0)
	if res.Err != nil {
		if e.logger != nil {
			e.logger.Error("cancel_order failed", "orderId", id, "err", res.Err)
		}
		return res.Err
	}

	var resp hlResponse
	if err := json.Unmarshal([]byte(res.Body), &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		if e.logger != nil {
			e.logger.Error("cancel_order failed", "orderId", id, "status", resp.Status)
		}
		return fmt.Errorf("hyperliquid: cancel status %q", resp.Status)
	}
	e.tracker.OnCanceled(id)
	return nil
}

// ReplaceOrder implements OrderExecutor.ReplaceOrder via Hyperliquid's
// "modify" action against the existing exchange order id.
func (e *Executor) ReplaceOrder(oldId model.OrderId, newOrder model.Order) error {
	e.assets.ensureLoaded(e.pool, InfoURL(e.cfg.RestEndpoint), e.logger)

	state, ok := e.tracker.Get(oldId)
	if !ok {
		return fmt.Errorf("hyperliquid: replace_order: unknown order id %d", oldId)
	}

	info, ok := e.registry.GetInfo(newOrder.Symbol)
	if !ok {
		return fmt.Errorf("hyperliquid: replace_order: unknown symbol id %d", newOrder.Symbol)
	}
	asset, ok := e.assets.get(info.Symbol)
	if !ok {
		return fmt.Errorf("hyperliquid: replace_order: no assetId for %s", info.Symbol)
	}

	orderObj := orderActionObject(asset, newOrder.Side == model.SideBuy, newOrder.Price.String(), newOrder.Quantity.String(), state.ClientOrderId)
	action := fmt.Sprintf(`{"type":"modify","oid":%s,"order":%s}`, state.ExchangeOrderId, orderObj)

	body, err := e.signAndWrap(action)
	if err != nil {
		return err
	}

	res := e.pool.Post(context.Background(), e.url, body, map[string]string{"Content-Type": "application/json"}, 0)
	if res.Err != nil {
		if e.logger != nil {
			e.logger.Error("replace_order failed", "orderId", oldId, "err", res.Err)
		}
		return res.Err
	}

	var resp hlResponse
	if err := json.Unmarshal([]byte(res.Body), &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		if e.logger != nil {
			e.logger.Error("replace_order failed", "orderId", oldId, "status", resp.Status)
		}
		return fmt.Errorf("hyperliquid: modify status %q", resp.Status)
	}
	e.tracker.OnReplaced(oldId, newOrder, state.ExchangeOrderId, state.ClientOrderId)
	return nil
}

// signAndWrap signs action and wraps it in the top-level request body
// spec.md §6 describes: `{action, nonce, signature, vaultAddress?}`.
func (e *Executor) signAndWrap(action string) (string, error) {
	nonceMs := time.Now().UnixMilli()

	params := hlsign.Params{
		ActionJSON:    action,
		NonceMs:       nonceMs,
		PrivateKeyHex: e.cfg.PrivateKey,
		IsMainnet:     e.cfg.Mainnet,
	}
	if e.cfg.VaultAddress != "" {
		params.ActivePoolJSON = e.cfg.VaultAddress
	}

	sig, err := e.signer.Sign(params)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(`{"action":`)
	b.WriteString(action)
	b.WriteString(`,"nonce":`)
	fmt.Fprintf(&b, "%d", nonceMs)
	if e.cfg.VaultAddress != "" {
		b.WriteString(`,"vaultAddress":"`)
		b.WriteString(e.cfg.VaultAddress)
		b.WriteString(`"`)
	}
	b.WriteString(`,"signature":{"r":"`)
	b.WriteString(sig.R)
	b.WriteString(`","s":"`)
	b.WriteString(sig.S)
	b.WriteString(`","v":`)
	fmt.Fprintf(&b, "%d", sig.V)
	b.WriteString(`}}`)
	return b.String(), nil
}

func orderActionObject(asset int, isBuy bool, px, sz, cloid string) string {
	return fmt.Sprintf(
		`{"a":%d,"b":%t,"p":"%s","s":"%s","r":false,"t":{"limit":{"tif":"Gtc"}},"c":"%s"}`,
		asset, isBuy, px, sz, cloid,
	)
}

// newCloid generates a 128-bit client order id rendered as `0x`+32 hex
// chars, per spec.md §4.9.
func newCloid() string {
	id := uuid.New()
	return "0x" + strings.ReplaceAll(id.String(), "-", "")
}
