package bitget

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/connector"
	"github.com/flox-foundation/flox-connectors/internal/execution"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/signing"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
)

const (
	pathPlace  = "/api/v2/mix/order/place-order"
	pathCancel = "/api/v2/mix/order/cancel-order"
	pathModify = "/api/v2/mix/order/modify-order"
)

// Executor implements spec.md §4.9 for Bitget V2 mix orders, using the
// literal JSON bodies captured from bitget_order_executor.cpp.
type Executor struct {
	cfg      config.BitgetConfig
	endpoint string
	pool     *transport.HTTPPool
	pipeline *execution.Pipeline
	registry *symbol.Registry
	tracker  ports.OrderTracker
	logger   ports.Logger
}

// NewExecutor wires an Executor.
func NewExecutor(cfg config.BitgetConfig, pool *transport.HTTPPool, pipeline *execution.Pipeline, registry *symbol.Registry, tracker ports.OrderTracker, logger ports.Logger) *Executor {
	return &Executor{
		cfg:      cfg,
		endpoint: cfg.PrivateEndpoint,
		pool:     pool,
		pipeline: pipeline,
		registry: registry,
		tracker:  tracker,
		logger:   logger,
	}
}

type bitgetResponse struct {
	Code string              `json:"code"`
	Msg  string              `json:"msg"`
	Data jsoniter.RawMessage `json:"data"`
}

type bitgetOrderData struct {
	OrderId string `json:"orderId"`
}

// SubmitOrder implements OrderExecutor.SubmitOrder.
func (e *Executor) SubmitOrder(order model.Order) error {
	if !e.pipeline.Allow(order.Id) {
		return nil
	}

	info, ok := e.registry.GetInfo(order.Symbol)
	if !ok {
		if e.logger != nil {
			e.logger.Error("submit_order: unknown symbol id, dropping", "orderId", order.Id, "symbol", order.Symbol)
		}
		return fmt.Errorf("bitget: unknown symbol id %d", order.Symbol)
	}

	side := "buy"
	if order.Side == model.SideSell {
		side = "sell"
	}
	body := fmt.Sprintf(
		`{"symbol":"%s","productType":"%s","marginMode":"%s","marginCoin":"%s","size":"%s","price":"%s","side":"%s","tradeSide":"open","orderType":"limit","force":"%s","clientOid":"%s"}`,
		info.Symbol, e.cfg.ProductType, e.cfg.MarginMode, e.cfg.MarginCoin,
		order.Quantity.String(), order.Price.String(), side, e.cfg.ForcePolicy,
		connector.NextClientOrderId(order.Id),
	)

	e.pipeline.TrackStart(order.Id, model.OpSubmit)
	res := e.pool.Post(context.Background(), e.endpoint+pathPlace, body, e.sign("POST", pathPlace, body), 0)
	e.pipeline.TrackDone(order.Id)

	if res.Err != nil {
		if e.logger != nil {
			e.logger.Error("submit_order failed", "orderId", order.Id, "err", res.Err)
		}
		return res.Err
	}
	return e.handleSubmitResponse(order, res.Body)
}

// CancelOrder implements OrderExecutor.CancelOrder.
func (e *Executor) CancelOrder(id model.OrderId) error {
	if !e.pipeline.Allow(id) {
		return nil
	}

	state, ok := e.tracker.Get(id)
	if !ok {
		return fmt.Errorf("bitget: cancel_order: unknown order id %d", id)
	}
	info, ok := e.registry.GetInfo(state.LocalOrder.Symbol)
	if !ok {
		return fmt.Errorf("bitget: cancel_order: unknown symbol id %d", state.LocalOrder.Symbol)
	}

	idField := fmt.Sprintf(`"clientOid":"%s"`, connector.NextClientOrderId(id))
	if state.ExchangeOrderId != "" {
		idField = fmt.Sprintf(`"orderId":"%s"`, state.ExchangeOrderId)
	}
	body := fmt.Sprintf(
		`{"symbol":"%s","productType":"%s","marginCoin":"%s",%s}`,
		info.Symbol, e.cfg.ProductType, e.cfg.MarginCoin, idField,
	)

	e.pipeline.TrackStart(id, model.OpCancel)
	res := e.pool.Post(context.Background(), e.endpoint+pathCancel, body, e.sign("POST", pathCancel, body), 0)
	e.pipeline.TrackDone(id)

	if res.Err != nil {
		if e.logger != nil {
			e.logger.Error("cancel_order failed", "orderId", id, "err", res.Err)
		}
		return res.Err
	}

	var resp bitgetResponse
	if err := json.Unmarshal([]byte(res.Body), &resp); err != nil {
		return err
	}
	if resp.Code != "00000" {
		if e.logger != nil {
			e.logger.Error("cancel_order rejected", "orderId", id, "msg", resp.Msg)
		}
		return fmt.Errorf("bitget: cancel rejected: %s", resp.Msg)
	}
	e.tracker.OnCanceled(id)
	return nil
}

// ReplaceOrder implements OrderExecutor.ReplaceOrder.
func (e *Executor) ReplaceOrder(oldId model.OrderId, newOrder model.Order) error {
	if !e.pipeline.Allow(oldId) {
		return nil
	}

	state, ok := e.tracker.Get(oldId)
	if !ok {
		return fmt.Errorf("bitget: replace_order: unknown order id %d", oldId)
	}
	info, ok := e.registry.GetInfo(newOrder.Symbol)
	if !ok {
		return fmt.Errorf("bitget: replace_order: unknown symbol id %d", newOrder.Symbol)
	}

	body := fmt.Sprintf(
		`{"orderId":"%s","symbol":"%s","productType":"%s","marginCoin":"%s","newPrice":"%s","newSize":"%s","newClientOid":"%s"}`,
		state.ExchangeOrderId, info.Symbol, e.cfg.ProductType, e.cfg.MarginCoin,
		newOrder.Price.String(), newOrder.Quantity.String(), connector.NextClientOrderId(newOrder.Id),
	)

	e.pipeline.TrackStart(oldId, model.OpReplace)
	res := e.pool.Post(context.Background(), e.endpoint+pathModify, body, e.sign("POST", pathModify, body), 0)
	e.pipeline.TrackDone(oldId)

	if res.Err != nil {
		if e.logger != nil {
			e.logger.Error("replace_order failed", "orderId", oldId, "err", res.Err)
		}
		return res.Err
	}

	var resp bitgetResponse
	if err := json.Unmarshal([]byte(res.Body), &resp); err != nil {
		return err
	}
	if resp.Code != "00000" {
		if e.logger != nil {
			e.logger.Error("replace_order rejected", "orderId", oldId, "msg", resp.Msg)
		}
		return fmt.Errorf("bitget: modify rejected: %s", resp.Msg)
	}
	e.tracker.OnReplaced(oldId, newOrder, state.ExchangeOrderId, connector.NextClientOrderId(newOrder.Id))
	return nil
}

func (e *Executor) handleSubmitResponse(order model.Order, body string) error {
	var resp bitgetResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return err
	}
	if resp.Code != "00000" {
		if e.logger != nil {
			e.logger.Error("submit_order rejected", "orderId", order.Id, "msg", resp.Msg)
		}
		e.tracker.OnRejected(order.Id, resp.Msg)
		return nil
	}
	var data bitgetOrderData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return err
	}
	e.tracker.OnSubmitted(order, data.OrderId, connector.NextClientOrderId(order.Id))
	return nil
}

func (e *Executor) sign(method, path, body string) map[string]string {
	h := signing.SignBitget(e.cfg.ApiKey, e.cfg.ApiSecret, e.cfg.Passphrase, time.Now().UnixMilli(), method, path, body)
	return h.ToHTTPHeaders()
}
