package bybit

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

// Executor implements spec.md §4.9 for Bybit V5: builds the literal
// JSON bodies captured from bybit_order_executor.cpp, signs per §4.8,
// and parses the retCode/result envelope.
type Executor struct {
	cfg       config.BybitConfig
	endpoint  string
	pool      *transport.HTTPPool
	pipeline  *execution.Pipeline
	registry  *symbol.Registry
	tracker   ports.OrderTracker
	logger    ports.Logger
}

// NewExecutor wires an Executor against the shared HTTP pool, policy
// pipeline, symbol registry, and order tracker.
func NewExecutor(cfg config.BybitConfig, pool *transport.HTTPPool, pipeline *execution.Pipeline, registry *symbol.Registry, tracker ports.OrderTracker, logger ports.Logger) *Executor {
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

type bybitResponse struct {
	RetCode int                 `json:"retCode"`
	RetMsg  string              `json:"retMsg"`
	Result  jsoniter.RawMessage `json:"result"`
}

type bybitOrderResult struct {
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
		return fmt.Errorf("bybit: unknown symbol id %d", order.Symbol)
	}

	side := "Buy"
	if order.Side == model.SideSell {
		side = "Sell"
	}
	body := fmt.Sprintf(
		`{"category":"%s","symbol":"%s","side":"%s","orderType":"Limit","qty":"%s","price":"%s"}`,
		category(info.InstrumentType), info.Symbol, side, order.Quantity.String(), order.Price.String(),
	)

	e.pipeline.TrackStart(order.Id, model.OpSubmit)
	headers := e.sign(body)
	res := e.pool.Post(context.Background(), e.endpoint+"/v5/order/create", body, headers, 0)
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
		return fmt.Errorf("bybit: cancel_order: unknown order id %d", id)
	}
	info, ok := e.registry.GetInfo(state.LocalOrder.Symbol)
	if !ok {
		return fmt.Errorf("bybit: cancel_order: unknown symbol id %d", state.LocalOrder.Symbol)
	}

	body := fmt.Sprintf(
		`{"category":"%s","symbol":"%s","orderId":"%s"}`,
		category(info.InstrumentType), info.Symbol, state.ExchangeOrderId,
	)

	e.pipeline.TrackStart(id, model.OpCancel)
	headers := e.sign(body)
	res := e.pool.Post(context.Background(), e.endpoint+"/v5/order/cancel", body, headers, 0)
	e.pipeline.TrackDone(id)

	if res.Err != nil {
		if e.logger != nil {
			e.logger.Error("cancel_order failed", "orderId", id, "err", res.Err)
		}
		return res.Err
	}

	var resp bybitResponse
	if err := json.Unmarshal([]byte(res.Body), &resp); err != nil {
		return err
	}
	if resp.RetCode != 0 {
		if e.logger != nil {
			e.logger.Error("cancel_order rejected", "orderId", id, "retMsg", resp.RetMsg)
		}
		return fmt.Errorf("bybit: cancel rejected: %s", resp.RetMsg)
	}
	e.tracker.OnCanceled(id)
	return nil
}

// ReplaceOrder implements OrderExecutor.ReplaceOrder by amending the
// existing exchange order in place (qty/price only, per
// bybit_order_executor.cpp's amend body).
func (e *Executor) ReplaceOrder(oldId model.OrderId, newOrder model.Order) error {
	if !e.pipeline.Allow(oldId) {
		return nil
	}

	state, ok := e.tracker.Get(oldId)
	if !ok {
		return fmt.Errorf("bybit: replace_order: unknown order id %d", oldId)
	}
	info, ok := e.registry.GetInfo(newOrder.Symbol)
	if !ok {
		return fmt.Errorf("bybit: replace_order: unknown symbol id %d", newOrder.Symbol)
	}

	body := fmt.Sprintf(
		`{"category":"%s","symbol":"%s","orderId":"%s","qty":"%s","price":"%s"}`,
		category(info.InstrumentType), info.Symbol, state.ExchangeOrderId, newOrder.Quantity.String(), newOrder.Price.String(),
	)

	e.pipeline.TrackStart(oldId, model.OpReplace)
	headers := e.sign(body)
	res := e.pool.Post(context.Background(), e.endpoint+"/v5/order/amend", body, headers, 0)
	e.pipeline.TrackDone(oldId)

	if res.Err != nil {
		if e.logger != nil {
			e.logger.Error("replace_order failed", "orderId", oldId, "err", res.Err)
		}
		return res.Err
	}

	var resp bybitResponse
	if err := json.Unmarshal([]byte(res.Body), &resp); err != nil {
		return err
	}
	if resp.RetCode != 0 {
		if e.logger != nil {
			e.logger.Error("replace_order rejected", "orderId", oldId, "retMsg", resp.RetMsg)
		}
		return fmt.Errorf("bybit: amend rejected: %s", resp.RetMsg)
	}
	e.tracker.OnReplaced(oldId, newOrder, state.ExchangeOrderId, connector.NextClientOrderId(newOrder.Id))
	return nil
}

func (e *Executor) handleSubmitResponse(order model.Order, body string) error {
	var resp bybitResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return err
	}
	if resp.RetCode != 0 {
		if e.logger != nil {
			e.logger.Error("submit_order rejected", "orderId", order.Id, "retMsg", resp.RetMsg)
		}
		e.tracker.OnRejected(order.Id, resp.RetMsg)
		return nil
	}
	var result bybitOrderResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return err
	}
	e.tracker.OnSubmitted(order, result.OrderId, connector.NextClientOrderId(order.Id))
	return nil
}

func (e *Executor) sign(body string) map[string]string {
	h := signing.SignBybit(e.cfg.ApiKey, e.cfg.ApiSecret, time.Now().UnixMilli(), body)
	return h.ToHTTPHeaders()
}
