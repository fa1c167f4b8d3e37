package polymarket

import (
	"fmt"

	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/numeric"
	"github.com/flox-foundation/flox-connectors/internal/polymarketffi"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
)

// orderEngine is the narrow slice of internal/polymarketffi an Executor
// needs. Tests substitute a fake so they don't require the real
// cdylib to be linked in, the same seam hlsign.Signer gives the
// Hyperliquid executor.
type orderEngine interface {
	LimitBuy(tokenId string, price numeric.Price, usdcAmount numeric.Volume) polymarketffi.OrderResult
	LimitSell(tokenId string, price numeric.Price, size numeric.Quantity) polymarketffi.OrderResult
	Cancel(orderId string) error
}

// liveOrderEngine calls straight through to internal/polymarketffi.
type liveOrderEngine struct{}

func (liveOrderEngine) LimitBuy(tokenId string, price numeric.Price, usdcAmount numeric.Volume) polymarketffi.OrderResult {
	return polymarketffi.LimitBuy(tokenId, price, usdcAmount)
}

func (liveOrderEngine) LimitSell(tokenId string, price numeric.Price, size numeric.Quantity) polymarketffi.OrderResult {
	return polymarketffi.LimitSell(tokenId, price, size)
}

func (liveOrderEngine) Cancel(orderId string) error {
	return polymarketffi.Cancel(orderId)
}

// Executor implements OrderExecutor for Polymarket by calling directly
// into internal/polymarketffi (spec.md §4.10) rather than signing REST
// requests: Polymarket's order engine, including EIP-712 signing and
// CLOB auth, lives out-of-process behind that C ABI.
//
// The FFI surface has no "modify" primitive, so ReplaceOrder is
// synthesized as cancel-then-resubmit; see DESIGN.md.
type Executor struct {
	registry *symbol.Registry
	tracker  ports.OrderTracker
	logger   ports.Logger
	engine   orderEngine
}

// NewExecutor wires an Executor against the real FFI boundary. Callers
// must have already called polymarketffi.Init (New does this when
// Deps.EnableTrading is set).
func NewExecutor(registry *symbol.Registry, tracker ports.OrderTracker, logger ports.Logger) *Executor {
	return newExecutorWithEngine(registry, tracker, logger, liveOrderEngine{})
}

func newExecutorWithEngine(registry *symbol.Registry, tracker ports.OrderTracker, logger ports.Logger, engine orderEngine) *Executor {
	return &Executor{registry: registry, tracker: tracker, logger: logger, engine: engine}
}

// SubmitOrder implements OrderExecutor.SubmitOrder as a GTC limit
// order. Buy orders spend order.Price*order.Quantity USDC (the FFI's
// limit_buy takes a USDC amount, not a share count); sell orders sell
// order.Quantity shares directly.
func (e *Executor) SubmitOrder(order model.Order) error {
	info, ok := e.registry.GetInfo(order.Symbol)
	if !ok {
		if e.logger != nil {
			e.logger.Error("submit_order: unknown symbol id, dropping", "orderId", order.Id, "symbol", order.Symbol)
		}
		return fmt.Errorf("polymarket: unknown symbol id %d", order.Symbol)
	}
	tokenId := info.Symbol

	res := e.place(order.Side, tokenId, order.Price, order.Quantity)

	if !res.Success {
		if e.logger != nil {
			e.logger.Error("submit_order rejected", "orderId", order.Id, "errorCode", res.ErrorCode, "reason", polymarketffi.ErrorMessage(res.ErrorCode))
		}
		e.tracker.OnRejected(order.Id, polymarketffi.ErrorMessage(res.ErrorCode))
		return fmt.Errorf("polymarket: submit_order: %s", polymarketffi.ErrorMessage(res.ErrorCode))
	}

	e.tracker.OnSubmitted(order, res.OrderId, "")
	return nil
}

// CancelOrder implements OrderExecutor.CancelOrder, canceling by the
// exchange order id the FFI returned at submission time.
func (e *Executor) CancelOrder(id model.OrderId) error {
	state, ok := e.tracker.Get(id)
	if !ok {
		return fmt.Errorf("polymarket: cancel_order: unknown order id %d", id)
	}
	if state.ExchangeOrderId == "" {
		return fmt.Errorf("polymarket: cancel_order: no exchangeOrderId for order id %d", id)
	}

	if err := e.engine.Cancel(state.ExchangeOrderId); err != nil {
		if e.logger != nil {
			e.logger.Error("cancel_order failed", "orderId", id, "err", err)
		}
		return err
	}
	e.tracker.OnCanceled(id)
	return nil
}

// ReplaceOrder implements OrderExecutor.ReplaceOrder. Polymarket's FFI
// has no atomic modify call, so this cancels the existing order and
// submits newOrder in its place.
func (e *Executor) ReplaceOrder(oldId model.OrderId, newOrder model.Order) error {
	state, ok := e.tracker.Get(oldId)
	if !ok {
		return fmt.Errorf("polymarket: replace_order: unknown order id %d", oldId)
	}
	if state.ExchangeOrderId != "" {
		if err := e.engine.Cancel(state.ExchangeOrderId); err != nil {
			if e.logger != nil {
				e.logger.Error("replace_order: cancel leg failed", "orderId", oldId, "err", err)
			}
			return err
		}
	}

	info, ok := e.registry.GetInfo(newOrder.Symbol)
	if !ok {
		return fmt.Errorf("polymarket: replace_order: unknown symbol id %d", newOrder.Symbol)
	}
	tokenId := info.Symbol

	res := e.place(newOrder.Side, tokenId, newOrder.Price, newOrder.Quantity)

	if !res.Success {
		if e.logger != nil {
			e.logger.Error("replace_order: resubmit leg failed", "orderId", oldId, "errorCode", res.ErrorCode)
		}
		return fmt.Errorf("polymarket: replace_order: %s", polymarketffi.ErrorMessage(res.ErrorCode))
	}

	e.tracker.OnReplaced(oldId, newOrder, res.OrderId, "")
	return nil
}

func (e *Executor) place(side model.Side, tokenId string, price numeric.Price, quantity numeric.Quantity) polymarketffi.OrderResult {
	if side == model.SideBuy {
		usdcAmount := numeric.VolumeFromDouble(price.ToDouble() * quantity.ToDouble())
		return e.engine.LimitBuy(tokenId, price, usdcAmount)
	}
	return e.engine.LimitSell(tokenId, price, quantity)
}
