package polymarket

import (
	"fmt"
	"strings"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/polymarketffi"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
)

// Connector implements internal/connector.Connector and OrderExecutor
// for Polymarket: a single market-data websocket subscribing to all
// configured token ids in one frame, relying on the websocket
// transport's native ping (spec.md's Polymarket row carries
// ping_interval_sec, unlike the other venues' application-level
// heartbeat), and an Executor that calls out to the FFI boundary
// rather than signing REST requests itself.
type Connector struct {
	cfg      config.PolymarketConfig
	registry *symbol.Registry
	decoder  *Decoder
	ws       *transport.WSClient
	executor *Executor
	logger   ports.Logger
}

// Deps bundles the shared collaborators New wires into a Connector.
type Deps struct {
	Registry *symbol.Registry
	BookBus  ports.BookUpdateBus
	TradeBus ports.TradeBus
	Tracker  ports.OrderTracker
	Logger   ports.Logger
	BookPool bookPool
	// EnableTrading, when true, has New call polymarketffi.Init with
	// cfg.PrivateKey/FunderWallet and wire an Executor. Left false for
	// market-data-only deployments, since polymarketffi.Init is a
	// process-wide, one-shot call.
	EnableTrading bool
}

// New builds a Polymarket connector from cfg and its shared
// dependencies.
func New(cfg config.PolymarketConfig, deps Deps) *Connector {
	c := &Connector{cfg: cfg, registry: deps.Registry, logger: deps.Logger}

	c.decoder = NewDecoder("polymarket", deps.Registry, deps.BookBus, deps.TradeBus, deps.BookPool, deps.Logger)

	c.ws = transport.NewWSClient(transport.WSConfig{
		URL:              cfg.WsEndpoint,
		Origin:           Origin,
		ReconnectDelay:   time.Duration(cfg.ReconnectDelayMs) * time.Millisecond,
		PingIntervalSec:  cfg.PingIntervalSec,
		HandshakeTimeout: 10 * time.Second,
	}, c.onOpen, c.onMessage, c.onClose, deps.Logger)

	if deps.EnableTrading {
		if err := polymarketffi.Init(cfg.PrivateKey, cfg.FunderWallet); err != nil {
			if deps.Logger != nil {
				deps.Logger.Error("polymarket: ffi init failed", "err", err)
			}
		} else {
			c.executor = NewExecutor(deps.Registry, deps.Tracker, deps.Logger)
		}
	}

	return c
}

// ExchangeId implements connector.Connector.
func (c *Connector) ExchangeId() string { return "polymarket" }

// Start implements connector.Connector.
func (c *Connector) Start() error {
	c.ws.Start()
	return nil
}

// Stop implements connector.Connector. Shuts down the FFI executor
// (if wired) after the websocket joins.
func (c *Connector) Stop() {
	c.ws.Stop()
	if c.executor != nil {
		polymarketffi.Shutdown()
	}
}

// ResolveSymbolId implements connector.Connector.
func (c *Connector) ResolveSymbolId(venueSymbol string) model.SymbolId {
	return c.registry.Resolve("polymarket", venueSymbol, DefaultInstrumentType)
}

// SubmitOrder implements connector.OrderExecutor.
func (c *Connector) SubmitOrder(order model.Order) error {
	if c.executor == nil {
		return fmt.Errorf("polymarket: private trading not enabled")
	}
	return c.executor.SubmitOrder(order)
}

// CancelOrder implements connector.OrderExecutor.
func (c *Connector) CancelOrder(id model.OrderId) error {
	if c.executor == nil {
		return fmt.Errorf("polymarket: private trading not enabled")
	}
	return c.executor.CancelOrder(id)
}

// ReplaceOrder implements connector.OrderExecutor.
func (c *Connector) ReplaceOrder(oldId model.OrderId, newOrder model.Order) error {
	if c.executor == nil {
		return fmt.Errorf("polymarket: private trading not enabled")
	}
	return c.executor.ReplaceOrder(oldId, newOrder)
}

// onOpen subscribes to every configured token id in one frame, per
// spec.md's literal `{"assets_ids":[...],"type":"market","operation":"subscribe"}`.
func (c *Connector) onOpen() {
	if len(c.cfg.TokenIds) == 0 {
		return
	}
	quoted := make([]string, len(c.cfg.TokenIds))
	for i, id := range c.cfg.TokenIds {
		quoted[i] = `"` + id + `"`
	}
	frame := fmt.Sprintf(`{"assets_ids":[%s],"type":"market","operation":"subscribe"}`, strings.Join(quoted, ","))
	if err := c.ws.Send(frame); err != nil && c.logger != nil {
		c.logger.Warn("polymarket: subscribe frame send failed", "err", err)
	}
}

func (c *Connector) onMessage(payload string) {
	c.decoder.HandleMessage([]byte(payload))
}

func (c *Connector) onClose(code int, reason string) {
	if c.logger != nil {
		c.logger.Debug("polymarket: websocket closed", "code", code, "reason", reason)
	}
}
