package bybit

import (
	"fmt"
	"strings"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/execution"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
)

// Connector implements internal/connector.Connector and OrderExecutor
// for Bybit V5: a single public websocket subscribing to all
// configured topics in one frame (spec.md §4.7) and, when
// enable_private is set, an authenticated REST executor against
// private_endpoint. It opens no private websocket and sends no auth
// login frame, so no OrderEvents come from a user channel.
type Connector struct {
	cfg      config.BybitConfig
	registry *symbol.Registry
	decoder  *Decoder
	ws       *transport.WSClient
	executor *Executor
	logger   ports.Logger
}

// Deps bundles the shared collaborators New wires into a Connector.
type Deps struct {
	Registry  *symbol.Registry
	BookBus   ports.BookUpdateBus
	TradeBus  ports.TradeBus
	Tracker   ports.OrderTracker
	Logger    ports.Logger
	BookPool  bookPool
	HTTPPool  *transport.HTTPPool
	Pipeline  *execution.Pipeline
}

// New builds a Bybit connector from cfg and its shared dependencies.
func New(cfg config.BybitConfig, deps Deps) *Connector {
	c := &Connector{cfg: cfg, registry: deps.Registry, logger: deps.Logger}

	c.decoder = NewDecoder("bybit", deps.Registry, deps.BookBus, deps.TradeBus, deps.BookPool, deps.Logger, func(sym string) model.InstrumentType {
		return symbolDefaultType(cfg, sym)
	})

	c.ws = transport.NewWSClient(transport.WSConfig{
		URL:              cfg.PublicEndpoint,
		ReconnectDelay:   time.Duration(cfg.ReconnectDelayMs) * time.Millisecond,
		PingIntervalSec:  0, // Bybit's own protocol-level ping/pong suffices
		HandshakeTimeout: 10 * time.Second,
	}, c.onOpen, c.onMessage, c.onClose, deps.Logger)

	if cfg.EnablePrivate && deps.HTTPPool != nil && deps.Pipeline != nil {
		c.executor = NewExecutor(cfg, deps.HTTPPool, deps.Pipeline, deps.Registry, deps.Tracker, deps.Logger)
	}

	return c
}

// ExchangeId implements connector.Connector.
func (c *Connector) ExchangeId() string { return "bybit" }

// Start implements connector.Connector.
func (c *Connector) Start() error {
	c.ws.Start()
	return nil
}

// Stop implements connector.Connector.
func (c *Connector) Stop() {
	c.ws.Stop()
}

// ResolveSymbolId implements connector.Connector.
func (c *Connector) ResolveSymbolId(venueSymbol string) model.SymbolId {
	return c.registry.Resolve("bybit", venueSymbol, symbolDefaultType(c.cfg, venueSymbol))
}

// SubmitOrder implements connector.OrderExecutor. Returns an error if
// this connector was not configured for private trading.
func (c *Connector) SubmitOrder(order model.Order) error {
	if c.executor == nil {
		return fmt.Errorf("bybit: private trading not enabled")
	}
	return c.executor.SubmitOrder(order)
}

// CancelOrder implements connector.OrderExecutor.
func (c *Connector) CancelOrder(id model.OrderId) error {
	if c.executor == nil {
		return fmt.Errorf("bybit: private trading not enabled")
	}
	return c.executor.CancelOrder(id)
}

// ReplaceOrder implements connector.OrderExecutor.
func (c *Connector) ReplaceOrder(oldId model.OrderId, newOrder model.Order) error {
	if c.executor == nil {
		return fmt.Errorf("bybit: private trading not enabled")
	}
	return c.executor.ReplaceOrder(oldId, newOrder)
}

func (c *Connector) onOpen() {
	topics := make([]string, 0, len(c.cfg.Symbols)*2)
	for _, s := range c.cfg.Symbols {
		depth := s.Depth
		if depth <= 0 {
			depth = 50
		}
		topics = append(topics, fmt.Sprintf(`"orderbook.%d.%s"`, depth, s.Name))
		topics = append(topics, fmt.Sprintf(`"publicTrade.%s"`, s.Name))
	}
	frame := fmt.Sprintf(`{"op":"subscribe","args":[%s]}`, strings.Join(topics, ","))
	if err := c.ws.Send(frame); err != nil && c.logger != nil {
		c.logger.Warn("bybit: subscribe frame send failed", "err", err)
	}
}

func (c *Connector) onMessage(payload string) {
	c.decoder.HandleMessage([]byte(payload))
}

func (c *Connector) onClose(code int, reason string) {
	if c.logger != nil {
		c.logger.Debug("bybit: websocket closed", "code", code, "reason", reason)
	}
}
