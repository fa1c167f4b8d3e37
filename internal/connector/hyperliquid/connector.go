package hyperliquid

import (
	"fmt"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	hlsign "github.com/flox-foundation/flox-connectors/internal/signing/hyperliquid"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
	"github.com/flox-foundation/flox-connectors/pkg/syncgroup"
)

// Connector implements internal/connector.Connector and OrderExecutor
// for Hyperliquid: a single public websocket, batched subscribes on
// open (spec.md §4.7), an application-level 30s ping loop, and a REST
// executor signing through the out-of-process daemon.
type Connector struct {
	cfg      config.HyperliquidConfig
	registry *symbol.Registry
	decoder  *Decoder
	ws       *transport.WSClient
	executor *Executor
	logger   ports.Logger
	sg       *syncgroup.SyncGroup
}

// Deps bundles the shared collaborators New wires into a Connector.
type Deps struct {
	Registry *symbol.Registry
	BookBus  ports.BookUpdateBus
	TradeBus ports.TradeBus
	Tracker  ports.OrderTracker
	Logger   ports.Logger
	BookPool bookPool
	HTTPPool *transport.HTTPPool
	Signer   hlsign.Signer // normally *hlsign.DaemonSigner
}

// New builds a Hyperliquid connector from cfg and its shared
// dependencies.
func New(cfg config.HyperliquidConfig, deps Deps) *Connector {
	c := &Connector{cfg: cfg, registry: deps.Registry, logger: deps.Logger, sg: syncgroup.New(deps.Logger)}

	c.decoder = NewDecoder("hyperliquid", deps.Registry, deps.BookBus, deps.TradeBus, deps.BookPool, deps.Logger)

	c.ws = transport.NewWSClient(transport.WSConfig{
		URL:              cfg.WsEndpoint,
		Origin:           Origin,
		ReconnectDelay:   time.Duration(cfg.ReconnectDelayMs) * time.Millisecond,
		PingIntervalSec:  0, // application-level {"method":"ping"} heartbeat instead
		HandshakeTimeout: 10 * time.Second,
	}, c.onOpen, c.onMessage, c.onClose, deps.Logger)

	if deps.HTTPPool != nil && deps.Signer != nil {
		c.executor = NewExecutor(cfg, deps.HTTPPool, deps.Signer, deps.Registry, deps.Tracker, deps.Logger)
	}

	return c
}

// ExchangeId implements connector.Connector.
func (c *Connector) ExchangeId() string { return "hyperliquid" }

// Start implements connector.Connector.
func (c *Connector) Start() error {
	c.ws.Start()
	c.sg.Go("ping-loop", c.pingLoop)
	return nil
}

// Stop implements connector.Connector.
func (c *Connector) Stop() {
	c.ws.Stop()
	c.sg.Wait()
}

// ResolveSymbolId implements connector.Connector.
func (c *Connector) ResolveSymbolId(venueSymbol string) model.SymbolId {
	return c.registry.Resolve("hyperliquid", venueSymbol, DefaultInstrumentType)
}

// SubmitOrder implements connector.OrderExecutor.
func (c *Connector) SubmitOrder(order model.Order) error {
	if c.executor == nil {
		return fmt.Errorf("hyperliquid: private trading not enabled")
	}
	return c.executor.SubmitOrder(order)
}

// CancelOrder implements connector.OrderExecutor.
func (c *Connector) CancelOrder(id model.OrderId) error {
	if c.executor == nil {
		return fmt.Errorf("hyperliquid: private trading not enabled")
	}
	return c.executor.CancelOrder(id)
}

// ReplaceOrder implements connector.OrderExecutor.
func (c *Connector) ReplaceOrder(oldId model.OrderId, newOrder model.Order) error {
	if c.executor == nil {
		return fmt.Errorf("hyperliquid: private trading not enabled")
	}
	return c.executor.ReplaceOrder(oldId, newOrder)
}

// pingLoop sends the literal `{"method":"ping"}` frame every
// PingInterval seconds, per spec.md §4.6, sleeping in short cancelable
// chunks so Stop() isn't blocked waiting on a long sleep.
func (c *Connector) pingLoop() {
	const chunk = 100 * time.Millisecond
	elapsed := time.Duration(0)
	for c.ws.State() != transport.WSStopped {
		time.Sleep(chunk)
		elapsed += chunk
		if elapsed < PingInterval*time.Second {
			continue
		}
		elapsed = 0
		if c.ws.State() == transport.WSStopped {
			return
		}
		if err := c.ws.Send(`{"method":"ping"}`); err != nil && c.logger != nil {
			c.logger.Warn("hyperliquid: ping send failed", "err", err)
		}
	}
}

// onOpen subscribes in batches of SubscribeBatchSize symbols (2
// messages per symbol: l2Book + trades), sleeping
// SubscribeBatchDelayMs between batches, per spec.md §4.7.
func (c *Connector) onOpen() {
	c.sg.Go("subscribe-batches", func() {
		for i := 0; i < len(c.cfg.Symbols); i += SubscribeBatchSize {
			end := i + SubscribeBatchSize
			if end > len(c.cfg.Symbols) {
				end = len(c.cfg.Symbols)
			}
			for _, coin := range c.cfg.Symbols[i:end] {
				c.sendSubscribe("l2Book", coin)
				c.sendSubscribe("trades", coin)
			}
			if end < len(c.cfg.Symbols) {
				time.Sleep(SubscribeBatchDelayMs * time.Millisecond)
			}
		}
	})
}

func (c *Connector) sendSubscribe(kind, coin string) {
	frame := fmt.Sprintf(`{"method":"subscribe","subscription":{"type":"%s","coin":"%s"}}`, kind, coin)
	if err := c.ws.Send(frame); err != nil && c.logger != nil {
		c.logger.Warn("hyperliquid: subscribe send failed", "err", err, "coin", coin)
	}
}

func (c *Connector) onMessage(payload string) {
	c.decoder.HandleMessage([]byte(payload))
}

func (c *Connector) onClose(code int, reason string) {
	if c.logger != nil {
		c.logger.Debug("hyperliquid: websocket closed", "code", code, "reason", reason)
	}
}
