package bitget

import (
	"fmt"
	"strings"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/execution"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/signing"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
	"github.com/flox-foundation/flox-connectors/pkg/syncgroup"
)

// Connector implements internal/connector.Connector and OrderExecutor
// for Bitget V2: a public websocket (batched subscribe per spec.md
// §4.7), an optional private websocket that logs in on open, and a
// literal "ping" heartbeat on both sockets since Bitget's heartbeat is
// application-level rather than protocol-level (spec.md §4.6).
type Connector struct {
	cfg      config.BitgetConfig
	registry *symbol.Registry
	decoder  *Decoder
	public   *transport.WSClient
	private  *transport.WSClient
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
	Pipeline *execution.Pipeline
}

// New builds a Bitget connector from cfg and its shared dependencies.
func New(cfg config.BitgetConfig, deps Deps) *Connector {
	c := &Connector{cfg: cfg, registry: deps.Registry, logger: deps.Logger, sg: syncgroup.New(deps.Logger)}

	c.decoder = NewDecoder("bitget", deps.Registry, deps.BookBus, deps.TradeBus, deps.BookPool, deps.Logger, func(sym string) model.InstrumentType {
		return symbolDefaultType(cfg, sym)
	})

	c.public = transport.NewWSClient(transport.WSConfig{
		URL:              cfg.PublicEndpoint,
		Origin:           Origin,
		UserAgent:        UserAgent,
		ReconnectDelay:   time.Duration(cfg.ReconnectDelayMs) * time.Millisecond,
		PingIntervalSec:  0, // literal "ping" text frame, not a protocol ping
		HandshakeTimeout: 10 * time.Second,
	}, c.onPublicOpen, c.onMessage, c.onClose, deps.Logger)

	if cfg.EnablePrivate {
		c.private = transport.NewWSClient(transport.WSConfig{
			URL:              cfg.PrivateEndpoint,
			Origin:           Origin,
			UserAgent:        UserAgent,
			ReconnectDelay:   time.Duration(cfg.ReconnectDelayMs) * time.Millisecond,
			PingIntervalSec:  0,
			HandshakeTimeout: 10 * time.Second,
		}, c.onPrivateOpen, c.onMessage, c.onClose, deps.Logger)

		if deps.HTTPPool != nil && deps.Pipeline != nil {
			c.executor = NewExecutor(cfg, deps.HTTPPool, deps.Pipeline, deps.Registry, deps.Tracker, deps.Logger)
		}
	}

	return c
}

// ExchangeId implements connector.Connector.
func (c *Connector) ExchangeId() string { return "bitget" }

// Start implements connector.Connector.
func (c *Connector) Start() error {
	c.public.Start()
	c.sg.Go("ping-loop-public", func() { c.pingLoop(c.public) })
	if c.private != nil {
		c.private.Start()
		c.sg.Go("ping-loop-private", func() { c.pingLoop(c.private) })
	}
	return nil
}

// Stop implements connector.Connector.
func (c *Connector) Stop() {
	c.public.Stop()
	if c.private != nil {
		c.private.Stop()
	}
	c.sg.Wait()
}

// ResolveSymbolId implements connector.Connector.
func (c *Connector) ResolveSymbolId(venueSymbol string) model.SymbolId {
	return c.registry.Resolve("bitget", venueSymbol, symbolDefaultType(c.cfg, venueSymbol))
}

// SubmitOrder implements connector.OrderExecutor.
func (c *Connector) SubmitOrder(order model.Order) error {
	if c.executor == nil {
		return fmt.Errorf("bitget: private trading not enabled")
	}
	return c.executor.SubmitOrder(order)
}

// CancelOrder implements connector.OrderExecutor.
func (c *Connector) CancelOrder(id model.OrderId) error {
	if c.executor == nil {
		return fmt.Errorf("bitget: private trading not enabled")
	}
	return c.executor.CancelOrder(id)
}

// ReplaceOrder implements connector.OrderExecutor.
func (c *Connector) ReplaceOrder(oldId model.OrderId, newOrder model.Order) error {
	if c.executor == nil {
		return fmt.Errorf("bitget: private trading not enabled")
	}
	return c.executor.ReplaceOrder(oldId, newOrder)
}

// pingLoop sends the literal text "ping" every PingInterval seconds
// until ws stops; Bitget replies with a literal "pong" text frame
// which the decoder drops (scenario S2). It sleeps in short cancelable
// chunks, per spec.md §4.6, so Stop() isn't blocked waiting on a long
// sleep before it notices ws has stopped.
func (c *Connector) pingLoop(ws *transport.WSClient) {
	const chunk = 100 * time.Millisecond
	elapsed := time.Duration(0)
	for ws.State() != transport.WSStopped {
		time.Sleep(chunk)
		elapsed += chunk
		if elapsed < PingInterval*time.Second {
			continue
		}
		elapsed = 0
		if ws.State() == transport.WSStopped {
			return
		}
		if err := ws.Send("ping"); err != nil && c.logger != nil {
			c.logger.Warn("bitget: ping send failed", "err", err)
		}
	}
}

func (c *Connector) onPublicOpen() {
	args := make([]string, 0, len(c.cfg.Symbols)*2)
	for _, s := range c.cfg.Symbols {
		instType := wsInstType(symbolDefaultType(c.cfg, s.Name))
		args = append(args, fmt.Sprintf(`{"instType":"%s","channel":"%s","instId":"%s"}`, instType, bookChannel(s.Depth), s.Name))
		args = append(args, fmt.Sprintf(`{"instType":"%s","channel":"trade","instId":"%s"}`, instType, s.Name))
	}
	c.sendBatched(c.public, args)
}

func (c *Connector) onPrivateOpen() {
	login := signing.SignBitgetWSLogin(c.cfg.ApiKey, c.cfg.ApiSecret, c.cfg.Passphrase, time.Now().UnixMilli())
	frame := fmt.Sprintf(
		`{"op":"login","args":[{"apiKey":"%s","passphrase":"%s","timestamp":"%s","sign":"%s"}]}`,
		login.ApiKey, login.Passphrase, login.Timestamp, login.Sign,
	)
	if err := c.private.Send(frame); err != nil && c.logger != nil {
		c.logger.Warn("bitget: private login send failed", "err", err)
	}
}

// sendBatched splits args into subscribeBatchSize-sized subscribe
// frames per spec.md §4.7.
func (c *Connector) sendBatched(ws *transport.WSClient, args []string) {
	for i := 0; i < len(args); i += subscribeBatchSize {
		end := i + subscribeBatchSize
		if end > len(args) {
			end = len(args)
		}
		frame := fmt.Sprintf(`{"op":"subscribe","args":[%s]}`, strings.Join(args[i:end], ","))
		if err := ws.Send(frame); err != nil && c.logger != nil {
			c.logger.Warn("bitget: subscribe frame send failed", "err", err)
		}
	}
}

func (c *Connector) onMessage(payload string) {
	c.decoder.HandleMessage([]byte(payload))
}

func (c *Connector) onClose(code int, reason string) {
	if c.logger != nil {
		c.logger.Debug("bitget: websocket closed", "code", code, "reason", reason)
	}
}
