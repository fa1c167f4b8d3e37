package transport

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/pkg/syncgroup"
)

// WSState is one node of the Stopped -> Connecting -> Open <->
// Reconnecting -> Stopped state machine of spec.md §4.4.
type WSState int32

const (
	WSStopped WSState = iota
	WSConnecting
	WSOpen
	WSReconnecting
)

// WSConfig configures a WSClient's connect loop.
type WSConfig struct {
	URL              string
	Origin           string
	UserAgent        string
	PingIntervalSec  int // >0: protocol ping every N seconds; <=0: disabled
	ReconnectDelay   time.Duration
	HandshakeTimeout time.Duration
}

// WSClient is a managed, reconnecting websocket session. All three
// callbacks run synchronously on the receive goroutine and must not
// block; per spec.md §4.4, publishing to an event bus from inside them
// must be bounded or lock-free.
type WSClient struct {
	cfg       WSConfig
	onOpen    func()
	onMessage func(payload string)
	onClose   func(code int, reason string)
	logger    ports.Logger

	running int32
	state   int32

	connMu sync.Mutex
	conn   *websocket.Conn

	sendMu sync.Mutex

	sg *syncgroup.SyncGroup
}

// NewWSClient builds a client around the given callbacks. logger may
// be nil.
func NewWSClient(cfg WSConfig, onOpen func(), onMessage func(string), onClose func(int, string), logger ports.Logger) *WSClient {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = time.Second
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	return &WSClient{
		cfg:       cfg,
		onOpen:    onOpen,
		onMessage: onMessage,
		onClose:   onClose,
		logger:    logger,
		sg:        syncgroup.New(logger),
	}
}

// State reports the current node of the connection state machine.
func (c *WSClient) State() WSState {
	return WSState(atomic.LoadInt32(&c.state))
}

func (c *WSClient) setState(s WSState) { atomic.StoreInt32(&c.state, int32(s)) }

// Start sets running=true and spawns the receive goroutine that owns
// the connect loop. Start is idempotent; calling it while already
// running is a no-op.
func (c *WSClient) Start() {
	if !atomic.CompareAndSwapInt32(&c.running, 0, 1) {
		return
	}
	c.setState(WSConnecting)
	c.sg.Go("connect-loop", c.connectLoop)
}

// Stop clears running, closes the socket to unblock any pending read,
// and joins the receive goroutine. Stop is idempotent and blocks until
// the receive goroutine has fully exited, per spec.md §5's shutdown
// ordering.
func (c *WSClient) Stop() {
	if !atomic.CompareAndSwapInt32(&c.running, 1, 0) {
		return
	}
	c.connMu.Lock()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.connMu.Unlock()
	c.sg.WaitAndClear()
	c.setState(WSStopped)
}

// Send serializes writes to the socket behind a single mutex, per
// spec.md §4.4's "Send is thread-safe" requirement.
func (c *WSClient) Send(data string) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return websocket.ErrCloseSent
	}
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	return conn.WriteMessage(websocket.TextMessage, []byte(data))
}

func (c *WSClient) isRunning() bool { return atomic.LoadInt32(&c.running) == 1 }

// connectLoop is the receive goroutine body: dial, dispatch callbacks
// synchronously as frames arrive, and on disconnect sleep
// ReconnectDelay and retry while running.
func (c *WSClient) connectLoop() {
	for c.isRunning() {
		c.setState(WSConnecting)

		header := http.Header{}
		if c.cfg.Origin != "" {
			header.Set("Origin", c.cfg.Origin)
		}
		if c.cfg.UserAgent != "" {
			header.Set("User-Agent", c.cfg.UserAgent)
		}
		dialer := &websocket.Dialer{
			HandshakeTimeout: c.cfg.HandshakeTimeout,
			EnableCompression: false, // per-message-deflate disabled
		}
		conn, _, err := dialer.Dial(c.cfg.URL, header)
		if err != nil {
			c.logWarn("dial failed", err)
			c.sleepCancelable(c.cfg.ReconnectDelay)
			continue
		}

		c.connMu.Lock()
		c.conn = conn
		c.connMu.Unlock()
		c.setState(WSOpen)
		c.configurePing(conn)

		if c.onOpen != nil {
			c.onOpen()
		}

		code, reason := c.readLoop(conn)

		c.connMu.Lock()
		c.conn = nil
		c.connMu.Unlock()

		if c.onClose != nil {
			c.onClose(code, reason)
		}

		if !c.isRunning() {
			return
		}
		c.setState(WSReconnecting)
		c.sleepCancelable(c.cfg.ReconnectDelay)
	}
}

// configurePing sets the protocol-level ping interval. A non-positive
// PingIntervalSec leaves protocol pings disabled so the caller can run
// its own application-level heartbeat (spec.md §4.6).
func (c *WSClient) configurePing(conn *websocket.Conn) {
	if c.cfg.PingIntervalSec <= 0 {
		return
	}
	interval := time.Duration(c.cfg.PingIntervalSec) * time.Second
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * interval))
	})
	_ = conn.SetReadDeadline(time.Now().Add(2 * interval))

	c.sg.Go("protocol-ping-loop", func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if !c.isRunning() {
				return
			}
			c.connMu.Lock()
			cur := c.conn
			c.connMu.Unlock()
			if cur != conn {
				return
			}
			c.sendMu.Lock()
			err := conn.WriteMessage(websocket.PingMessage, nil)
			c.sendMu.Unlock()
			if err != nil {
				return
			}
			<-ticker.C
		}
	})
}

// readLoop invokes onMessage synchronously for each text frame until
// the connection closes or errors, returning the close code/reason.
func (c *WSClient) readLoop(conn *websocket.Conn) (code int, reason string) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ce, ok := err.(*websocket.CloseError); ok {
				return ce.Code, ce.Text
			}
			return websocket.CloseAbnormalClosure, err.Error()
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if c.onMessage != nil {
			c.onMessage(string(data))
		}
	}
}

// sleepCancelable sleeps in short chunks so Stop() takes effect
// promptly instead of waiting out a full reconnect delay.
func (c *WSClient) sleepCancelable(d time.Duration) {
	const step = 50 * time.Millisecond
	for slept := time.Duration(0); slept < d; slept += step {
		if !c.isRunning() {
			return
		}
		time.Sleep(step)
	}
}

func (c *WSClient) logWarn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, "error", err.Error(), "url", c.cfg.URL)
	}
}
