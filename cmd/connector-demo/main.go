// connector-demo wires one venue connector (Bybit) end to end against
// a real config file, printing book updates and trades to stdout until
// interrupted. It stands in for the embedding application: the bus,
// tracker and logger implementations here are the minimum needed to
// demonstrate the connector, not a production event pipeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/flox-foundation/flox-connectors/internal/config"
	"github.com/flox-foundation/flox-connectors/internal/connector/bybit"
	"github.com/flox-foundation/flox-connectors/internal/model"
	"github.com/flox-foundation/flox-connectors/internal/pool"
	"github.com/flox-foundation/flox-connectors/internal/ports"
	"github.com/flox-foundation/flox-connectors/internal/symbol"
	"github.com/flox-foundation/flox-connectors/internal/transport"
	"github.com/flox-foundation/flox-connectors/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the connectors config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Bybit == nil {
		log.Fatalf("config has no [bybit] section")
	}

	if err := logger.Init(logger.Config{Level: cfg.Logging.Level, OutputFile: cfg.Logging.OutputFile}); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	log := logger.Component("connector-demo")

	registry := symbol.New()
	bookBus := &printingBookBus{log: log}
	tradeBus := &printingTradeBus{log: log}
	httpPool := transport.NewHTTPPool(transport.HTTPPoolConfig{
		InitialSize:    cfg.HTTPPool.InitialSize,
		MaxSize:        cfg.HTTPPool.MaxSize,
		AcquireTimeout: time.Duration(cfg.HTTPPool.AcquireTimeoutMs) * time.Millisecond,
		ConnectTimeout: time.Duration(cfg.HTTPPool.ConnectTimeoutMs) * time.Millisecond,
		RequestTimeout: time.Duration(cfg.HTTPPool.RequestTimeoutMs) * time.Millisecond,
	})

	conn := bybit.New(*cfg.Bybit, bybit.Deps{
		Registry: registry,
		BookBus:  bookBus,
		TradeBus: tradeBus,
		Tracker:  newMemoryTracker(),
		Logger:   log,
		BookPool: pool.New(1024),
		HTTPPool: httpPool,
	})

	if err := conn.Start(); err != nil {
		log.Error("start failed", "err", err)
		os.Exit(1)
	}
	fmt.Printf("connector-demo: %s started, Ctrl-C to stop\n", conn.ExchangeId())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("connector-demo: shutting down")
	conn.Stop()
}

// printingBookBus logs every book update it receives.
type printingBookBus struct {
	log ports.Logger
}

func (b *printingBookBus) Publish(ev *model.BookUpdateEvent) {
	b.log.Info("book update", "symbol", ev.Symbol, "type", ev.Type, "bids", len(ev.Bids), "asks", len(ev.Asks))
}

// printingTradeBus logs every trade print it receives.
type printingTradeBus struct {
	log ports.Logger
}

func (b *printingTradeBus) Publish(ev model.TradeEvent) {
	b.log.Info("trade", "symbol", ev.Symbol, "price", ev.Price.String(), "qty", ev.Quantity.String(), "isBuy", ev.IsBuy)
}

// memoryTracker is a minimal, goroutine-safe ports.OrderTracker
// sufficient to drive the demo's executor calls; a real deployment
// backs this with persistent storage.
type memoryTracker struct {
	mu     sync.Mutex
	states map[model.OrderId]ports.OrderState
}

func newMemoryTracker() *memoryTracker {
	return &memoryTracker{states: map[model.OrderId]ports.OrderState{}}
}

func (t *memoryTracker) Get(id model.OrderId) (ports.OrderState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.states[id]
	return s, ok
}

func (t *memoryTracker) OnSubmitted(order model.Order, exchangeOrderId, clientOrderId string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[order.Id] = ports.OrderState{LocalOrder: order, ExchangeOrderId: exchangeOrderId, ClientOrderId: clientOrderId}
}

func (t *memoryTracker) OnCanceled(id model.OrderId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, id)
}

func (t *memoryTracker) OnReplaced(oldId model.OrderId, newOrder model.Order, exchangeOrderId, clientOrderId string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[oldId] = ports.OrderState{LocalOrder: newOrder, ExchangeOrderId: exchangeOrderId, ClientOrderId: clientOrderId}
}

func (t *memoryTracker) OnRejected(id model.OrderId, reason string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, id)
}
