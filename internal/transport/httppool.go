// Package transport provides the two building blocks every connector
// shares: a bounded pool of resty HTTP clients (spec.md §4.3) and a
// reconnecting websocket client (spec.md §4.4).
package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrPoolExhausted is returned when acquire cannot obtain a handle
// before acquire_timeout_ms elapses.
var ErrPoolExhausted = fmt.Errorf("connection pool exhausted or timeout")

// HTTPPoolConfig configures an HTTPPool; zero values fall back to
// sane defaults.
type HTTPPoolConfig struct {
	InitialSize      int
	MaxSize          int
	AcquireTimeout   time.Duration
	ConnectTimeout   time.Duration
	RequestTimeout   time.Duration
}

// HTTPPool is a thread-safe pool of resty.Client handles, each with
// keep-alive enabled so the underlying TCP/TLS session is reused
// across requests to the same host (spec.md §4.3's hard performance
// requirement).
type HTTPPool struct {
	cfg HTTPPoolConfig

	mu         sync.Mutex
	cond       *sync.Cond
	free       []*resty.Client
	outstanding int
	totalCreated int
}

// NewHTTPPool builds a pool with InitialSize clients pre-created.
func NewHTTPPool(cfg HTTPPoolConfig) *HTTPPool {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 8
	}
	if cfg.InitialSize <= 0 {
		cfg.InitialSize = 1
	}
	if cfg.InitialSize > cfg.MaxSize {
		cfg.InitialSize = cfg.MaxSize
	}
	if cfg.AcquireTimeout <= 0 {
		cfg.AcquireTimeout = 2 * time.Second
	}
	if cfg.ConnectTimeout < time.Second {
		cfg.ConnectTimeout = time.Second
	}
	if cfg.RequestTimeout < time.Second {
		cfg.RequestTimeout = time.Second
	}

	p := &HTTPPool{cfg: cfg}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < cfg.InitialSize; i++ {
		p.free = append(p.free, p.newClient())
		p.totalCreated++
	}
	return p
}

func (p *HTTPPool) newClient() *resty.Client {
	return resty.New().
		SetTimeout(p.cfg.RequestTimeout).
		SetTransport(&keepAliveTransport{connectTimeout: p.cfg.ConnectTimeout})
}

// acquire returns an idle handle, creating a new one up to MaxSize, or
// blocks on the pool's condition variable until one frees up or
// AcquireTimeout elapses.
func (p *HTTPPool) acquire() (*resty.Client, error) {
	deadline := time.Now().Add(p.cfg.AcquireTimeout)

	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if n := len(p.free); n > 0 {
			c := p.free[n-1]
			p.free = p.free[:n-1]
			p.outstanding++
			return c, nil
		}
		if p.totalCreated < p.cfg.MaxSize {
			p.totalCreated++
			p.outstanding++
			return p.newClient(), nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, ErrPoolExhausted
		}

		// sync.Cond has no timed Wait; a timer goroutine wakes every
		// waiter via Broadcast once the deadline passes, same as a
		// release would. Wait() releases p.mu while parked and
		// reacquires it before returning.
		timer := time.AfterFunc(remaining, func() {
			p.mu.Lock()
			p.cond.Broadcast()
			p.mu.Unlock()
		})
		p.cond.Wait()
		timer.Stop()
	}
}

// release returns a handle to the pool, or discards it if the pool has
// shrunk (MaxSize lowered at runtime is not supported, so this path is
// effectively unreachable today but kept for the invariant's sake).
func (p *HTTPPool) release(c *resty.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outstanding--
	if len(p.free) < p.cfg.MaxSize {
		p.free = append(p.free, c)
	} else {
		p.totalCreated--
	}
	p.cond.Broadcast()
}

// Stats reports the HTTP pool invariant of spec.md §8.7:
// outstanding + free == total_created <= max_size.
func (p *HTTPPool) Stats() (outstanding, free, totalCreated int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding, len(p.free), p.totalCreated
}

// Result is the outcome of a Post call, classified per spec.md §4.3.4.
type Result struct {
	Body       string
	StatusCode int
	Err        error
}

// Post acquires a handle, issues a synchronous POST, classifies the
// response, and returns the handle to the pool. timeout overrides the
// pool's RequestTimeout for this call when > 0.
func (p *HTTPPool) Post(ctx context.Context, url string, body string, headers map[string]string, timeout time.Duration) Result {
	c, err := p.acquire()
	if err != nil {
		return Result{Err: err}
	}
	defer p.release(c)

	req := c.R().SetContext(ctx).SetHeader("Connection", "keep-alive").SetBody(body)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	if timeout > 0 {
		req.SetContext(context.Background())
		c.SetTimeout(timeout)
		defer c.SetTimeout(p.cfg.RequestTimeout)
	}

	resp, err := req.Post(url)
	if err != nil {
		return Result{Err: fmt.Errorf("%s", err.Error())}
	}
	if resp.IsSuccess() {
		return Result{Body: string(resp.Body()), StatusCode: resp.StatusCode()}
	}
	truncated := truncate(string(resp.Body()), 1024)
	return Result{
		StatusCode: resp.StatusCode(),
		Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode(), truncated),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
