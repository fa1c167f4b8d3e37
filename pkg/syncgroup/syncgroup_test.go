package syncgroup

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunStartsAllPending(t *testing.T) {
	g := New(nil)
	var n int32
	for i := 0; i < 3; i++ {
		g.Add("worker", func() { atomic.AddInt32(&n, 1) })
	}
	g.Run()
	g.WaitAndClear()
	require.Equal(t, int32(3), n)
}

func TestGoStartsImmediatelyAlongsideRun(t *testing.T) {
	g := New(nil)
	done := make(chan struct{})
	g.Add("blocker", func() { <-done })
	g.Run()

	var ran int32
	g.Go("immediate", func() { atomic.AddInt32(&ran, 1) })

	require.Eventually(t, func() bool { return atomic.LoadInt32(&ran) == 1 }, time.Second, time.Millisecond)
	close(done)
	g.Wait()
}

type capturingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *capturingLogger) Debug(msg string, kv ...any) {}
func (l *capturingLogger) Info(msg string, kv ...any)  {}
func (l *capturingLogger) Warn(msg string, kv ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}
func (l *capturingLogger) Error(msg string, kv ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, msg)
}

func TestGoRecoversPanicAndLogsIt(t *testing.T) {
	logger := &capturingLogger{}
	g := New(logger)

	g.Go("panicker", func() { panic("boom") })
	g.Wait()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	require.Len(t, logger.errs, 1)
}
