package transport

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestWSClientOpenMessageClose(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		time.Sleep(50 * time.Millisecond)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	var opened int32
	var closed int32
	messages := make(chan string, 1)

	c := NewWSClient(WSConfig{URL: url, ReconnectDelay: 10 * time.Second}, func() {
		atomic.AddInt32(&opened, 1)
	}, func(payload string) {
		messages <- payload
	}, func(code int, reason string) {
		atomic.AddInt32(&closed, 1)
	}, nil)

	c.Start()
	defer c.Stop()

	select {
	case m := <-messages:
		require.Equal(t, "hello", m)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	require.Eventually(t, func() bool { return atomic.LoadInt32(&opened) == 1 }, time.Second, 10*time.Millisecond)
}

func TestWSClientReconnectsAfterServerCloses(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conn.Close() // close immediately after accepting
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	var closeCount int32
	c := NewWSClient(WSConfig{URL: url, ReconnectDelay: 30 * time.Millisecond}, nil, nil, func(int, string) {
		atomic.AddInt32(&closeCount, 1)
	}, nil)

	c.Start()
	defer c.Stop()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&closeCount) >= 3 }, 2*time.Second, 10*time.Millisecond)
}

func TestStopJoinsReceiveGoroutine(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()
		time.Sleep(5 * time.Second)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := NewWSClient(WSConfig{URL: url, ReconnectDelay: time.Second}, nil, nil, nil, nil)
	c.Start()
	time.Sleep(50 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Stop() did not return promptly")
	}
	require.Equal(t, WSStopped, c.State())
}
