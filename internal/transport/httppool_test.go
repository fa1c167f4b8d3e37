package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostSuccessClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	p := NewHTTPPool(HTTPPoolConfig{InitialSize: 1, MaxSize: 2})
	res := p.Post(context.Background(), srv.URL, `{}`, nil, 0)
	require.NoError(t, res.Err)
	require.Equal(t, `{"ok":true}`, res.Body)

	outstanding, free, total := p.Stats()
	require.Equal(t, 0, outstanding)
	require.Equal(t, 1, free)
	require.Equal(t, 1, total)
}

func TestPostErrorClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer srv.Close()

	p := NewHTTPPool(HTTPPoolConfig{InitialSize: 1, MaxSize: 1})
	res := p.Post(context.Background(), srv.URL, `{}`, nil, 0)
	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "HTTP 500")
}

func TestAcquireTimesOutWhenExhausted(t *testing.T) {
	p := NewHTTPPool(HTTPPoolConfig{InitialSize: 1, MaxSize: 1, AcquireTimeout: 50 * time.Millisecond})
	c, err := p.acquire()
	require.NoError(t, err)
	defer p.release(c)

	_, err = p.acquire()
	require.ErrorIs(t, err, ErrPoolExhausted)
}

func TestPoolInvariantHolds(t *testing.T) {
	p := NewHTTPPool(HTTPPoolConfig{InitialSize: 2, MaxSize: 4})
	a, _ := p.acquire()
	b, _ := p.acquire()
	outstanding, free, total := p.Stats()
	require.Equal(t, total, outstanding+free)
	require.LessOrEqual(t, total, 4)
	p.release(a)
	p.release(b)
}
