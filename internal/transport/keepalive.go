package transport

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// keepAliveTransport is a net/http.Transport configured for connection
// reuse and HTTP/2-over-TLS, matching spec.md §4.3's "enables
// keep-alive and HTTP/2-over-TLS" requirement for every pooled handle.
type keepAliveTransport struct {
	connectTimeout time.Duration
	rt             http.RoundTripper
}

func (t *keepAliveTransport) transport() http.RoundTripper {
	if t.rt != nil {
		return t.rt
	}
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   t.connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
	}
	_ = http2.ConfigureTransport(base)
	t.rt = base
	return t.rt
}

func (t *keepAliveTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.transport().RoundTrip(req)
}
