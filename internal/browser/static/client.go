package static

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/xkilldash9x/agenda-bdd/internal/config"
)

// Transport tuning for talking to a single agenda host.
const (
	dialTimeout           = 15 * time.Second
	keepAliveInterval     = 30 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 30 * time.Second
	maxIdleConns          = 32
	maxIdleConnsPerHost   = 8
	idleConnTimeout       = 90 * time.Second
)

// NewClient builds the HTTP client static pages share. It keeps connections
// alive between requests, carries cookies the way a browser would, enforces
// TLS 1.2 or later and decodes compressed responses. Redirects are followed,
// so a bookmark form post lands back on the agenda like in a browser.
func NewClient(cfg config.AgendaConfig, insecureSkipVerify bool) *http.Client {
	dialer := &net.Dialer{
		Timeout:   dialTimeout,
		KeepAlive: keepAliveInterval,
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: insecureSkipVerify,
		},
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ResponseHeaderTimeout: responseHeaderTimeout,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConnsPerHost,
		IdleConnTimeout:       idleConnTimeout,
		ForceAttemptHTTP2:     true,
		// Decoding happens in the middleware, which also handles brotli.
		DisableCompression: true,
	}

	// cookiejar.New only fails on invalid options.
	jar, _ := cookiejar.New(nil)

	return &http.Client{
		Transport: NewCompressionMiddleware(transport),
		Timeout:   cfg.RequestTimeout,
		Jar:       jar,
	}
}
