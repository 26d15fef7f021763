package httpclient

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const defaultUserAgent = "pixelgen/1.0"

type Options struct {
	PreferIPv4 bool
	// Timeout caps a whole exchange, body included. Image generation is slow,
	// so the default is generous.
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

func New(opts Options) *http.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if opts.PreferIPv4 {
				return dialer.DialContext(ctx, "tcp4", addr)
			}
			return dialer.DialContext(ctx, network, addr)
		},
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &loggingTransport{
			next:      transport,
			userAgent: userAgent,
			logger:    logger,
		},
	}
}

// loggingTransport stamps the User-Agent and logs each round trip at debug
// level. Query strings are not logged since they may carry keys.
type loggingTransport struct {
	next      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.DebugContext(req.Context(), "outbound request failed",
			"method", req.Method, "host", req.URL.Host, "path", req.URL.Path,
			"dur_ms", time.Since(start).Milliseconds(), "err", err)
		return nil, err
	}

	t.logger.DebugContext(req.Context(), "outbound request",
		"method", req.Method, "host", req.URL.Host, "path", req.URL.Path,
		"status", resp.StatusCode, "dur_ms", time.Since(start).Milliseconds())
	return resp, nil
}
