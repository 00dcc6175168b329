// Package proxy serves a local forwarder that sends requests to the wallet
// backend through the authenticated gateway, so local tools can call the API
// without handling tokens themselves.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// sessionPaths are backend endpoints that mint or rotate the session. The
// forwarder refuses them so the stored credentials only change through the CLI.
var sessionPaths = []string{"/auth/login", "/auth/signup", "/auth/refresh"}

// Proxy represents the forwarding server
type Proxy struct {
	mux    *http.ServeMux
	server *http.Server
}

// Compile-time check that Proxy implements http.Handler
var _ http.Handler = (*Proxy)(nil)

// Option configures a Proxy.
type Option func(*config)

type config struct {
	gatherer prometheus.Gatherer
	health   func(ctx context.Context) bool
	timeout  time.Duration
}

// WithTimeout bounds each forwarded request, including any wait on a
// credential refresh and the replay. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithMetrics exposes gatherer on GET /metrics.
func WithMetrics(gatherer prometheus.Gatherer) Option {
	return func(c *config) {
		c.gatherer = gatherer
	}
}

// WithSessionCheck reports on GET /healthz whether a session is stored.
func WithSessionCheck(fn func(ctx context.Context) bool) Option {
	return func(c *config) {
		c.health = fn
	}
}

// New creates a forwarder for the backend at baseURL. Outbound requests use
// transport, which is expected to be the authenticated gateway.
func New(baseURL string, transport http.RoundTripper, opts ...Option) (*Proxy, error) {
	upstream, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("upstream URL must be absolute: %q", baseURL)
	}
	if transport == nil {
		return nil, fmt.Errorf("missing transport")
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	forward := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.Out.Host = upstream.Host
			// Callers never supply their own credentials
			pr.Out.Header.Del("Authorization")
		},
		Transport:    transport,
		ErrorHandler: handleUpstreamError,
	}

	logger := slog.Default()
	mux := http.NewServeMux()

	api := applyMiddlewares(forward,
		Tracing,
		Logging(logger),
		Recovery,
		Deadline(cfg.timeout),
	)
	mux.Handle("/api/", api)
	mux.Handle("/auth/", api)

	refuse := applyMiddlewares(http.HandlerFunc(refuseSession), Logging(logger))
	for _, path := range sessionPaths {
		mux.Handle(path, refuse)
	}

	mux.Handle("GET /healthz", healthHandler(cfg.health))
	if cfg.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.gatherer, promhttp.HandlerOpts{}))
	}

	return &Proxy{mux: mux}, nil
}

// ServeHTTP implements http.Handler interface
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mux.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (p *Proxy) Start(ctx context.Context, address string) (<-chan error, error) {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	p.server = &http.Server{
		Handler:      p,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // covers a queued request waiting on a refresh plus its replay
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := p.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}

	if err := p.server.Shutdown(ctx); err != nil {
		_ = p.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

func refuseSession(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(r.Context(), w, http.StatusForbidden, "session endpoints are not forwarded; use walletgate login")
}

func healthHandler(check func(ctx context.Context) bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := map[string]any{"status": "ok"}
		if check != nil {
			status["session"] = check(r.Context())
		}
		writeJSON(r.Context(), w, status, http.StatusOK)
	})
}
