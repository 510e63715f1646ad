package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/florianilch/fintrack/internal/apiclient"
)

// maxBodyBytes bounds inbound request bodies, which are buffered for replay.
const maxBodyBytes = 10 << 20

// forwardedHeaders are the inbound headers passed on to the API.
// Authorization is deliberately absent: credentials always come from the store.
var forwardedHeaders = []string{"Content-Type", "Accept"}

// Exchanger performs an authenticated API call and returns the raw response.
// *apiclient.Client satisfies it.
type Exchanger interface {
	Exchange(ctx context.Context, path string, opts apiclient.Options) (*apiclient.Response, error)
}

// Compile-time check that *apiclient.Client implements Exchanger
var _ Exchanger = (*apiclient.Client)(nil)

// Option configures a Proxy.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for request logging. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// Proxy is a local HTTP server that forwards every request to the API with
// the stored credentials attached, refreshing them when they expire.
type Proxy struct {
	handler http.Handler
	server  *http.Server
}

// Compile-time check that Proxy implements http.Handler
var _ http.Handler = (*Proxy)(nil)

// New creates a Proxy that forwards through api.
func New(api Exchanger, opts ...Option) (*Proxy, error) {
	if api == nil {
		return nil, fmt.Errorf("missing API client")
	}

	cfg := &config{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	mux := http.NewServeMux()
	mux.Handle("/", applyMiddlewares(&forwardHandler{api: api},
		Logging(cfg.logger),
		Recovery,
	))

	return &Proxy{handler: mux}, nil
}

// ServeHTTP implements http.Handler interface
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (p *Proxy) Start(ctx context.Context, address string) (<-chan error, error) {
	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	p.server = &http.Server{
		Handler:      p,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute, // Covers attempt, refresh and replay against the API
		IdleTimeout:  90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)

	go func() {
		err := p.server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}

	if err := p.server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = p.server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

// forwardHandler relays one request through the Exchanger.
type forwardHandler struct {
	api Exchanger
}

func (h *forwardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(ctx, w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(ctx, w, "invalid request body", http.StatusBadRequest)
		return
	}

	header := make(http.Header)
	for _, key := range forwardedHeaders {
		if v := r.Header.Values(key); len(v) > 0 {
			header[key] = v
		}
	}

	opts := apiclient.Options{Method: r.Method, Header: header}
	if len(body) > 0 {
		// Forwarded verbatim with the caller's Content-Type
		opts.Body = body
	}

	path := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	resp, err := h.api.Exchange(ctx, path, opts)
	if err != nil {
		writeExchangeError(ctx, w, err)
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(resp.Body); err != nil {
		slog.DebugContext(ctx, "failed to write response", "error", err)
	}
}

// writeExchangeError maps dispatcher failures to responses for the local caller.
func writeExchangeError(ctx context.Context, w http.ResponseWriter, err error) {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status == 0 {
			// No response from the API, the session is gone (e.g. no refresh token)
			status = http.StatusUnauthorized
		}
		slog.WarnContext(ctx, "request not authorized", "status", status, "error", err)
		writeJSONError(ctx, w, apiErr.Message, status)
		return
	}

	if ctx.Err() != nil {
		slog.DebugContext(ctx, "client disconnected", "error", err)
		return
	}

	slog.ErrorContext(ctx, "upstream request failed", "error", err)
	writeJSONError(ctx, w, "upstream unavailable", http.StatusBadGateway)
}
