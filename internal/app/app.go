package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/fintrack/internal/account"
	"github.com/florianilch/fintrack/internal/apiclient"
	"github.com/florianilch/fintrack/internal/credstore"
	"github.com/florianilch/fintrack/internal/finance"
	"github.com/florianilch/fintrack/internal/proxy"
)

// App wires the API client, its credential store and the services built on
// top of it. It also runs the local proxy server.
type App struct {
	cfg *Config

	Client       *apiclient.Client
	Account      *account.Service
	Categories   *finance.Categories
	Transactions *finance.Transactions
}

// Option configures an App.
type Option func(*options)

type options struct {
	store     credstore.Store
	transport http.RoundTripper
}

// WithStore replaces the credential store built from configuration.
func WithStore(store credstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithTransport sets the HTTP transport used to reach the API.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// New creates a new App instance. No I/O is performed; the credential store
// is first read on the first API call.
func New(cfg *Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = cfg.Credentials.NewStore()
		if err != nil {
			return nil, fmt.Errorf("failed to create credential store: %w", err)
		}
	}

	client, err := apiclient.New(cfg.API.BaseURL, store, apiclient.WithHTTPClient(&http.Client{
		Timeout:   cfg.API.Timeout,
		Transport: o.transport,
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	acct, err := account.New(client, store)
	if err != nil {
		return nil, fmt.Errorf("failed to create account service: %w", err)
	}

	return &App{
		cfg:          cfg,
		Client:       client,
		Account:      acct,
		Categories:   finance.NewCategories(client),
		Transactions: finance.NewTransactions(client),
	}, nil
}

// Serve starts the proxy server and blocks until ctx is cancelled or the
// server fails. Uses errgroup for runtime error monitoring and shutdown
// function collection for coordinated cleanup.
func (a *App) Serve(ctx context.Context) error {
	proxyServer, err := proxy.New(a.Client)
	if err != nil {
		return fmt.Errorf("failed to create proxy: %w", err)
	}

	g, gCtx := errgroup.WithContext(ctx)

	address := a.Address()
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting proxy server", "address", address, "api", a.cfg.API.BaseURL)
	proxyErrCh, err := proxyServer.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("proxy startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, proxyServer.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "proxy runtime error", "error", err)
				return fmt.Errorf("proxy: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	if !a.Client.IsAuthenticated(gCtx) {
		slog.WarnContext(gCtx, "no stored credentials, requests will be rejected until login")
	}

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Shutdown.Timeout)
	defer cancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// Address is the host:port the proxy listens on.
func (a *App) Address() string {
	return a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
}

// Config returns the configuration the App was built from.
func (a *App) Config() *Config {
	return a.cfg
}
