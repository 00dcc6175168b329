package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/dompetku/walletgate/internal/credstore"
	"github.com/dompetku/walletgate/internal/gateway"
	"github.com/dompetku/walletgate/internal/proxy"
	"github.com/dompetku/walletgate/internal/walletapi"
)

// App wires the credential store, the gateway and the API client, and runs the
// local forwarder.
type App struct {
	cfg      *Config
	store    credstore.Store
	creds    *credstore.Credentials
	registry *prometheus.Registry
	gateway  *gateway.Transport
	client   *walletapi.Client
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := cfg.Auth.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	a, err := NewWithStore(cfg, store)
	if err != nil {
		closeStore(store)
		return nil, err
	}
	return a, nil
}

// NewWithStore creates an App over an existing credential store.
func NewWithStore(cfg *Config, store credstore.Store) (*App, error) {
	creds, err := credstore.NewCredentials(store)
	if err != nil {
		return nil, err
	}

	// The refresh call must bypass the gateway
	refresher, err := gateway.NewEndpointRefresher(cfg.API.RefreshURL(), &http.Client{Timeout: cfg.API.Timeout}, creds)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresher: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	transport, err := gateway.New(creds, refresher,
		gateway.WithExpiredStatus(cfg.API.ExpiredStatus),
		gateway.WithMetrics(gateway.NewMetrics(registry)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	client, err := walletapi.New(cfg.API.BaseURL,
		&http.Client{Transport: transport, Timeout: cfg.API.Timeout},
		creds,
		walletapi.WithDonationAccount(cfg.Donation.Account),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	return &App{
		cfg:      cfg,
		store:    store,
		creds:    creds,
		registry: registry,
		gateway:  transport,
		client:   client,
	}, nil
}

// Client returns the wallet API client.
func (a *App) Client() *walletapi.Client {
	return a.client
}

// Credentials returns the session credentials.
func (a *App) Credentials() *credstore.Credentials {
	return a.creds
}

// Close releases the credential store.
func (a *App) Close() error {
	if c, ok := a.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// newForwarder builds the local forwarder over the gateway. Forwarded requests
// get the same api.timeout bound as calls made through Client.
func (a *App) newForwarder() (*proxy.Proxy, error) {
	return proxy.New(a.cfg.API.BaseURL, a.gateway,
		proxy.WithMetrics(a.registry),
		proxy.WithSessionCheck(a.hasSession),
		proxy.WithTimeout(a.cfg.API.Timeout),
	)
}

// Start starts the forwarder and blocks until shutdown is triggered.
// The credential store stays open; release it with Close.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	address := a.cfg.Server.Host + ":" + strconv.FormatUint(uint64(a.cfg.Server.Port), 10)
	var shutdownFuncs []func(context.Context) error

	forwarder, err := a.newForwarder()
	if err != nil {
		return fmt.Errorf("failed to create forwarder: %w", err)
	}

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting forwarder", "address", address, "upstream", a.cfg.API.BaseURL)
	proxyErrCh, err := forwarder.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("forwarder startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, forwarder.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "forwarder runtime error", "error", err)
				return fmt.Errorf("forwarder: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	slog.InfoContext(gCtx, "application ready", "address", address)

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
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

func (a *App) hasSession(ctx context.Context) bool {
	token, err := a.creds.AccessToken(ctx)
	return err == nil && token != ""
}

func closeStore(store credstore.Store) {
	if c, ok := store.(io.Closer); ok {
		_ = c.Close()
	}
}
