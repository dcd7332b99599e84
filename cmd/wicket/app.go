package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/wicket/internal"
	"github.com/dukerupert/wicket/internal/address"
	"github.com/dukerupert/wicket/internal/api"
	"github.com/dukerupert/wicket/internal/cart"
	"github.com/dukerupert/wicket/internal/service"
	"github.com/dukerupert/wicket/internal/shipping"
	"github.com/dukerupert/wicket/internal/storage"
	"github.com/dukerupert/wicket/internal/telemetry"
	"github.com/dukerupert/wicket/internal/worker"
)

// app holds the wired components shared by every command.
type app struct {
	cfg     *internal.Config
	logger  *slog.Logger
	metrics *telemetry.BusinessMetrics

	storage  storage.Storage
	client   *api.Client
	session  *service.Session
	store    *cart.Store
	delivery shipping.Provider

	notifier  *consoleNotifier
	navigator *consoleNavigator

	carts     service.CartService
	orders    service.OrderService
	addresses service.AddressService
	poller    *worker.PaymentPoller

	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger; stdout belongs to command output
	logger := internal.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	// Initialize Sentry
	flush, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		logger.Warn("sentry initialization failed", "error", err)
	} else {
		a.closers = append(a.closers, flush)
	}

	// Initialize Prometheus metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = telemetry.NewBusinessMetrics("wicket", reg)
	if cfg.MetricsAddr != "" {
		a.serveMetrics(cfg.MetricsAddr, reg)
	}

	// Initialize storage
	st, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("storage initialization failed: %w", err)
	}
	a.storage = st
	backend := st
	if es, ok := st.(*storage.EncryptedStorage); ok {
		backend = es.Unwrap()
	}
	if rs, ok := backend.(*storage.RedisStorage); ok {
		a.closers = append(a.closers, func() { _ = rs.Close() })
	}

	// The client reads the token from the session, which is opened with the
	// client as its authenticator.
	var sess *service.Session
	client, err := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Token: func() string {
			if sess == nil {
				return ""
			}
			return sess.Token()
		},
		Logger:  logger,
		Metrics: a.metrics,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("api client initialization failed: %w", err)
	}
	a.client = client

	sess, err = service.OpenSession(ctx, st, client, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	a.session = sess

	store, err := cart.Open(ctx, st, logger, cart.WithMetrics(a.metrics))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to open cart: %w", err)
	}
	a.store = store

	a.delivery = shipping.NewFlatRateProvider(
		[]shipping.FlatRate{shipping.StandardDelivery(cfg.Delivery.Charge)},
		cfg.Delivery.FreeDeliveryThreshold,
	)

	a.notifier = &consoleNotifier{w: os.Stderr}
	a.navigator = &consoleNavigator{w: os.Stderr}

	// Initialize services
	a.carts = service.NewCartService(store, client, a.notifier, logger, a.metrics)
	a.orders = service.NewOrderService(client, a.notifier, logger, a.metrics)
	a.addresses = service.NewAddressService(client, address.NewBasicValidator(), a.notifier, logger)
	a.poller = worker.NewPaymentPoller(client, store, a.notifier, a.navigator, worker.PollConfig{
		Interval:      cfg.Poll.Interval,
		MaxAttempts:   cfg.Poll.MaxAttempts,
		NoticeAttempt: cfg.Poll.NoticeAttempt,
		RedirectDelay: cfg.Poll.RedirectDelay,
	}, logger, a.metrics)

	return a, nil
}

// checkout builds a fresh checkout flow over the shared components.
func (a *app) checkout() *service.Checkout {
	return service.NewCheckout(service.CheckoutDeps{
		Store:     a.store,
		Orders:    a.client,
		Addresses: a.client,
		Delivery:  a.delivery,
		Notifier:  a.notifier,
		Navigator: a.navigator,
		Logger:    a.logger,
		Metrics:   a.metrics,
	})
}

func (a *app) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.logger.Info("Starting metrics server", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", "error", err)
		}
	}()

	a.closers = append(a.closers, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
