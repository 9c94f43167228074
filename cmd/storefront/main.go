package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/catalog"
	"github.com/joao-fontenele/storefront/internal/checkout"
	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/postgres"
	"github.com/joao-fontenele/storefront/internal/remote"
	"github.com/joao-fontenele/storefront/internal/session"
	"github.com/joao-fontenele/storefront/internal/storefront"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

const serviceName = "storefront"

// stores groups the remote store behind the interfaces each package needs.
// All fields stay nil when no backend is configured.
type stores struct {
	auth     auth.Backend
	catalog  catalog.Source
	checkout checkout.OrderCreator
	close    func() error
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(logger); err != nil {
		logger.Error("storefront stopped", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, serviceName, cfg.ServiceVersion, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		return fmt.Errorf("init meter: %w", err)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	storage, closeStorage, err := openSessionStorage(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStorage() }()

	var launcher checkout.Launcher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderPlacedTopic)
		defer func() { _ = producer.Close() }()
		launcher = checkout.NewEventLauncher(producer)
		logger.Info("order events enabled", "topic", producer.Topic(), "brokers", cfg.KafkaBrokers)
	}

	promotions, err := catalog.LoadPromotions(cfg.PromotionsFile)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("promotions file not found", "path", cfg.PromotionsFile)
		promotions, err = catalog.NewPromotions(nil), nil
	}
	if err != nil {
		return err
	}

	registry := storefront.NewRegistry(storage, cfg.SessionTTL, cfg.VisitorIdleTimeout, logger)
	go registry.Run(ctx, time.Minute)

	limiter := storefront.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Prune(10 * time.Minute)
			}
		}
	}()

	flow := checkout.NewFlow(st.checkout, launcher, checkout.Config{
		BusinessNumber: cfg.WhatsAppNumber,
		StoreName:      cfg.StoreName,
		Currency:       cfg.Currency,
		Location:       cfg.Location(),
		RequireLogin:   cfg.CheckoutRequiresLogin,
	}, metrics, logger)

	handler := storefront.NewHandler(storefront.Services{
		Registry:    registry,
		Catalog:     catalog.New(st.catalog, logger),
		Promotions:  promotions,
		Gateway:     auth.NewGateway(st.auth, metrics, logger),
		Checkout:    flow,
		Metrics:     metrics,
		AuthLimiter: limiter,
		CookieTTL:   cfg.VisitorIdleTimeout,
	}, logger)

	mux := handler.Routes()
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(mux, serviceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting storefront", "port", cfg.Port, "backend", cfg.Backend())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	flow.Wait()
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (stores, error) {
	st := stores{close: func() error { return nil }}

	switch cfg.Backend() {
	case config.BackendPostgres:
		db, err := telemetry.OpenDB(ctx, "postgres", cfg.DatabaseURL)
		if err != nil {
			return st, err
		}
		repo := postgres.NewRepository(db)
		st.auth, st.catalog, st.checkout = repo, repo, repo
		st.close = db.Close
	case config.BackendPostgREST:
		client, err := remote.NewClient(remote.Config{URL: cfg.SupabaseURL, APIKey: cfg.SupabaseAnonKey})
		if err != nil {
			return st, err
		}
		backend := remote.NewBackend(client)
		st.auth, st.catalog, st.checkout = backend, backend, backend
	default:
		logger.Warn("no store backend configured; catalog, accounts and checkout are disabled")
	}
	return st, nil
}

func openSessionStorage(cfg *config.Config, logger *slog.Logger) (session.Storage, func() error, error) {
	switch {
	case cfg.RedisURL != "":
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		logger.Info("sessions stored in redis", "addr", opts.Addr)
		return session.NewRedisStorage(client, cfg.SessionTTL), client.Close, nil
	case cfg.SessionFile != "":
		logger.Info("sessions stored in file", "path", cfg.SessionFile)
		return session.NewFileStorage(cfg.SessionFile), func() error { return nil }, nil
	default:
		return session.NewMemoryStorage(), func() error { return nil }, nil
	}
}
