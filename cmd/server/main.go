package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"guardian/internal/auth/coordinator"
	"guardian/internal/auth/device"
	consentstore "guardian/internal/auth/store/consent"
	refreshtoken "guardian/internal/auth/store/refresh-token"
	"guardian/internal/auth/store/revocation"
	"guardian/internal/auth/store/session"
	"guardian/internal/auth/token"
	jwttoken "guardian/internal/jwt_token"
	"guardian/internal/platform/config"
	"guardian/internal/platform/httpserver"
	"guardian/internal/platform/logger"
	"guardian/internal/platform/metrics"
	"guardian/internal/platform/redis"
	"guardian/internal/ratelimit"
	"guardian/internal/storage"
	"guardian/internal/tenant"
	httptransport "guardian/internal/transport/http"
)

// main wires the stores, the coordinator and the token issuer behind the
// HTTP router, then keeps the server and the cleanup loop running until a
// signal arrives.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	registry := tenant.NewRegistry()
	n, err := tenant.LoadSeedFile(registry, cfg.Tenants.SeedPath)
	if err != nil {
		return err
	}
	log.Info("tenants loaded", "count", n, "path", cfg.Tenants.SeedPath)

	rdb, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	var tokens *refreshtoken.SQLStore
	if cfg.Database.Driver == "postgres" {
		tokens = refreshtoken.NewPostgres(db)
	} else {
		tokens = refreshtoken.NewSQLite(db)
	}
	if err := tokens.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate token store: %w", err)
	}

	signer, err := loadSigner(cfg.Keys)
	if err != nil {
		return err
	}
	log.Info("signing key ready", "kid", signer.KeyID(), "alg", signer.Algorithm())

	granularity, err := revocation.ParseGranularity(cfg.Ledger.Granularity)
	if err != nil {
		return err
	}
	ledger := revocation.NewRedis(rdb.Client,
		revocation.WithGranularity(granularity),
		revocation.WithRetention(cfg.Ledger.Retention),
		revocation.WithKeyPrefix(cfg.Redis.KeyPrefix),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	devices := device.NewService(cfg.Server.DeviceFingerprinting)
	coord := coordinator.New(
		registry, registry, registry,
		consentstore.NewRedis(rdb.Client, cfg.Redis.KeyPrefix),
		session.NewRedis(rdb.Client, session.WithKeyPrefix(cfg.Redis.KeyPrefix)),
		coordinator.WithLogger(log),
		coordinator.WithMetrics(m),
	)
	issuer := token.New(registry, registry, tokens, tokens, ledger, signer,
		token.WithLogger(log),
		token.WithMetrics(m),
		token.WithDeviceBinder(devices),
	)

	var keySource jwttoken.KeySource = signer.Keys()
	if cfg.Keys.JWKSURL != "" {
		keySource = jwttoken.NewRemoteKeySet(cfg.Keys.JWKSURL,
			jwttoken.WithCacheTTL(cfg.Keys.JWKSCacheTTL),
			jwttoken.WithRemoteLogger(log),
		)
		log.Info("verifying bearer tokens with remote keys", "url", cfg.Keys.JWKSURL)
	}

	handler := httptransport.New(
		coord, issuer, registry, devices,
		httptransport.NewTrustedBackend(issuer, cfg.Server.AdminToken),
		signer, keySource,
		httptransport.WithLogger(log),
		httptransport.WithLeeway(cfg.Keys.Leeway),
		httptransport.WithAdminToken(cfg.Server.AdminToken),
		httptransport.WithThrottle(ratelimit.Middleware(
			ratelimit.NewRedis(rdb.Client, cfg.Redis.KeyPrefix, time.Now),
			"credentials",
			ratelimit.Limit{Requests: cfg.RateLimit.Requests, Window: cfg.RateLimit.Window},
			log,
		)),
	)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		HealthChecks: map[string]httptransport.HealthCheck{
			"redis":    rdb.Health,
			"database": tokens.Ping,
		},
	})

	go runCleanup(ctx, tokens, cfg.Server.CleanupInterval, time.Now, log)

	srv := httpserver.New(cfg.Server, router)
	errc := make(chan error, 1)
	go func() {
		log.Info("starting guardian", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func openDatabase(ctx context.Context, cfg config.Database) (*sql.DB, error) {
	if cfg.Driver == "postgres" {
		return storage.OpenPostgres(ctx, cfg.URL, cfg.MaxOpenConns)
	}
	return storage.OpenSQLite(cfg.SQLitePath)
}

// loadSigner reads the PEM key when configured and otherwise generates an
// ephemeral one.
func loadSigner(cfg config.Keys) (*jwttoken.Signer, error) {
	if cfg.PrivateKeyPath == "" {
		key, err := jwttoken.GenerateSigningKey(cfg.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		return jwttoken.NewSigner(key), nil
	}
	key, err := jwttoken.LoadSigningKey(cfg.PrivateKeyPath, cfg.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("load signing key: %w", err)
	}
	return jwttoken.NewSigner(key), nil
}
