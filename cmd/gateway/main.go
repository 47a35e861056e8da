package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pix-storefront/internal/adapters/httpapi"
	"pix-storefront/internal/adapters/repo"
	"pix-storefront/internal/adapters/syncpay"
	"pix-storefront/internal/infra/config"
	"pix-storefront/internal/infra/db"
	httpinfra "pix-storefront/internal/infra/http"
	logpkg "pix-storefront/internal/infra/log"
	"pix-storefront/internal/infra/metrics"
	"pix-storefront/internal/usecase/payment"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv).With().Str("component", "gateway").Logger()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store payment.CredentialLookup
	if cfg.Sync.Resolver != payment.ResolverFixed {
		pool, err := db.Connect(cfg.PGDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("gateway: нет подключения к БД")
		}
		defer pool.Close()
		store = repo.NewPostgres(pool)
	}

	fallback := payment.StaticFallback{ClientID: cfg.Sync.ClientID, ClientSecret: cfg.Sync.ClientSecret}
	resolver, err := payment.NewResolver(cfg.Sync.Resolver, store, fallback, logger.With().Str("component", "resolver").Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("gateway: некорректный PAYMENT_RESOLVER")
	}

	client := syncpay.NewClient(syncpay.Config{BaseURL: cfg.Sync.BaseURL, Timeout: cfg.Sync.Timeout})
	service := payment.NewService(resolver, client,
		payment.WithWebhookURL(cfg.Sync.WebhookURL),
		payment.WithLogger(logger.With().Str("component", "payment").Logger()),
	)

	server := httpinfra.NewServer(logger, "gateway")
	server.Router.Use(httpinfra.CORS)
	httpapi.NewGatewayHandler(service, logger).Register(server.Router)

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		if err := server.Start(cfg.GatewayAddr); err != nil {
			logger.Error().Err(err).Msg("gateway: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("gateway: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
