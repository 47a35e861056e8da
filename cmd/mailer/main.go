package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"pix-storefront/internal/adapters/mail"
	"pix-storefront/internal/infra/config"
	logpkg "pix-storefront/internal/infra/log"
	"pix-storefront/internal/infra/metrics"
	"pix-storefront/internal/infra/queue"
	"pix-storefront/internal/usecase/notify"
)

func main() {
	cfg := config.Load()
	logger := logpkg.NewLogger(cfg.AppEnv).With().Str("component", "mailer").Logger()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)

	var rdb *redis.Client
	if cfg.QueueBackend == queue.BackendRedis {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
	}
	mailQueue, closeQueue, err := queue.OpenMailQueue(cfg.QueueBackend, cfg.RabbitURL, rdb, cfg.Queues.Mail)
	if err != nil {
		logger.Fatal().Err(err).Msg("mailer: не удалось инициализировать очередь")
	}
	defer closeQueue()

	mailer, err := mail.NewSMTP(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("mailer: некорректная конфигурация SMTP")
	}

	logger.Info().Msg("mailer: запуск обработки очереди")
	notify.NewWorker(mailQueue, mailer, logger).Run(ctx)
	logger.Info().Msg("mailer: остановлен")
}
