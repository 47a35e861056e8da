package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"pix-storefront/internal/adapters/httpapi"
	"pix-storefront/internal/adapters/objectstore"
	"pix-storefront/internal/adapters/repo"
	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/cache"
	"pix-storefront/internal/infra/config"
	"pix-storefront/internal/infra/db"
	httpinfra "pix-storefront/internal/infra/http"
	logpkg "pix-storefront/internal/infra/log"
	"pix-storefront/internal/infra/metrics"
	"pix-storefront/internal/infra/queue"
	"pix-storefront/internal/usecase/admin"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "admin",
		Short: "API админ-панели витрины",
	}
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(createUserCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API админки",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			logger := logpkg.NewLogger(cfg.AppEnv).With().Str("component", "admin").Logger()
			return serve(cfg, logger)
		},
	}
}

func serve(cfg config.AppConfig, logger zerolog.Logger) error {
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("admin: нет подключения к БД: %w", err)
	}
	defer pool.Close()
	store := repo.NewPostgres(pool)

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	mailQueue, closeQueue, err := queue.OpenMailQueue(cfg.QueueBackend, cfg.RabbitURL, rdb, cfg.Queues.Mail)
	if err != nil {
		return fmt.Errorf("admin: очередь писем: %w", err)
	}
	defer closeQueue()

	auth, err := admin.NewAuthService(store, cache.NewRedis(rdb, "admin:"), mailQueue, admin.AuthConfig{
		JWTSecret:  cfg.Auth.JWTSecret,
		SessionTTL: cfg.Auth.SessionTTL,
		ResetTTL:   cfg.Auth.ResetTTL,
		ResetURL:   cfg.Auth.ResetURL,
	}, logger.With().Str("component", "auth").Logger())
	if err != nil {
		return fmt.Errorf("admin: %w", err)
	}

	storage, storageHandler, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}

	server := httpinfra.NewServer(logger, "admin")
	server.Router.Use(httpinfra.CORS)
	httpapi.NewAdminHandler(httpapi.AdminDeps{
		Settings:    admin.NewSettingsService(store),
		Credentials: admin.NewCredentialService(store),
		Auth:        auth,
		Uploads:     admin.NewUploadService(storage),
		MaxUpload:   cfg.Storage.MaxBytes,
	}, logger).Register(server.Router)
	if storageHandler != nil {
		prefix := "/storage/" + cfg.Storage.Bucket + "/"
		server.Router.Handle(prefix+"*", storageHandler(prefix))
	}

	metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
	go func() {
		if err := server.Start(cfg.AdminAddr); err != nil {
			logger.Error().Err(err).Msg("admin: сервер остановлен")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("admin: остановка")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStorage выбирает хранилище картинок по STORAGE_BACKEND. Раздачу файлов
// админка берёт на себя только для локального бэкенда.
func openStorage(ctx context.Context, cfg config.AppConfig) (domain.ObjectStorage, func(prefix string) http.Handler, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		local, err := objectstore.NewLocal(objectstore.Config{
			Dir:       cfg.Storage.Dir,
			PublicURL: cfg.Storage.PublicURL,
			Bucket:    cfg.Storage.Bucket,
			MaxBytes:  cfg.Storage.MaxBytes,
		})
		if err != nil {
			return nil, nil, err
		}
		return local, local.Handler, nil
	case "s3":
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		s3, err := objectstore.NewS3(initCtx, objectstore.S3Config{
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			Region:    cfg.Storage.S3Region,
			UseSSL:    cfg.Storage.S3UseSSL,
			Bucket:    cfg.Storage.Bucket,
			PublicURL: cfg.Storage.PublicURL,
			MaxBytes:  cfg.Storage.MaxBytes,
		})
		if err != nil {
			return nil, nil, err
		}
		return s3, nil, nil
	default:
		return nil, nil, fmt.Errorf("admin: неизвестный STORAGE_BACKEND %q", cfg.Storage.Backend)
	}
}

func createUserCmd() *cobra.Command {
	var (
		email    string
		password string
		isAdmin  bool
	)
	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Создать пользователя админ-панели",
		RunE: func(cmd *cobra.Command, args []string) error {
			email = strings.TrimSpace(email)
			if email == "" {
				return fmt.Errorf("--email обязателен")
			}
			if len([]rune(password)) < admin.MinPasswordLength {
				return admin.ErrWeakPassword
			}
			cfg := config.Load()
			pool, err := db.Connect(cfg.PGDSN)
			if err != nil {
				return fmt.Errorf("нет подключения к БД: %w", err)
			}
			defer pool.Close()

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			roles := []domain.AppRole{domain.AppRoleUser}
			if isAdmin {
				roles = append(roles, domain.AppRoleAdmin)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			user, err := repo.NewPostgres(pool).CreateUser(ctx, email, string(hash), roles...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "пользователь %s создан (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "E-mail пользователя")
	cmd.Flags().StringVar(&password, "password", "", "Пароль, не короче 6 символов")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Выдать роль admin")
	return cmd
}
