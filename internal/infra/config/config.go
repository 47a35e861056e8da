package config

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	GatewayAddr string `envconfig:"GATEWAY_ADDR" default:":8080"`
	AdminAddr   string `envconfig:"ADMIN_ADDR" default:":8081"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`

	RabbitURL    string `envconfig:"RABBITMQ_URL"`
	QueueBackend string `envconfig:"QUEUE_BACKEND" default:"rabbitmq"`

	Queues struct {
		Mail string `envconfig:"MAIL_QUEUE_KEY" default:"mail_jobs"`
	} `envconfig:""`

	Sync struct {
		BaseURL      string        `envconfig:"SYNC_PAYMENTS_BASE_URL" default:"https://api.syncpayments.com.br"`
		ClientID     string        `envconfig:"SYNC_PAYMENTS_CLIENT_ID"`
		ClientSecret string        `envconfig:"SYNC_PAYMENTS_CLIENT_SECRET"`
		Timeout      time.Duration `envconfig:"SYNC_PAYMENTS_TIMEOUT" default:"8s"`
		WebhookURL   string        `envconfig:"SYNC_PAYMENTS_WEBHOOK_URL"`
		Resolver     string        `envconfig:"PAYMENT_RESOLVER" default:"domain"`
	} `envconfig:""`

	Auth struct {
		JWTSecret  string        `envconfig:"AUTH_JWT_SECRET"`
		SessionTTL time.Duration `envconfig:"AUTH_SESSION_TTL" default:"12h"`
		ResetTTL   time.Duration `envconfig:"AUTH_RESET_TTL" default:"1h"`
		ResetURL   string        `envconfig:"AUTH_RESET_URL" default:"http://localhost:5173/admin/reset"`
	} `envconfig:""`

	Storage struct {
		Backend   string `envconfig:"STORAGE_BACKEND" default:"local"`
		Dir       string `envconfig:"STORAGE_DIR" default:"./data/storage"`
		PublicURL string `envconfig:"STORAGE_PUBLIC_URL" default:"http://localhost:8081/storage"`
		Bucket    string `envconfig:"STORAGE_BUCKET" default:"site-images"`
		MaxBytes  int64  `envconfig:"STORAGE_MAX_BYTES" default:"5242880"`

		S3Endpoint  string `envconfig:"S3_ENDPOINT"`
		S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
		S3SecretKey string `envconfig:"S3_SECRET_KEY"`
		S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
		S3UseSSL    bool   `envconfig:"S3_USE_SSL" default:"true"`
	} `envconfig:""`

	SMTP struct {
		Host     string `envconfig:"SMTP_HOST"`
		Port     int    `envconfig:"SMTP_PORT" default:"587"`
		User     string `envconfig:"SMTP_USER"`
		Password string `envconfig:"SMTP_PASSWORD"`
		From     string `envconfig:"SMTP_FROM" default:"no-reply@localhost"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения, предварительно подхватив .env, если он есть.
func Load() AppConfig {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("не удалось прочитать .env: %v", err)
	}
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
