package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// S3Config описывает S3-совместимое хранилище (MinIO, AWS S3, Supabase Storage S3).
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Region    string
	UseSSL    bool
	Bucket    string
	// PublicURL — адрес, по которому бакет доступен публично. Пустой означает сам endpoint.
	PublicURL string
	MaxBytes  int64
}

// S3 сохраняет объекты в бакет. Повторная запись с тем же именем заменяет объект.
type S3 struct {
	client *minio.Client
	cfg    S3Config
}

var _ domain.ObjectStorage = (*S3)(nil)

// NewS3 подключается к хранилищу и создаёт бакет, если его ещё нет.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore: endpoint and bucket are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("objectstore: s3 client: %w", err)
	}

	start := time.Now()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	metrics.ObserveNetworkRequest("objectstore", "bucket_exists", cfg.Bucket, start, err)
	if err != nil {
		return nil, fmt.Errorf("objectstore: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("objectstore: create bucket: %w", err)
		}
	}

	if cfg.PublicURL == "" {
		cfg.PublicURL = client.EndpointURL().String()
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	return &S3{client: client, cfg: cfg}, nil
}

// Put загружает объект целиком. Размер проверяется до отправки.
func (s *S3) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	src := r
	if s.cfg.MaxBytes > 0 {
		src = io.LimitReader(r, s.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}
	if s.cfg.MaxBytes > 0 && int64(len(data)) > s.cfg.MaxBytes {
		return "", ErrTooLarge
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	start := time.Now()
	_, err = s.client.PutObject(ctx, s.cfg.Bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	metrics.ObserveNetworkRequest("objectstore", "put", s.cfg.Bucket, start, err)
	if err != nil {
		return "", fmt.Errorf("objectstore: put %s: %w", name, err)
	}
	return s.cfg.PublicURL + "/" + s.cfg.Bucket + "/" + name, nil
}
