package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// ErrTooLarge — файл превышает допустимый размер.
var ErrTooLarge = errors.New("objectstore: file too large")

// ErrInvalidName — имя объекта пустое или выходит за пределы бакета.
var ErrInvalidName = errors.New("objectstore: invalid object name")

// Config описывает локальное хранилище.
type Config struct {
	Dir       string
	PublicURL string
	Bucket    string
	MaxBytes  int64
}

func validName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".")
}

// Local хранит объекты в каталоге Dir/Bucket и отдаёт их по PublicURL/Bucket/<name>.
// Используется для локальной разработки, в проде работает S3.
type Local struct {
	cfg Config
}

var _ domain.ObjectStorage = (*Local)(nil)

func NewLocal(cfg Config) (*Local, error) {
	if cfg.Dir == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("objectstore: dir and bucket are required")
	}
	if err := os.MkdirAll(filepath.Join(cfg.Dir, cfg.Bucket), 0o755); err != nil {
		return nil, fmt.Errorf("objectstore: create bucket dir: %w", err)
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")
	return &Local{cfg: cfg}, nil
}

// Put записывает объект, перезаписывая существующий с тем же именем.
func (l *Local) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	start := time.Now()
	err := l.write(name, r)
	metrics.ObserveNetworkRequest("objectstore", "put", l.cfg.Bucket, start, err)
	if err != nil {
		return "", err
	}
	return l.cfg.PublicURL + "/" + l.cfg.Bucket + "/" + name, nil
}

func (l *Local) write(name string, r io.Reader) error {
	dir := filepath.Join(l.cfg.Dir, l.cfg.Bucket)
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	src := r
	if l.cfg.MaxBytes > 0 {
		src = io.LimitReader(r, l.cfg.MaxBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	if l.cfg.MaxBytes > 0 && written > l.cfg.MaxBytes {
		return ErrTooLarge
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}

// Handler раздаёт файлы бакета. Монтируется под префиксом /storage/<bucket>/.
func (l *Local) Handler(prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(http.Dir(filepath.Join(l.cfg.Dir, l.cfg.Bucket))))
}
