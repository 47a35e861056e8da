package admin

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pix-storefront/internal/domain"
)

var (
	ErrUnsupportedImage = errors.New("допускаются только изображения jpg, png, gif или webp")
	ErrInvalidKind      = errors.New("некорректный тип изображения")
)

var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	kindPattern     = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,31}$`)
)

// UploadService сохраняет изображения витрины: баннер, логотип, аватар.
type UploadService struct {
	storage domain.ObjectStorage
	now     func() time.Time
}

func NewUploadService(storage domain.ObjectStorage) *UploadService {
	return &UploadService{storage: storage, now: time.Now}
}

// Upload сохраняет файл под именем <kind>-<unixmillis>.<ext> и возвращает публичный адрес.
func (s *UploadService) Upload(ctx context.Context, kind, filename string, r io.Reader) (string, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if !kindPattern.MatchString(kind) {
		return "", ErrInvalidKind
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedImage
	}
	name := kind + "-" + strconv.FormatInt(s.now().UnixMilli(), 10) + ext
	return s.storage.Put(ctx, name, r)
}
