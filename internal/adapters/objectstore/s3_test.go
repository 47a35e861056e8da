package objectstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type fakeS3 struct {
	mu      sync.Mutex
	bucket  bool
	objects map[string]string
	types   map[string]string
}

func newFakeS3(t *testing.T, bucketExists bool) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{bucket: bucketExists, objects: map[string]string{}, types: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		parts := strings.SplitN(strings.Trim(r.URL.Path, "/"), "/", 2)
		switch {
		case r.Method == http.MethodHead && len(parts) == 1:
			if !f.bucket {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && len(parts) == 1:
			f.bucket = true
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodPut && len(parts) == 2:
			body, _ := io.ReadAll(r.Body)
			f.objects[parts[1]] = string(body)
			f.types[parts[1]] = r.Header.Get("Content-Type")
			w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotImplemented)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestS3(t *testing.T, srv *httptest.Server, maxBytes int64) *S3 {
	t.Helper()
	store, err := NewS3(context.Background(), S3Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "site-images",
		PublicURL: "https://cdn.loja.com/storage/v1/object/public/",
		MaxBytes:  maxBytes,
	})
	if err != nil {
		t.Fatalf("new s3: %v", err)
	}
	return store
}

func TestS3PutOverwrites(t *testing.T) {
	fake, srv := newFakeS3(t, true)
	store := newTestS3(t, srv, 1024)

	url, err := store.Put(context.Background(), "logo-1700000000000.png", strings.NewReader("first-image"))
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if url != "https://cdn.loja.com/storage/v1/object/public/site-images/logo-1700000000000.png" {
		t.Fatalf("url = %q", url)
	}
	if _, err := store.Put(context.Background(), "logo-1700000000000.png", strings.NewReader("second-image")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	body := fake.objects["logo-1700000000000.png"]
	// без TLS клиент подписывает тело чанками, сами данные лежат внутри целиком
	if !strings.Contains(body, "second-image") || strings.Contains(body, "first-image") {
		t.Fatalf("stored body = %q", body)
	}
	if fake.types["logo-1700000000000.png"] != "image/png" {
		t.Fatalf("content type = %q", fake.types["logo-1700000000000.png"])
	}
}

func TestS3CreatesMissingBucket(t *testing.T) {
	fake, srv := newFakeS3(t, false)
	newTestS3(t, srv, 0)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !fake.bucket {
		t.Fatal("bucket must be created on start")
	}
}

func TestS3RejectsBeforeUpload(t *testing.T) {
	fake, srv := newFakeS3(t, true)
	store := newTestS3(t, srv, 4)

	if _, err := store.Put(context.Background(), "banner.png", strings.NewReader("too-large")); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	if _, err := store.Put(context.Background(), "../banner.png", strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.objects) != 0 {
		t.Fatalf("nothing must be uploaded, got %v", fake.objects)
	}
}
