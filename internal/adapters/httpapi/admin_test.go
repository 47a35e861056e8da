package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"pix-storefront/internal/adapters/objectstore"
	"pix-storefront/internal/domain"
	"pix-storefront/internal/usecase/admin"
)

type memStore struct {
	mu       sync.Mutex
	users    map[string]domain.User
	roles    map[string][]domain.AppRole
	settings *domain.SiteSettings
	creds    []domain.Credential
	cache    map[string][]byte
	jobs     []domain.PasswordResetJob
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (m *memStore) UpdatePasswordHash(_ context.Context, id, hash string) error {
	u := m.users[id]
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memStore) ListRoles(_ context.Context, id string) ([]domain.AppRole, error) {
	return m.roles[id], nil
}

func (m *memStore) GetSettings(context.Context) (*domain.SiteSettings, error) {
	return m.settings, nil
}

func (m *memStore) UpdateSettings(_ context.Context, id string, s domain.SiteSettings) (domain.SiteSettings, error) {
	s.ID = id
	m.settings = &s
	return s, nil
}

func (m *memStore) InsertSettings(_ context.Context, s domain.SiteSettings) (domain.SiteSettings, error) {
	s.ID = "s1"
	m.settings = &s
	return s, nil
}

func (m *memStore) ActiveCredentialByDomain(context.Context, string) (domain.Credential, error) {
	return domain.Credential{}, domain.ErrCredentialNotFound
}

func (m *memStore) ListCredentials(context.Context) ([]domain.Credential, error) {
	return m.creds, nil
}

func (m *memStore) CreateCredential(_ context.Context, c domain.Credential) (domain.Credential, error) {
	c.ID = "c1"
	m.creds = append([]domain.Credential{c}, m.creds...)
	return c, nil
}

func (m *memStore) SetCredentialActive(_ context.Context, id string, active bool) (domain.Credential, error) {
	for i := range m.creds {
		if m.creds[i].ID == id {
			m.creds[i].Active = active
			return m.creds[i], nil
		}
	}
	return domain.Credential{}, domain.ErrCredentialNotFound
}

func (m *memStore) DeleteCredential(_ context.Context, id string) error {
	for i := range m.creds {
		if m.creds[i].ID == id {
			m.creds = append(m.creds[:i], m.creds[i+1:]...)
			return nil
		}
	}
	return domain.ErrCredentialNotFound
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.cache[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, key)
	return nil
}

func (m *memStore) Take(ctx context.Context, key string) ([]byte, error) {
	v, err := m.Get(ctx, key)
	if err == nil {
		_ = m.Del(ctx, key)
	}
	return v, err
}

func (m *memStore) Enqueue(_ context.Context, job domain.PasswordResetJob) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *memStore) Receive(context.Context) (domain.PasswordResetJob, domain.AckFunc, error) {
	return domain.PasswordResetJob{}, nil, context.Canceled
}

func newAdminRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	store := &memStore{
		users: map[string]domain.User{
			"admin": {ID: "admin", Email: "admin@loja.com", PasswordHash: string(hash)},
			"user":  {ID: "user", Email: "user@loja.com", PasswordHash: string(hash)},
		},
		roles: map[string][]domain.AppRole{"admin": {domain.AppRoleAdmin}, "user": {domain.AppRoleUser}},
		cache: map[string][]byte{},
	}
	auth, err := admin.NewAuthService(store, store, store, admin.AuthConfig{JWTSecret: "k", SessionTTL: time.Hour}, zerolog.Nop())
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	storage, err := objectstore.NewLocal(objectstore.Config{Dir: t.TempDir(), PublicURL: "http://cdn/storage", Bucket: "site-images", MaxBytes: 1024})
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	h := NewAdminHandler(AdminDeps{
		Settings:    admin.NewSettingsService(store),
		Credentials: admin.NewCredentialService(store),
		Auth:        auth,
		Uploads:     admin.NewUploadService(storage),
		MaxUpload:   1024,
	}, zerolog.Nop())
	r := chi.NewRouter()
	h.Register(r)
	return r, store
}

func doJSON(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"email":"`+email+`","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, rec.Code, rec.Body.String())
	}
	var res admin.LoginResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return res.AccessToken
}

func TestPublicSettingsDefaults(t *testing.T) {
	h, _ := newAdminRouter(t)
	rec := doJSON(t, h, http.MethodGet, "/api/v1/settings", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp settingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Settings != nil || len(resp.Plans) != 3 || resp.PrimaryColor != domain.DefaultPrimaryColor {
		t.Fatalf("unexpected defaults: %+v", resp)
	}
}

func TestSettingsWriteRequiresAdmin(t *testing.T) {
	h, store := newAdminRouter(t)

	if rec := doJSON(t, h, http.MethodPut, "/api/v1/settings", "", `{"profile_name":"x"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: %d", rec.Code)
	}
	userToken := login(t, h, "user@loja.com")
	if rec := doJSON(t, h, http.MethodPut, "/api/v1/settings", userToken, `{"profile_name":"x"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("non-admin: %d", rec.Code)
	}
	adminToken := login(t, h, "admin@loja.com")
	rec := doJSON(t, h, http.MethodPut, "/api/v1/settings", adminToken, `{"profile_name":"Ana","plan_30_days_price":"R$ 9,90"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: %d %s", rec.Code, rec.Body.String())
	}
	if store.settings == nil || store.settings.ProfileName != "Ana" {
		t.Fatalf("settings not saved: %+v", store.settings)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/settings", "", "")
	var resp settingsResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Plans) != 4 || resp.Plans[0].Price != "R$ 9,90" {
		t.Fatalf("plan for 30 days expected: %+v", resp.Plans)
	}
}

func TestCredentialsLifecycle(t *testing.T) {
	h, _ := newAdminRouter(t)
	token := login(t, h, "admin@loja.com")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/credentials", token, `{"domain":" Loja-X.com.br ","client_id":"cid","client_secret":"very-secret-9876"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "very-secret") {
		t.Fatalf("secret leaked in create response: %s", rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/credentials", token, "")
	var views []admin.CredentialView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(views) != 1 || views[0].Domain != "loja-x.com.br" || views[0].ClientSecret != "••••9876" {
		t.Fatalf("unexpected list: %+v", views)
	}

	rec = doJSON(t, h, http.MethodPatch, "/api/v1/credentials/c1", token, `{"is_active":false}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPatch, "/api/v1/credentials/missing", token, `{"is_active":true}`); rec.Code != http.StatusNotFound {
		t.Fatalf("toggle missing: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodDelete, "/api/v1/credentials/c1", token, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/credentials", token, `{"domain":"x.com"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create: %d", rec.Code)
	}
}

func TestMeAndLogout(t *testing.T) {
	h, _ := newAdminRouter(t)
	token := login(t, h, "user@loja.com")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/me", token, "")
	var me meResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &me)
	if rec.Code != http.StatusOK || me.UserID != "user" || me.IsAdmin {
		t.Fatalf("me: %d %+v", rec.Code, me)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/logout", token, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/v1/me", token, ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", `{"email":"user@loja.com","password":"nope"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", rec.Code)
	}
}

func TestPasswordResetEndpoints(t *testing.T) {
	h, store := newAdminRouter(t)

	if rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/password-reset", "", `{"email":"ghost@loja.com"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("unknown e-mail: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/password-reset", "", `{"email":"admin@loja.com"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("known e-mail: %d", rec.Code)
	}
	if len(store.jobs) != 1 {
		t.Fatalf("jobs = %d", len(store.jobs))
	}
	token := store.jobs[0].Token

	if rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/password-reset/confirm", "", `{"token":"`+token+`","password":"123"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("weak password: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/password-reset/confirm", "", `{"token":"`+token+`","password":"novasenha"}`); rec.Code != http.StatusOK {
		t.Fatalf("confirm: %d %s", rec.Code, rec.Body.String())
	}
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/password-reset/confirm", "", `{"token":"`+token+`","password":"novasenha"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("reused token: %d", rec.Code)
	}
}

func TestUpload(t *testing.T) {
	h, _ := newAdminRouter(t)
	token := login(t, h, "admin@loja.com")

	upload := func(name string, content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		_, _ = fw.Write(content)
		_ = mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads/banner", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := upload("capa.png", []byte("png-bytes"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if !strings.HasPrefix(resp["url"], "http://cdn/storage/site-images/banner-") || !strings.HasSuffix(resp["url"], ".png") {
		t.Fatalf("url = %q", resp["url"])
	}
	if rec := upload("script.exe", []byte("x")); rec.Code != http.StatusBadRequest {
		t.Fatalf("non-image: %d", rec.Code)
	}
	if rec := upload("huge.png", bytes.Repeat([]byte("x"), 2048)); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized: %d", rec.Code)
	}
}
