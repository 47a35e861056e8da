package domain

import (
	"context"
	"io"
	"time"
)

// CredentialRepo хранит учётные данные мерчантов по доменам.
type CredentialRepo interface {
	// ActiveCredentialByDomain возвращает активную запись для домена или ErrCredentialNotFound.
	ActiveCredentialByDomain(ctx context.Context, domain string) (Credential, error)
	ListCredentials(ctx context.Context) ([]Credential, error)
	CreateCredential(ctx context.Context, cred Credential) (Credential, error)
	SetCredentialActive(ctx context.Context, id string, active bool) (Credential, error)
	DeleteCredential(ctx context.Context, id string) error
}

// SettingsRepo хранит единственную запись настроек витрины.
type SettingsRepo interface {
	// GetSettings возвращает nil без ошибки, если настройки ещё не созданы.
	GetSettings(ctx context.Context) (*SiteSettings, error)
	UpdateSettings(ctx context.Context, id string, settings SiteSettings) (SiteSettings, error)
	InsertSettings(ctx context.Context, settings SiteSettings) (SiteSettings, error)
}

// UserRepo управляет пользователями админ-панели и их ролями.
type UserRepo interface {
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
	ListRoles(ctx context.Context, userID string) ([]AppRole, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Take(ctx context.Context, key string) ([]byte, error)
}

// ObjectStorage сохраняет файлы и возвращает их публичный адрес.
type ObjectStorage interface {
	Put(ctx context.Context, name string, r io.Reader) (string, error)
}

// Mailer отправляет письма.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
