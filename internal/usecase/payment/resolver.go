package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// HeaderOriginDomain позволяет клиенту явно указать домен витрины.
const HeaderOriginDomain = "X-Origin-Domain"

const (
	ResolverDomain = "domain"
	ResolverFixed  = "fixed"

	SourceDomain = "domain"
	SourceGlobal = "global"
)

// ErrNotConfigured возвращается, когда не нашлось ни доменных, ни глобальных учётных данных.
var ErrNotConfigured = errors.New("payment credentials are not configured")

// Resolution — выбранные учётные данные и откуда они взялись.
type Resolution struct {
	Credentials domain.ProviderCredentials
	Source      string
	Domain      string
}

// Resolver выбирает учётные данные мерчанта для входящего запроса.
type Resolver interface {
	Resolve(ctx context.Context, headers http.Header) (Resolution, error)
}

// FallbackSource отдаёт глобальную пару учётных данных процесса.
type FallbackSource interface {
	Fallback() (domain.ProviderCredentials, bool)
}

// StaticFallback — глобальная пара, известная при старте.
type StaticFallback domain.ProviderCredentials

// Fallback возвращает пару, если обе её части заданы.
func (f StaticFallback) Fallback() (domain.ProviderCredentials, bool) {
	creds := domain.ProviderCredentials(f)
	return creds, creds.Complete()
}

// CredentialLookup — часть хранилища, нужная резолверу.
type CredentialLookup interface {
	ActiveCredentialByDomain(ctx context.Context, host string) (domain.Credential, error)
}

// FixedResolver всегда использует глобальную пару.
type FixedResolver struct {
	fallback FallbackSource
}

func NewFixedResolver(fallback FallbackSource) *FixedResolver {
	return &FixedResolver{fallback: fallback}
}

func (r *FixedResolver) Resolve(_ context.Context, _ http.Header) (Resolution, error) {
	return resolveFallback(r.fallback, "")
}

// DomainResolver ищет активную запись для домена запроса и откатывается на глобальную пару.
type DomainResolver struct {
	store    CredentialLookup
	fallback FallbackSource
	log      zerolog.Logger
}

func NewDomainResolver(store CredentialLookup, fallback FallbackSource, log zerolog.Logger) *DomainResolver {
	return &DomainResolver{store: store, fallback: fallback, log: log}
}

// Resolve не кэширует результат: каждый вызов заново ходит в хранилище.
func (r *DomainResolver) Resolve(ctx context.Context, headers http.Header) (Resolution, error) {
	originDomain := OriginDomain(headers)
	if originDomain != "" {
		cred, err := r.store.ActiveCredentialByDomain(ctx, originDomain)
		switch {
		case err == nil && cred.Provider().Complete():
			metrics.IncCredentialResolution(SourceDomain)
			return Resolution{Credentials: cred.Provider(), Source: SourceDomain, Domain: originDomain}, nil
		case err == nil, errors.Is(err, domain.ErrCredentialNotFound):
			r.log.Debug().Str("domain", originDomain).Msg("payment: no active credential for domain, using global")
		default:
			r.log.Warn().Err(err).Str("domain", originDomain).Msg("payment: credential lookup failed, using global")
		}
	}
	return resolveFallback(r.fallback, originDomain)
}

func resolveFallback(fallback FallbackSource, originDomain string) (Resolution, error) {
	if fallback != nil {
		if creds, ok := fallback.Fallback(); ok {
			metrics.IncCredentialResolution(SourceGlobal)
			return Resolution{Credentials: creds, Source: SourceGlobal, Domain: originDomain}, nil
		}
	}
	metrics.IncCredentialResolution("none")
	return Resolution{Domain: originDomain}, ErrNotConfigured
}

// NewResolver выбирает стратегию по имени из конфигурации.
func NewResolver(mode string, store CredentialLookup, fallback FallbackSource, log zerolog.Logger) (Resolver, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ResolverDomain:
		if store == nil {
			return nil, fmt.Errorf("domain resolver requires a credential store")
		}
		return NewDomainResolver(store, fallback, log), nil
	case ResolverFixed:
		return NewFixedResolver(fallback), nil
	default:
		return nil, fmt.Errorf("unknown resolver %q", mode)
	}
}

// OriginDomain определяет домен витрины: явный заголовок, затем хост из referer, затем из origin.
// Непарсящийся URL считается отсутствующим.
func OriginDomain(headers http.Header) string {
	if explicit := domain.NormalizeDomain(headers.Get(HeaderOriginDomain)); explicit != "" {
		return explicit
	}
	for _, name := range []string{"Referer", "Origin"} {
		if host := hostFromURL(headers.Get(name)); host != "" {
			return host
		}
	}
	return ""
}

func hostFromURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return domain.NormalizeDomain(parsed.Hostname())
}
