package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"pix-storefront/internal/adapters/syncpay"
	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// DefaultDescription подставляется, когда клиент не передал описание.
const DefaultDescription = "Assinatura Premium"

var (
	// ErrAuthFailed — провайдер не выдал токен.
	ErrAuthFailed = errors.New("payment provider authentication failed")
	// ErrChargeFailed — провайдер не создал кобрансу.
	ErrChargeFailed = errors.New("payment provider charge creation failed")
)

// Provider — внешний платёжный провайдер.
type Provider interface {
	AuthToken(ctx context.Context, creds domain.ProviderCredentials) (string, error)
	CashIn(ctx context.Context, token string, req syncpay.CashInRequest) (domain.PixCharge, error)
}

// Service превращает запрос на оплату в PIX-кобрансу. Состояния между вызовами не хранит.
type Service struct {
	resolver   Resolver
	provider   Provider
	webhookURL string
	log        zerolog.Logger
}

type Option func(*Service)

// WithWebhookURL передаёт провайдеру адрес уведомлений.
func WithWebhookURL(url string) Option {
	return func(s *Service) {
		s.webhookURL = url
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

func NewService(resolver Resolver, provider Provider, opts ...Option) *Service {
	s := &Service{resolver: resolver, provider: provider, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCharge валидирует запрос, выбирает учётные данные, получает токен и создаёт кобрансу.
// Выполняется не больше одной попытки каждого шага.
func (s *Service) CreateCharge(ctx context.Context, headers http.Header, req domain.ChargeRequest) (domain.PixCharge, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return domain.PixCharge{}, err
	}
	if req.Description == "" {
		req.Description = DefaultDescription
	}

	resolution, err := s.resolver.Resolve(ctx, headers)
	if err != nil {
		s.log.Error().Err(err).Str("domain", resolution.Domain).Msg("payment: credentials unavailable")
		metrics.IncPixCharge(resolution.Source, err)
		return domain.PixCharge{}, err
	}
	logger := s.log.With().Str("domain", resolution.Domain).Str("source", resolution.Source).Logger()

	token, err := s.provider.AuthToken(ctx, resolution.Credentials)
	if err != nil {
		logProviderError(logger, "payment: auth token", err)
		metrics.IncPixCharge(resolution.Source, err)
		return domain.PixCharge{}, fmt.Errorf("%w: %w", ErrAuthFailed, err)
	}

	logger.Info().Float64("amount", req.Amount).Str("description", req.Description).Msg("payment: creating cash-in")
	charge, err := s.provider.CashIn(ctx, token, syncpay.CashInRequest{
		Amount:      req.Amount,
		Description: req.Description,
		WebhookURL:  s.webhookURL,
		Client:      req.Client,
	})
	if err != nil {
		logProviderError(logger, "payment: cash-in", err)
		metrics.IncPixCharge(resolution.Source, err)
		return domain.PixCharge{}, fmt.Errorf("%w: %w", ErrChargeFailed, err)
	}
	metrics.IncPixCharge(resolution.Source, nil)
	logger.Info().Str("identifier", charge.Identifier).Msg("payment: cash-in created")
	return charge, nil
}

func logProviderError(logger zerolog.Logger, msg string, err error) {
	event := logger.Error().Err(err)
	var apiErr *syncpay.APIError
	if errors.As(err, &apiErr) {
		event = event.Int("status", apiErr.Status).Str("body", apiErr.Body)
	}
	event.Msg(msg)
}
