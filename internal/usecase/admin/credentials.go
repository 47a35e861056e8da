package admin

import (
	"context"
	"errors"
	"strings"
	"time"

	"pix-storefront/internal/domain"
)

// ErrCredentialInvalid — не заполнены домен, client_id или client_secret.
var ErrCredentialInvalid = errors.New("домен, client_id и client_secret обязательны")

// CredentialView — запись для списка в админке. Секрет замаскирован.
type CredentialView struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func viewOf(cred domain.Credential) CredentialView {
	return CredentialView{
		ID:           cred.ID,
		Domain:       cred.Domain,
		ClientID:     cred.ClientID,
		ClientSecret: domain.MaskSecret(cred.ClientSecret),
		Active:       cred.Active,
		CreatedAt:    cred.CreatedAt,
		UpdatedAt:    cred.UpdatedAt,
	}
}

// CredentialInput — данные новой записи.
type CredentialInput struct {
	Domain       string `json:"domain"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Active       *bool  `json:"is_active"`
}

// CredentialService управляет учётными данными мерчантов по доменам.
type CredentialService struct {
	repo domain.CredentialRepo
}

func NewCredentialService(repo domain.CredentialRepo) *CredentialService {
	return &CredentialService{repo: repo}
}

// List возвращает записи от новых к старым.
func (s *CredentialService) List(ctx context.Context) ([]CredentialView, error) {
	creds, err := s.repo.ListCredentials(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]CredentialView, 0, len(creds))
	for _, cred := range creds {
		views = append(views, viewOf(cred))
	}
	return views, nil
}

// Create сводит домен к имени хоста и сохраняет запись. По умолчанию запись активна.
func (s *CredentialService) Create(ctx context.Context, in CredentialInput) (CredentialView, error) {
	cred := domain.Credential{
		Domain:       domain.HostFromInput(in.Domain),
		ClientID:     strings.TrimSpace(in.ClientID),
		ClientSecret: strings.TrimSpace(in.ClientSecret),
		Active:       true,
	}
	if in.Active != nil {
		cred.Active = *in.Active
	}
	if cred.Domain == "" || cred.ClientID == "" || cred.ClientSecret == "" {
		return CredentialView{}, ErrCredentialInvalid
	}
	created, err := s.repo.CreateCredential(ctx, cred)
	if err != nil {
		return CredentialView{}, err
	}
	return viewOf(created), nil
}

// SetActive включает или выключает запись.
func (s *CredentialService) SetActive(ctx context.Context, id string, active bool) (CredentialView, error) {
	cred, err := s.repo.SetCredentialActive(ctx, id, active)
	if err != nil {
		return CredentialView{}, err
	}
	return viewOf(cred), nil
}

func (s *CredentialService) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteCredential(ctx, id)
}
