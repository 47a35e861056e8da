package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrMissingFields возвращается, когда в запросе на оплату не хватает обязательных полей.
	ErrMissingFields = errors.New("missing required payment fields")

	// ErrCredentialNotFound возвращается, когда для домена нет активных учётных данных.
	ErrCredentialNotFound = errors.New("credential not found")
)

// Customer описывает плательщика.
type Customer struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ChargeRequest описывает запрос на создание PIX-кобрансы.
type ChargeRequest struct {
	Amount      float64  `json:"amount"`
	Description string   `json:"description"`
	Client      Customer `json:"client"`
}

// Normalize убирает пробелы по краям и оставляет в CPF и телефоне только цифры.
func (r ChargeRequest) Normalize() ChargeRequest {
	r.Description = strings.TrimSpace(r.Description)
	r.Client.Name = strings.TrimSpace(r.Client.Name)
	r.Client.Email = strings.TrimSpace(r.Client.Email)
	r.Client.CPF = Digits(r.Client.CPF)
	r.Client.Phone = Digits(r.Client.Phone)
	return r
}

// Validate проверяет сумму и данные плательщика.
func (r ChargeRequest) Validate() error {
	if r.Amount <= 0 {
		return ErrMissingFields
	}
	c := r.Client
	if c.Name == "" || c.CPF == "" || c.Email == "" || c.Phone == "" {
		return ErrMissingFields
	}
	return nil
}

// PixCharge — результат успешной кобрансы: код для QR/копирования и идентификатор провайдера.
type PixCharge struct {
	PixCode    string `json:"pix_code"`
	Identifier string `json:"identifier"`
	Message    string `json:"message,omitempty"`
}

// ProviderCredentials — пара client_id/client_secret мерчанта.
type ProviderCredentials struct {
	ClientID     string
	ClientSecret string
}

// Complete сообщает, заданы ли обе части пары.
func (c ProviderCredentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Credential хранит учётные данные мерчанта для конкретного домена витрины.
type Credential struct {
	ID           string    `json:"id"`
	Domain       string    `json:"domain"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Provider возвращает пару для обмена на токен.
func (c Credential) Provider() ProviderCredentials {
	return ProviderCredentials{ClientID: c.ClientID, ClientSecret: c.ClientSecret}
}

// NormalizeDomain приводит домен к виду, в котором он хранится и ищется.
func NormalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

// HostFromInput приводит введённый админом домен к виду, в котором его ищет резолвер:
// схема, путь и порт отбрасываются. Непарсящееся значение даёт пустую строку.
func HostFromInput(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return NormalizeDomain(parsed.Hostname())
}

// Digits оставляет в строке только цифры.
func Digits(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskSecret скрывает секрет, оставляя последние четыре символа.
func MaskSecret(secret string) string {
	runes := []rune(secret)
	if len(runes) <= 4 {
		return strings.Repeat("•", len(runes))
	}
	return "••••" + string(runes[len(runes)-4:])
}
