package syncpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

const (
	defaultBaseURL = "https://api.syncpayments.com.br"
	authTokenPath  = "/api/partner/v1/auth-token"
	cashInPath     = "/api/partner/v1/cash-in"
	maxErrorBody   = 4096
)

// ErrEmptyToken возвращается, когда провайдер ответил успехом, но без access_token.
var ErrEmptyToken = errors.New("syncpay: empty access token")

// APIError описывает неуспешный HTTP-ответ провайдера. Body предназначено только для логов.
type APIError struct {
	Operation string
	Status    int
	Body      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("syncpay %s failed: status %d", e.Operation, e.Status)
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	client := &Client{cfg: cfg}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	client.httpClient = &http.Client{Timeout: timeout}
	if cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	return client
}

func (c *Client) SetHTTPClient(httpClient *http.Client) {
	if httpClient != nil {
		c.httpClient = httpClient
	}
}

type authTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type authTokenResponse struct {
	AccessToken string `json:"access_token"`
}

// AuthToken обменивает client_id/client_secret на bearer-токен.
func (c *Client) AuthToken(ctx context.Context, creds domain.ProviderCredentials) (string, error) {
	var parsed authTokenResponse
	err := c.post(ctx, "auth_token", authTokenPath, "", authTokenRequest{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
	}, &parsed)
	if err != nil {
		return "", err
	}
	if parsed.AccessToken == "" {
		return "", ErrEmptyToken
	}
	return parsed.AccessToken, nil
}

// CashInRequest — тело запроса на создание PIX-кобрансы.
type CashInRequest struct {
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	WebhookURL  string          `json:"webhook_url,omitempty"`
	Client      domain.Customer `json:"client"`
}

// CashIn создаёт кобрансу с использованием полученного токена.
func (c *Client) CashIn(ctx context.Context, token string, req CashInRequest) (domain.PixCharge, error) {
	var parsed domain.PixCharge
	if err := c.post(ctx, "cash_in", cashInPath, token, req, &parsed); err != nil {
		return domain.PixCharge{}, err
	}
	return parsed, nil
}

func (c *Client) post(ctx context.Context, operation, path, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ObserveNetworkRequest("syncpay", operation, "syncpayments", start, err)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{Operation: operation, Status: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
