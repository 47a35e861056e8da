package gatewayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"pix-storefront/internal/domain"
)

const (
	chargePath   = "/functions/v1/sync-payments"
	settingsPath = "/api/v1/settings"
)

// Client вызывает функцию оплаты и публичные эндпоинты витрины.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	originDomain string
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout задаёт таймаут на копии HTTP-клиента, переданный клиент не меняется.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		var cp http.Client
		if c.httpClient != nil {
			cp = *c.httpClient
		}
		cp.Timeout = timeout
		c.httpClient = &cp
	}
}

// WithOriginDomain отправляет x-origin-domain, чтобы шлюз выбрал учётные данные этого домена.
func WithOriginDomain(host string) Option {
	return func(c *Client) {
		c.originDomain = domain.NormalizeDomain(host)
	}
}

// APIError — неуспешный ответ сервиса. Message берётся из поля error.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway error: status=%d", e.Status)
	}
	return fmt.Sprintf("gateway error: status=%d message=%s", e.Status, e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type chargeResponse struct {
	Success    bool   `json:"success"`
	PixCode    string `json:"pix_code"`
	Identifier string `json:"identifier"`
	Message    string `json:"message"`
}

// CreateCharge запрашивает PIX-кобрансу. Пустой pix_code не считается ошибкой транспорта.
func (c *Client) CreateCharge(ctx context.Context, req domain.ChargeRequest) (domain.PixCharge, error) {
	var resp chargeResponse
	if err := c.do(ctx, http.MethodPost, chargePath, req, &resp); err != nil {
		return domain.PixCharge{}, err
	}
	return domain.PixCharge{PixCode: resp.PixCode, Identifier: resp.Identifier, Message: resp.Message}, nil
}

// Storefront — публичное состояние витрины. Settings равен nil, пока настройки не заданы.
type Storefront struct {
	Settings     *domain.SiteSettings `json:"settings"`
	Plans        []domain.Plan        `json:"plans"`
	PrimaryColor string               `json:"primary_color"`
}

// Settings читает публичные настройки и тарифы витрины.
func (c *Client) Settings(ctx context.Context) (Storefront, error) {
	var sf Storefront
	if err := c.do(ctx, http.MethodGet, settingsPath, nil, &sf); err != nil {
		return Storefront{}, err
	}
	if len(sf.Plans) == 0 {
		sf.Plans = sf.Settings.Plans()
	}
	if sf.PrimaryColor == "" {
		sf.PrimaryColor = sf.Settings.PrimaryColor()
	}
	return sf, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	req, err := c.newRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var parsed errorBody
		_ = json.Unmarshal(data, &parsed)
		if parsed.Error == "" {
			parsed.Error = strings.TrimSpace(string(data))
		}
		return &APIError{Status: resp.StatusCode, Message: parsed.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	resolved := *c.baseURL
	basePath := strings.TrimSuffix(c.baseURL.Path, "/")
	resolved.Path = path.Clean(basePath + endpoint)
	var buf io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		buf = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, resolved.String(), buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.originDomain != "" {
		req.Header.Set("X-Origin-Domain", c.originDomain)
	}
	return req, nil
}
