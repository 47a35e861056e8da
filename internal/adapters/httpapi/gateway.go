package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"pix-storefront/internal/domain"
	httpinfra "pix-storefront/internal/infra/http"
	"pix-storefront/internal/usecase/payment"
)

const (
	msgMissingFields = "Dados incompletos"
	msgNotConfigured = "Credenciais do Sync Payments não configuradas. Configure no painel admin."
	msgAuthFailed    = "Falha na autenticação com Sync Payments"
	msgChargeFailed  = "Falha ao criar cobrança PIX"
	msgInternal      = "Erro interno"
)

const maxChargeBody = 64 << 10

// ChargeCreator — use-case создания PIX-кобрансы.
type ChargeCreator interface {
	CreateCharge(ctx context.Context, headers http.Header, req domain.ChargeRequest) (domain.PixCharge, error)
}

// GatewayHandler обслуживает функции оплаты.
type GatewayHandler struct {
	charges ChargeCreator
	log     zerolog.Logger
}

func NewGatewayHandler(charges ChargeCreator, log zerolog.Logger) *GatewayHandler {
	return &GatewayHandler{charges: charges, log: log}
}

// Register подключает маршруты функций. CORS навешивается на весь роутер снаружи.
func (h *GatewayHandler) Register(r chi.Router) {
	r.Post("/functions/v1/sync-payments", h.syncPayments)
	r.Post("/functions/v1/create-pix-payment", h.createPixPayment)
}

type chargeResponse struct {
	Success    bool   `json:"success"`
	PixCode    string `json:"pix_code"`
	Identifier string `json:"identifier"`
	Message    string `json:"message,omitempty"`
}

type legacyPaymentRequest struct {
	Amount        float64 `json:"amount"`
	PlanName      string  `json:"planName"`
	CustomerName  string  `json:"customerName"`
	CustomerCPF   string  `json:"customerCpf"`
	CustomerEmail string  `json:"customerEmail"`
	CustomerPhone string  `json:"customerPhone"`
}

func (req legacyPaymentRequest) chargeRequest() domain.ChargeRequest {
	description := ""
	if plan := strings.TrimSpace(req.PlanName); plan != "" {
		description = "Assinatura " + plan
	}
	return domain.ChargeRequest{
		Amount:      req.Amount,
		Description: description,
		Client: domain.Customer{
			Name:  req.CustomerName,
			CPF:   req.CustomerCPF,
			Email: req.CustomerEmail,
			Phone: req.CustomerPhone,
		},
	}
}

func (h *GatewayHandler) syncPayments(w http.ResponseWriter, r *http.Request) {
	var req domain.ChargeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.createCharge(w, r, req)
}

func (h *GatewayHandler) createPixPayment(w http.ResponseWriter, r *http.Request) {
	var req legacyPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.createCharge(w, r, req.chargeRequest())
}

func (h *GatewayHandler) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChargeBody)).Decode(out); err != nil {
		h.log.Warn().Err(err).Str("request_id", httpinfra.RequestID(r)).Msg("gateway: invalid request body")
		httpinfra.WriteError(w, http.StatusBadRequest, msgMissingFields)
		return false
	}
	return true
}

func (h *GatewayHandler) createCharge(w http.ResponseWriter, r *http.Request, req domain.ChargeRequest) {
	charge, err := h.charges.CreateCharge(r.Context(), r.Header, req)
	if err != nil {
		status, msg := chargeErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Str("request_id", httpinfra.RequestID(r)).Msg("gateway: charge failed")
		}
		httpinfra.WriteError(w, status, msg)
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, chargeResponse{
		Success:    true,
		PixCode:    charge.PixCode,
		Identifier: charge.Identifier,
		Message:    charge.Message,
	})
}

func chargeErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest, msgMissingFields
	case errors.Is(err, payment.ErrNotConfigured):
		return http.StatusBadRequest, msgNotConfigured
	case errors.Is(err, payment.ErrAuthFailed):
		return http.StatusInternalServerError, msgAuthFailed
	case errors.Is(err, payment.ErrChargeFailed):
		return http.StatusInternalServerError, msgChargeFailed
	default:
		return http.StatusInternalServerError, msgInternal
	}
}
