package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"pix-storefront/internal/adapters/objectstore"
	"pix-storefront/internal/domain"
	httpinfra "pix-storefront/internal/infra/http"
	"pix-storefront/internal/usecase/admin"
)

const maxAdminBody = 1 << 20

// AdminHandler обслуживает API админ-панели и публичные настройки витрины.
type AdminHandler struct {
	settings    *admin.SettingsService
	credentials *admin.CredentialService
	auth        *admin.AuthService
	uploads     *admin.UploadService
	maxUpload   int64
	log         zerolog.Logger
}

type AdminDeps struct {
	Settings    *admin.SettingsService
	Credentials *admin.CredentialService
	Auth        *admin.AuthService
	Uploads     *admin.UploadService
	MaxUpload   int64
}

func NewAdminHandler(deps AdminDeps, log zerolog.Logger) *AdminHandler {
	maxUpload := deps.MaxUpload
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &AdminHandler{
		settings:    deps.Settings,
		credentials: deps.Credentials,
		auth:        deps.Auth,
		uploads:     deps.Uploads,
		maxUpload:   maxUpload,
		log:         log,
	}
}

// Register подключает маршруты. Загрузки регистрируются, только если задан UploadService.
func (h *AdminHandler) Register(r chi.Router) {
	r.Get("/api/v1/settings", h.getSettings)
	r.Post("/api/v1/auth/login", h.login)
	r.Post("/api/v1/auth/password-reset", h.requestReset)
	r.Post("/api/v1/auth/password-reset/confirm", h.confirmReset)

	r.Group(func(authed chi.Router) {
		authed.Use(httpinfra.BearerAuthMiddleware(h.auth))
		authed.Post("/api/v1/auth/logout", h.logout)
		authed.Get("/api/v1/me", h.me)

		authed.Group(func(adm chi.Router) {
			adm.Use(httpinfra.RequireAdmin(h.auth))
			adm.Put("/api/v1/settings", h.saveSettings)
			adm.Get("/api/v1/credentials", h.listCredentials)
			adm.Post("/api/v1/credentials", h.createCredential)
			adm.Patch("/api/v1/credentials/{id}", h.toggleCredential)
			adm.Delete("/api/v1/credentials/{id}", h.deleteCredential)
			if h.uploads != nil {
				adm.Post("/api/v1/uploads/{kind}", h.upload)
			}
		})
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody)).Decode(out); err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "corpo da requisição inválido")
		return false
	}
	return true
}

func (h *AdminHandler) internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.log.Error().Err(err).Str("request_id", httpinfra.RequestID(r)).Msg(msg)
	httpinfra.WriteError(w, http.StatusInternalServerError, msgInternal)
}

type settingsResponse struct {
	Settings     *domain.SiteSettings `json:"settings"`
	Plans        []domain.Plan        `json:"plans"`
	PrimaryColor string               `json:"primary_color"`
}

func (h *AdminHandler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get(r.Context())
	if err != nil {
		h.internalError(w, r, err, "admin: get settings")
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, settingsResponse{
		Settings:     settings,
		Plans:        settings.Plans(),
		PrimaryColor: settings.PrimaryColor(),
	})
}

func (h *AdminHandler) saveSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.SiteSettings
	if !decodeJSON(w, r, &req) {
		return
	}
	saved, err := h.settings.Save(r.Context(), req)
	if err != nil {
		h.internalError(w, r, err, "admin: save settings")
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, saved)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AdminHandler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, admin.ErrInvalidCredentials) {
		httpinfra.WriteError(w, http.StatusUnauthorized, "E-mail ou senha inválidos")
		return
	}
	if err != nil {
		h.internalError(w, r, err, "admin: login")
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) logout(w http.ResponseWriter, r *http.Request) {
	token, _ := httpinfra.BearerToken(r)
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.internalError(w, r, err, "admin: logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func (h *AdminHandler) me(w http.ResponseWriter, r *http.Request) {
	session, _ := httpinfra.SessionFromContext(r.Context())
	isAdmin, err := h.auth.IsAdmin(r.Context(), session.UserID)
	if err != nil {
		h.internalError(w, r, err, "admin: role lookup")
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, meResponse{UserID: session.UserID, Email: session.Email, IsAdmin: isAdmin})
}

type resetRequest struct {
	Email string `json:"email"`
}

func (h *AdminHandler) requestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.auth.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.internalError(w, r, err, "admin: password reset request")
		return
	}
	httpinfra.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "ok"})
}

type confirmResetRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AdminHandler) confirmReset(w http.ResponseWriter, r *http.Request) {
	var req confirmResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.auth.ResetPassword(r.Context(), req.Token, req.Password)
	switch {
	case errors.Is(err, admin.ErrWeakPassword):
		httpinfra.WriteError(w, http.StatusBadRequest, "A senha deve ter pelo menos 6 caracteres")
	case errors.Is(err, admin.ErrResetTokenInvalid):
		httpinfra.WriteError(w, http.StatusBadRequest, "Link de redefinição inválido ou expirado")
	case err != nil:
		h.internalError(w, r, err, "admin: password reset confirm")
	default:
		httpinfra.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func (h *AdminHandler) listCredentials(w http.ResponseWriter, r *http.Request) {
	views, err := h.credentials.List(r.Context())
	if err != nil {
		h.internalError(w, r, err, "admin: list credentials")
		return
	}
	if views == nil {
		views = []admin.CredentialView{}
	}
	httpinfra.WriteJSON(w, http.StatusOK, views)
}

func (h *AdminHandler) createCredential(w http.ResponseWriter, r *http.Request) {
	var req admin.CredentialInput
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.credentials.Create(r.Context(), req)
	if errors.Is(err, admin.ErrCredentialInvalid) {
		httpinfra.WriteError(w, http.StatusBadRequest, "Preencha domínio, client_id e client_secret")
		return
	}
	if err != nil {
		h.internalError(w, r, err, "admin: create credential")
		return
	}
	httpinfra.WriteJSON(w, http.StatusCreated, view)
}

type toggleRequest struct {
	Active *bool `json:"is_active"`
}

func (h *AdminHandler) toggleCredential(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "is_active é obrigatório")
		return
	}
	view, err := h.credentials.SetActive(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if errors.Is(err, domain.ErrCredentialNotFound) {
		httpinfra.WriteError(w, http.StatusNotFound, "credencial não encontrada")
		return
	}
	if err != nil {
		h.internalError(w, r, err, "admin: toggle credential")
		return
	}
	httpinfra.WriteJSON(w, http.StatusOK, view)
}

func (h *AdminHandler) deleteCredential(w http.ResponseWriter, r *http.Request) {
	err := h.credentials.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrCredentialNotFound) {
		httpinfra.WriteError(w, http.StatusNotFound, "credencial não encontrada")
		return
	}
	if err != nil {
		h.internalError(w, r, err, "admin: delete credential")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	file, header, err := r.FormFile("file")
	if err != nil {
		httpinfra.WriteError(w, http.StatusBadRequest, "arquivo ausente")
		return
	}
	defer file.Close()

	url, err := h.uploads.Upload(r.Context(), chi.URLParam(r, "kind"), header.Filename, file)
	switch {
	case errors.Is(err, admin.ErrUnsupportedImage), errors.Is(err, admin.ErrInvalidKind):
		httpinfra.WriteError(w, http.StatusBadRequest, "Envie uma imagem jpg, png, gif ou webp")
	case errors.Is(err, objectstore.ErrTooLarge):
		httpinfra.WriteError(w, http.StatusRequestEntityTooLarge, "arquivo muito grande")
	case err != nil:
		h.internalError(w, r, err, "admin: upload")
	default:
		httpinfra.WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
	}
}
