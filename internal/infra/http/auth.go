package http

import (
	"context"
	"net/http"
	"strings"

	"pix-storefront/internal/domain"
)

type ctxKey struct{}

// Authenticator проверяет токен доступа и возвращает сессию.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Session, error)
}

// RoleChecker отвечает на вопрос, является ли пользователь администратором.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// BearerAuthMiddleware пропускает запрос только с действующим токеном в заголовке Authorization.
func BearerAuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "token de acesso ausente")
				return
			}
			session, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "sessão inválida ou expirada")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin пропускает только пользователей с ролью admin. Ставится после BearerAuthMiddleware.
func RequireAdmin(roles RoleChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "sessão inválida ou expirada")
				return
			}
			isAdmin, err := roles.IsAdmin(r.Context(), session.UserID)
			if err != nil {
				WriteError(w, http.StatusInternalServerError, "Erro interno")
				return
			}
			if !isAdmin {
				WriteError(w, http.StatusForbidden, "acesso restrito a administradores")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext достаёт сессию, сохранённую BearerAuthMiddleware.
func SessionFromContext(ctx context.Context) (domain.Session, bool) {
	session, ok := ctx.Value(ctxKey{}).(domain.Session)
	return session, ok
}

// BearerToken извлекает токен из заголовка Authorization.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
