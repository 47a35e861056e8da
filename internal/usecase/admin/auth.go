package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"pix-storefront/internal/domain"
)

// MinPasswordLength — минимальная длина нового пароля.
const MinPasswordLength = 6

var (
	ErrInvalidCredentials = errors.New("неверный e-mail или пароль")
	ErrInvalidToken       = errors.New("недействительный токен")
	ErrWeakPassword       = errors.New("пароль короче 6 символов")
	ErrResetTokenInvalid  = errors.New("ссылка для сброса пароля недействительна или устарела")
)

const (
	sessionKeyPrefix = "session:"
	resetKeyPrefix   = "reset:"
)

// AuthConfig — параметры сессий и сброса пароля.
type AuthConfig struct {
	JWTSecret  string
	SessionTTL time.Duration
	ResetTTL   time.Duration
	ResetURL   string
}

// AuthService реализует вход в админку: сессии в кэше, JWT с id сессии в jti.
type AuthService struct {
	users  domain.UserRepo
	cache  domain.Cache
	queue  domain.MailQueue
	cfg    AuthConfig
	secret []byte
	now    func() time.Time
	log    zerolog.Logger
}

func NewAuthService(users domain.UserRepo, cache domain.Cache, queue domain.MailQueue, cfg AuthConfig, log zerolog.Logger) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &AuthService{
		users:  users,
		cache:  cache,
		queue:  queue,
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
		log:    log,
	}, nil
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// LoginResult — выданный токен и сессия.
type LoginResult struct {
	AccessToken string         `json:"access_token"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Session     domain.Session `json:"session"`
}

// Login проверяет пароль, заводит сессию и подписывает токен.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("поиск пользователя: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	now := s.now()
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Email:     user.Email,
		ExpiresAt: now.Add(s.cfg.SessionTTL).UTC(),
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.cache.Set(ctx, sessionKeyPrefix+session.ID, payload, s.cfg.SessionTTL); err != nil {
		return LoginResult{}, fmt.Errorf("сохранение сессии: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return LoginResult{}, fmt.Errorf("подпись токена: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("admin: login")
	return LoginResult{AccessToken: signed, ExpiresAt: session.ExpiresAt, Session: session}, nil
}

func (s *AuthService) parse(token string) (*claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || c.ID == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}

// Authenticate принимает токен, только если он валиден и его сессия ещё жива.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Session, error) {
	c, err := s.parse(token)
	if err != nil {
		return domain.Session{}, err
	}
	raw, err := s.cache.Get(ctx, sessionKeyPrefix+c.ID)
	if errors.Is(err, domain.ErrCacheMiss) {
		return domain.Session{}, ErrInvalidToken
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("чтение сессии: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, ErrInvalidToken
	}
	if session.UserID != c.Subject {
		return domain.Session{}, ErrInvalidToken
	}
	return session, nil
}

// Logout удаляет сессию токена. Повторный выход не считается ошибкой.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	c, err := s.parse(token)
	if err != nil {
		return err
	}
	return s.cache.Del(ctx, sessionKeyPrefix+c.ID)
}

// IsAdmin проверяет роль пользователя.
func (s *AuthService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	roles, err := s.users.ListRoles(ctx, userID)
	if err != nil {
		return false, err
	}
	return domain.HasAdmin(roles), nil
}

// RequestPasswordReset ставит письмо со ссылкой в очередь. Неизвестный e-mail молча принимается.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		s.log.Debug().Msg("admin: password reset for unknown e-mail ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("поиск пользователя: %w", err)
	}

	token := uuid.NewString()
	if err := s.cache.Set(ctx, resetKeyPrefix+token, []byte(user.ID), s.cfg.ResetTTL); err != nil {
		return fmt.Errorf("сохранение токена сброса: %w", err)
	}
	job := domain.PasswordResetJob{
		ID:          uuid.NewString(),
		Email:       user.Email,
		Token:       token,
		ResetURL:    resetLink(s.cfg.ResetURL, token),
		RequestedAt: s.now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		_ = s.cache.Del(ctx, resetKeyPrefix+token)
		return fmt.Errorf("постановка письма в очередь: %w", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("job_id", job.ID).Msg("admin: password reset requested")
	return nil
}

// ResetPassword меняет пароль по одноразовому токену.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len([]rune(newPassword)) < MinPasswordLength {
		return ErrWeakPassword
	}
	raw, err := s.cache.Take(ctx, resetKeyPrefix+strings.TrimSpace(token))
	if errors.Is(err, domain.ErrCacheMiss) {
		return ErrResetTokenInvalid
	}
	if err != nil {
		return fmt.Errorf("чтение токена сброса: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, string(raw), string(hash)); err != nil {
		return fmt.Errorf("обновление пароля: %w", err)
	}
	s.log.Info().Str("user_id", string(raw)).Msg("admin: password reset")
	return nil
}

func resetLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil || base == "" {
		return token
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
