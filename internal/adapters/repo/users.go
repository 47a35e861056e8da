package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// GetUserByEmail ищет пользователя без учёта регистра.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var user domain.User
	err := p.queryRow(ctx, "get_user_by_email", "users",
		`SELECT id::text, email, password_hash, created_at FROM users WHERE lower(email) = $1`,
		[]any{strings.ToLower(strings.TrimSpace(email))},
		&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("select user: %w", err)
	}
	return user, nil
}

// UpdatePasswordHash меняет хэш пароля.
func (p *Postgres) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	tag, err := p.exec(ctx, "update_password", "users", `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, hash)
	if isInvalidUUID(err) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ListRoles возвращает роли пользователя.
func (p *Postgres) ListRoles(ctx context.Context, userID string) ([]domain.AppRole, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID)
	metrics.ObserveNetworkRequest("postgres", "list_roles", "user_roles", start, err)
	if isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []domain.AppRole
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		roles = append(roles, domain.ParseAppRole(raw))
	}
	if isInvalidUUID(rows.Err()) {
		return nil, nil
	}
	return roles, rows.Err()
}

// CreateUser заводит пользователя админ-панели с указанными ролями.
func (p *Postgres) CreateUser(ctx context.Context, email, passwordHash string, roles ...domain.AppRole) (domain.User, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "users", start, err)
	if err != nil {
		return domain.User{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var user domain.User
	start = time.Now()
	err = tx.QueryRow(ctx, `
INSERT INTO users (email, password_hash) VALUES ($1, $2)
RETURNING id::text, email, password_hash, created_at
`, strings.ToLower(strings.TrimSpace(email)), passwordHash).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "insert_user", "users", start, err)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	for _, role := range roles {
		start = time.Now()
		_, err = tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, user.ID, string(role))
		metrics.ObserveNetworkRequest("postgres", "insert_role", "user_roles", start, err)
		if err != nil {
			return domain.User{}, fmt.Errorf("insert role: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.User{}, err
	}
	return user, nil
}
