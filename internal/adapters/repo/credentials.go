package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

const credentialColumns = `id::text, domain, sync_client_id, sync_client_secret, is_active, created_at, updated_at`

func scanCredential(row pgx.Row) (domain.Credential, error) {
	var cred domain.Credential
	err := row.Scan(&cred.ID, &cred.Domain, &cred.ClientID, &cred.ClientSecret, &cred.Active, &cred.CreatedAt, &cred.UpdatedAt)
	return cred, err
}

// ActiveCredentialByDomain реализует domain.CredentialRepo.
// При нескольких активных записях для домена берётся самая свежая.
func (p *Postgres) ActiveCredentialByDomain(ctx context.Context, host string) (domain.Credential, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	cred, err := scanCredential(p.pool.QueryRow(ctx, `
SELECT `+credentialColumns+`
FROM payment_credentials
WHERE domain = $1 AND is_active
ORDER BY updated_at DESC
LIMIT 1
`, domain.NormalizeDomain(host)))
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.ObserveNetworkRequest("postgres", "credential_by_domain", "payment_credentials", start, nil)
		return domain.Credential{}, domain.ErrCredentialNotFound
	}
	metrics.ObserveNetworkRequest("postgres", "credential_by_domain", "payment_credentials", start, err)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("select credential: %w", err)
	}
	return cred, nil
}

// ListCredentials возвращает все записи, новые первыми.
func (p *Postgres) ListCredentials(ctx context.Context) ([]domain.Credential, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `SELECT `+credentialColumns+` FROM payment_credentials ORDER BY created_at DESC`)
	metrics.ObserveNetworkRequest("postgres", "list_credentials", "payment_credentials", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []domain.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// CreateCredential сохраняет новую запись. Домен нормализуется.
func (p *Postgres) CreateCredential(ctx context.Context, cred domain.Credential) (domain.Credential, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	created, err := scanCredential(p.pool.QueryRow(ctx, `
INSERT INTO payment_credentials (domain, sync_client_id, sync_client_secret, is_active)
VALUES ($1, $2, $3, $4)
RETURNING `+credentialColumns,
		domain.NormalizeDomain(cred.Domain), cred.ClientID, cred.ClientSecret, cred.Active))
	metrics.ObserveNetworkRequest("postgres", "insert_credential", "payment_credentials", start, err)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("insert credential: %w", err)
	}
	return created, nil
}

// SetCredentialActive включает или выключает запись.
func (p *Postgres) SetCredentialActive(ctx context.Context, id string, active bool) (domain.Credential, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	cred, err := scanCredential(p.pool.QueryRow(ctx, `
UPDATE payment_credentials
SET is_active = $2, updated_at = now()
WHERE id = $1
RETURNING `+credentialColumns, id, active))
	if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
		metrics.ObserveNetworkRequest("postgres", "toggle_credential", "payment_credentials", start, nil)
		return domain.Credential{}, domain.ErrCredentialNotFound
	}
	metrics.ObserveNetworkRequest("postgres", "toggle_credential", "payment_credentials", start, err)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("update credential: %w", err)
	}
	return cred, nil
}

// DeleteCredential удаляет запись.
func (p *Postgres) DeleteCredential(ctx context.Context, id string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	tag, err := p.exec(ctx, "delete_credential", "payment_credentials", `DELETE FROM payment_credentials WHERE id = $1`, id)
	if isInvalidUUID(err) {
		return domain.ErrCredentialNotFound
	}
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCredentialNotFound
	}
	return nil
}
