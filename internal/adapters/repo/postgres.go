package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.CredentialRepo = (*Postgres)(nil)
	_ domain.SettingsRepo   = (*Postgres)(nil)
	_ domain.UserRepo       = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

func (p *Postgres) queryRow(ctx context.Context, operation, target, sql string, args []any, dest ...any) error {
	start := time.Now()
	err := p.pool.QueryRow(ctx, sql, args...).Scan(dest...)
	observed := err
	if errors.Is(err, pgx.ErrNoRows) {
		observed = nil
	}
	metrics.ObserveNetworkRequest("postgres", operation, target, start, observed)
	return err
}

func (p *Postgres) exec(ctx context.Context, operation, target, sql string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	tag, err := p.pool.Exec(ctx, sql, args...)
	metrics.ObserveNetworkRequest("postgres", operation, target, start, err)
	return tag, err
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
