package admin

import (
	"context"
	"sync"
	"time"

	"pix-storefront/internal/domain"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Del(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Take(ctx context.Context, key string) ([]byte, error) {
	v, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = c.Del(ctx, key)
	return v, nil
}

type memUsers struct {
	users map[string]domain.User
	roles map[string][]domain.AppRole
}

func (u *memUsers) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	for _, user := range u.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (u *memUsers) UpdatePasswordHash(_ context.Context, userID, hash string) error {
	user, ok := u.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.PasswordHash = hash
	u.users[userID] = user
	return nil
}

func (u *memUsers) ListRoles(_ context.Context, userID string) ([]domain.AppRole, error) {
	return u.roles[userID], nil
}

type memQueue struct {
	jobs []domain.PasswordResetJob
	err  error
}

func (q *memQueue) Enqueue(_ context.Context, job domain.PasswordResetJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memQueue) Receive(context.Context) (domain.PasswordResetJob, domain.AckFunc, error) {
	return domain.PasswordResetJob{}, nil, context.Canceled
}

type memSettings struct {
	current  *domain.SiteSettings
	inserted int
	updated  []string
}

func (m *memSettings) GetSettings(context.Context) (*domain.SiteSettings, error) {
	if m.current == nil {
		return nil, nil
	}
	cp := *m.current
	return &cp, nil
}

func (m *memSettings) UpdateSettings(_ context.Context, id string, s domain.SiteSettings) (domain.SiteSettings, error) {
	m.updated = append(m.updated, id)
	s.ID = id
	m.current = &s
	return s, nil
}

func (m *memSettings) InsertSettings(_ context.Context, s domain.SiteSettings) (domain.SiteSettings, error) {
	m.inserted++
	s.ID = "settings-1"
	m.current = &s
	return s, nil
}

type memCredentials struct {
	created []domain.Credential
	list    []domain.Credential
}

func (m *memCredentials) ActiveCredentialByDomain(context.Context, string) (domain.Credential, error) {
	return domain.Credential{}, domain.ErrCredentialNotFound
}

func (m *memCredentials) ListCredentials(context.Context) ([]domain.Credential, error) {
	return m.list, nil
}

func (m *memCredentials) CreateCredential(_ context.Context, cred domain.Credential) (domain.Credential, error) {
	cred.ID = "cred-1"
	m.created = append(m.created, cred)
	return cred, nil
}

func (m *memCredentials) SetCredentialActive(_ context.Context, id string, active bool) (domain.Credential, error) {
	for _, cred := range m.list {
		if cred.ID == id {
			cred.Active = active
			return cred, nil
		}
	}
	return domain.Credential{}, domain.ErrCredentialNotFound
}

func (m *memCredentials) DeleteCredential(context.Context, string) error {
	return nil
}
