package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// RedisMailQueue реализует очередь писем на базе Redis lists.
type RedisMailQueue struct {
	client *redis.Client
	key    string
}

var _ domain.MailQueue = (*RedisMailQueue)(nil)

// NewRedisMailQueue создаёт очередь по указанному ключу.
func NewRedisMailQueue(client *redis.Client, key string) *RedisMailQueue {
	return &RedisMailQueue{client: client, key: key}
}

// Enqueue публикует задачу в очередь.
func (q *RedisMailQueue) Enqueue(ctx context.Context, job domain.PasswordResetJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.client.LPush(ctx, q.key, payload).Err()
	metrics.ObserveNetworkRequest("redis", "lpush", q.key, start, err)
	if err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу из очереди. При неуспешной обработке задача возвращается в очередь.
func (q *RedisMailQueue) Receive(ctx context.Context) (domain.PasswordResetJob, domain.AckFunc, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.PasswordResetJob{}, nil, err
		}

		res, err := q.client.BRPop(ctx, time.Second, q.key).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				if ctx.Err() != nil {
					return domain.PasswordResetJob{}, nil, ctx.Err()
				}
				continue
			}
			if errors.Is(err, redis.Nil) {
				continue
			}
			return domain.PasswordResetJob{}, nil, err
		}
		if len(res) != 2 {
			return domain.PasswordResetJob{}, nil, errors.New("redis queue: unexpected response")
		}
		raw := res[1]
		var job domain.PasswordResetJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return domain.PasswordResetJob{}, nil, fmt.Errorf("decode job: %w", err)
		}
		ack := func(success bool) error {
			if success {
				return nil
			}
			return q.client.RPush(context.Background(), q.key, raw).Err()
		}
		return job, ack, nil
	}
}
