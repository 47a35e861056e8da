package queue

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"pix-storefront/internal/domain"
)

const (
	BackendRabbitMQ = "rabbitmq"
	BackendRedis    = "redis"
)

// OpenMailQueue выбирает реализацию очереди писем по имени бэкенда.
// Возвращаемая функция закрывает соединение с брокером.
func OpenMailQueue(backend, amqpURL string, rdb *redis.Client, key string) (domain.MailQueue, func() error, error) {
	switch backend {
	case BackendRabbitMQ, "":
		if amqpURL == "" {
			return nil, nil, fmt.Errorf("queue: не указан адрес RabbitMQ (RABBITMQ_URL)")
		}
		q, err := NewRabbitMailQueue(amqpURL, key)
		if err != nil {
			return nil, nil, err
		}
		return q, q.Close, nil
	case BackendRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("queue: redis client is required")
		}
		return NewRedisMailQueue(rdb, key), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("queue: неизвестный бэкенд %q", backend)
	}
}
