package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// RabbitMailQueue реализует очередь писем поверх AMQP.
type RabbitMailQueue struct {
	conn  *amqp.Connection
	queue string

	mu         sync.Mutex
	pubCh      *amqp.Channel
	consumeCh  *amqp.Channel
	deliveries <-chan amqp.Delivery
}

var _ domain.MailQueue = (*RabbitMailQueue)(nil)

// NewRabbitMailQueue подключается к брокеру и объявляет устойчивую очередь.
func NewRabbitMailQueue(amqpURL, queue string) (*RabbitMailQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitMailQueue{conn: conn, queue: queue, pubCh: ch}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitMailQueue) Enqueue(ctx context.Context, job domain.PasswordResetJob) error {
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
	q.mu.Lock()
	defer q.mu.Unlock()
	start := time.Now()
	err = q.pubCh.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Timestamp:    job.RequestedAt,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Receive блокирующе читает задачу. Ack подтверждает обработку или возвращает задачу в очередь.
func (q *RabbitMailQueue) Receive(ctx context.Context) (domain.PasswordResetJob, domain.AckFunc, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.PasswordResetJob{}, nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return domain.PasswordResetJob{}, nil, ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return domain.PasswordResetJob{}, nil, errors.New("rabbitmq: delivery channel closed")
			}
			var job domain.PasswordResetJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				// битое сообщение не вернётся в очередь
				_ = d.Nack(false, false)
				continue
			}
			ack := func(success bool) error {
				if success {
					return d.Ack(false)
				}
				return d.Nack(false, true)
			}
			return job, ack, nil
		}
	}
}

func (q *RabbitMailQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	ch, err := q.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.consumeCh = ch
	q.deliveries = deliveries
	return deliveries, nil
}

// Close закрывает каналы и соединение.
func (q *RabbitMailQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.consumeCh != nil {
		_ = q.consumeCh.Close()
	}
	if q.pubCh != nil {
		_ = q.pubCh.Close()
	}
	return q.conn.Close()
}
