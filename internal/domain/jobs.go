package domain

import (
	"context"
	"time"
)

// PasswordResetJob — задача на отправку письма со ссылкой для сброса пароля.
type PasswordResetJob struct {
	ID          string    `json:"job_id,omitempty"`
	Email       string    `json:"email"`
	Token       string    `json:"token"`
	ResetURL    string    `json:"reset_url"`
	RequestedAt time.Time `json:"requested_at"`
}

// MailQueue описывает очередь задач на отправку писем.
type MailQueue interface {
	Enqueue(ctx context.Context, job PasswordResetJob) error
	Receive(ctx context.Context) (PasswordResetJob, AckFunc, error)
}

// AckFunc подтверждает успешную обработку или запрашивает повтор доставки задачи.
type AckFunc func(success bool) error
