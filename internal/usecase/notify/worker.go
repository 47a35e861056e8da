package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

const (
	maxDeliveryAttempts = 5
	resetSubject        = "Redefinição de senha"
)

// Worker читает задачи на письма из очереди и отправляет их.
type Worker struct {
	queue    domain.MailQueue
	mailer   domain.Mailer
	log      zerolog.Logger
	backoff  time.Duration
	attempts map[string]int
}

func NewWorker(queue domain.MailQueue, mailer domain.Mailer, log zerolog.Logger) *Worker {
	return &Worker{
		queue:    queue,
		mailer:   mailer,
		log:      log,
		backoff:  time.Second,
		attempts: make(map[string]int),
	}
}

// Run обрабатывает очередь до отмены контекста.
func (w *Worker) Run(ctx context.Context) {
	for {
		job, ack, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("mailer: ошибка чтения очереди")
			w.sleep(ctx)
			continue
		}
		w.handle(ctx, job, ack)
	}
}

func (w *Worker) handle(ctx context.Context, job domain.PasswordResetJob, ack domain.AckFunc) {
	jobLog := w.log.With().Str("job_id", job.ID).Logger()
	if job.Email == "" || job.ResetURL == "" {
		jobLog.Error().Msg("mailer: пустая задача, подтверждаем и пропускаем")
		if err := ack(true); err != nil {
			jobLog.Error().Err(err).Msg("mailer: не удалось подтвердить задачу")
		}
		return
	}

	err := w.mailer.Send(ctx, job.Email, resetSubject, resetBody(job))
	metrics.IncMailJob(err)
	if err == nil {
		delete(w.attempts, job.ID)
		if ackErr := ack(true); ackErr != nil {
			jobLog.Error().Err(ackErr).Msg("mailer: не удалось подтвердить задачу")
		}
		jobLog.Info().Msg("mailer: письмо отправлено")
		return
	}

	w.attempts[job.ID]++
	attempt := w.attempts[job.ID]
	jobLog = jobLog.With().Int("attempt", attempt).Logger()
	if attempt >= maxDeliveryAttempts {
		delete(w.attempts, job.ID)
		jobLog.Error().Err(err).Msg("mailer: достигнут предел попыток, задача отброшена")
		if ackErr := ack(true); ackErr != nil {
			jobLog.Error().Err(ackErr).Msg("mailer: не удалось подтвердить задачу")
		}
		return
	}
	jobLog.Warn().Err(err).Msg("mailer: отправка не удалась, повторим позже")
	if ackErr := ack(false); ackErr != nil {
		jobLog.Error().Err(ackErr).Msg("mailer: не удалось вернуть задачу в очередь")
	}
	w.sleep(ctx)
}

func (w *Worker) sleep(ctx context.Context) {
	timer := time.NewTimer(w.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func resetBody(job domain.PasswordResetJob) string {
	return fmt.Sprintf("Olá!\n\nRecebemos um pedido para redefinir a senha do painel.\n"+
		"Para criar uma nova senha, acesse:\n%s\n\n"+
		"Se você não fez este pedido, ignore este e-mail.\n", job.ResetURL)
}
