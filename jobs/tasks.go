package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bizinsight360/bizinsight360/internal/jobs"
	"github.com/bizinsight360/bizinsight360/internal/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueCritical carries user-facing mail.
	QueueCritical = "critical"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeIdempotencyCleanup purges expired idempotency keys.
	TaskTypeIdempotencyCleanup = "maintenance:idempotency_cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// NewIdempotencyCleanupTask constructs the periodic cleanup task.
func NewIdempotencyCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdempotencyCleanup, nil, asynq.MaxRetry(1))
}

// EmailHandler delivers mail:send tasks.
type EmailHandler struct {
	Sender  mail.Sender
	Metrics *jobmetrics.Metrics
	Logger  *slog.Logger
}

// Handle processes TaskTypeSendEmail tasks. Malformed payloads are not retried.
func (h EmailHandler) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := h.Metrics.Track(TaskTypeSendEmail)
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.To == "" {
		return tracker.End(fmt.Errorf("decode %s payload: %w", TaskTypeSendEmail, asynq.SkipRetry))
	}
	err := h.Sender.Send(ctx, mail.Message{To: payload.To, Subject: payload.Subject, Body: payload.Body})
	if err == nil && h.Logger != nil {
		h.Logger.Info("email sent", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	}
	return tracker.End(err)
}

// KeyCleaner removes idempotency keys older than a retention window.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CleanupHandler processes TaskTypeIdempotencyCleanup tasks.
type CleanupHandler struct {
	Store     KeyCleaner
	Retention time.Duration
	Metrics   *jobmetrics.Metrics
	Logger    *slog.Logger
}

// Handle deletes expired keys.
func (h CleanupHandler) Handle(ctx context.Context, _ *asynq.Task) error {
	tracker := h.Metrics.Track(TaskTypeIdempotencyCleanup)
	removed, err := h.Store.Cleanup(ctx, h.Retention)
	if err == nil && h.Logger != nil {
		h.Logger.Info("idempotency keys purged", slog.Int64("removed", removed))
	}
	return tracker.End(err)
}
