// Package cli holds operational helpers behind the bizctl command.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/bizinsight360/bizinsight360/jobs"
)

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

// NewJobsCLI initialises the helpers using the provided Redis address.
func NewJobsCLI(redisAddr string) *JobsCLI {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	return &JobsCLI{client: asynq.NewClient(opts), inspector: asynq.NewInspector(opts)}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.inspector != nil {
		errs = append(errs, c.inspector.Close())
	}
	if c.client != nil {
		errs = append(errs, c.client.Close())
	}
	return errors.Join(errs...)
}

// TriggerableJobs lists the job names accepted by Trigger.
var TriggerableJobs = []string{jobs.TaskTypeIdempotencyCleanup}

// Trigger enqueues a supported job by name with its default payload.
func (c *JobsCLI) Trigger(ctx context.Context, name string) (*asynq.TaskInfo, error) {
	var task *asynq.Task
	switch name {
	case jobs.TaskTypeIdempotencyCleanup:
		task = jobs.NewIdempotencyCleanupTask()
	default:
		return nil, fmt.Errorf("jobs cli: unsupported job %q", name)
	}
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault))
}

// SendTestEmail enqueues a mail:send task so SMTP settings can be checked
// end to end through the worker.
func (c *JobsCLI) SendTestEmail(ctx context.Context, to string) (*asynq.TaskInfo, error) {
	if to == "" {
		return nil, errors.New("jobs cli: recipient required")
	}
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := jobs.NewSendEmailTask(jobs.SendEmailPayload{
		To:      to,
		Subject: "BizInsight360 test email",
		Body:    "This message confirms the worker can deliver email.\n",
	})
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueCritical))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// InspectQueues reports counters for every served queue. A queue that has
// never received a task reports zeros.
func (c *JobsCLI) InspectQueues(ctx context.Context) ([]QueueStats, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	known, err := c.knownQueues()
	if err != nil {
		return nil, err
	}
	names := jobs.QueueNames()
	out := make([]QueueStats, 0, len(names))
	for _, name := range names {
		stats := QueueStats{Queue: name}
		if known[name] {
			info, err := c.inspector.GetQueueInfo(name)
			if err != nil {
				return nil, fmt.Errorf("jobs cli: inspect %s: %w", name, err)
			}
			stats.Pending = info.Pending
			stats.Active = info.Active
			stats.Scheduled = info.Scheduled
			stats.Retry = info.Retry
			stats.Archived = info.Archived
		}
		out = append(out, stats)
	}
	return out, nil
}

// ListArchived returns up to size tasks per queue that exhausted their
// retries, most often undeliverable password reset emails.
func (c *JobsCLI) ListArchived(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	known, err := c.knownQueues()
	if err != nil {
		return nil, err
	}
	var out []*asynq.TaskInfo
	for _, name := range jobs.QueueNames() {
		if !known[name] {
			continue
		}
		tasks, err := c.inspector.ListArchivedTasks(name, asynq.PageSize(size), asynq.Page(1))
		if err != nil {
			return nil, fmt.Errorf("jobs cli: list archived %s: %w", name, err)
		}
		out = append(out, tasks...)
	}
	return out, nil
}

// Queues only exist in Redis after their first enqueue.
func (c *JobsCLI) knownQueues() (map[string]bool, error) {
	names, err := c.inspector.Queues()
	if err != nil {
		return nil, fmt.Errorf("jobs cli: list queues: %w", err)
	}
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	return known, nil
}
