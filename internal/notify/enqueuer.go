package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskTypeApprovalEvent is the asynq task type for approval notifications.
const TaskTypeApprovalEvent = "notify:approval_event"

// NewApprovalEventTask constructs an asynq task for the event.
func NewApprovalEventTask(event Event) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeApprovalEvent, data), nil
}

// NewApprovalEventHandler returns the worker-side handler that hands decoded
// events to the Notifier.
func NewApprovalEventHandler(notifier Notifier) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var event Event
		if err := json.Unmarshal(t.Payload(), &event); err != nil {
			return asynq.SkipRetry
		}
		return notifier.Notify(ctx, event)
	}
}

// Enqueuer queues approval events for the worker. Enqueue is best-effort:
// failures are logged and never fail the operation that produced the event.
type Enqueuer struct {
	client *asynq.Client
	logger *slog.Logger
}

// NewEnqueuer constructs an Enqueuer. A nil client disables queueing.
func NewEnqueuer(client *asynq.Client, logger *slog.Logger) *Enqueuer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enqueuer{client: client, logger: logger}
}

// Enqueue queues one event.
func (e *Enqueuer) Enqueue(ctx context.Context, event Event) {
	if e == nil || e.client == nil {
		return
	}
	task, err := NewApprovalEventTask(event)
	if err != nil {
		e.logger.Warn("build notification task", slog.Any("error", err))
		return
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		e.logger.Warn("enqueue notification", slog.Any("error", err))
	}
}
