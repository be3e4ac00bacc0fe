package tasks

import (
	"context"
	"fmt"

	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/hibiken/asynq"
)

// TaskClient is the part of *asynq.Client the enqueuer needs.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer queues mail for the worker. It implements notify.Enqueuer.
type Enqueuer struct {
	client TaskClient
}

func NewEnqueuer(client TaskClient) *Enqueuer {
	return &Enqueuer{client: client}
}

var _ notify.Enqueuer = (*Enqueuer)(nil)

func (e *Enqueuer) EnqueueMail(ctx context.Context, msg notify.Message) error {
	task, err := NewSendMailTask(msg)
	if err != nil {
		return fmt.Errorf("creating mail task: %w", err)
	}
	if _, err := e.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("enqueueing mail task: %w", err)
	}
	return nil
}
