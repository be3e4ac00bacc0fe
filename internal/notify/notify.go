// Package notify builds and delivers outbound mail. Services hand messages to
// a Dispatcher; delivery happens inline or through the job queue.
package notify

import (
	"context"
	"fmt"
	"log/slog"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"` // HTML
}

// Sender performs the actual delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher is what services depend on.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs ...Message) error
}

// Enqueuer hands a message to the background worker.
type Enqueuer interface {
	EnqueueMail(ctx context.Context, msg Message) error
}

// NewDispatcher queues mail when an enqueuer is available and sends inline
// otherwise.
func NewDispatcher(sender Sender, enqueuer Enqueuer, logger *slog.Logger) Dispatcher {
	if enqueuer != nil {
		return &queued{enqueuer: enqueuer, logger: logger}
	}
	return &inline{sender: sender, logger: logger}
}

type inline struct {
	sender Sender
	logger *slog.Logger
}

func (d *inline) Dispatch(ctx context.Context, msgs ...Message) error {
	for _, msg := range msgs {
		if err := d.sender.Send(ctx, msg); err != nil {
			return fmt.Errorf("sending mail to %s: %w", msg.To, err)
		}
		d.logger.Debug("mail sent", "to", msg.To, "subject", msg.Subject)
	}
	return nil
}

type queued struct {
	enqueuer Enqueuer
	logger   *slog.Logger
}

func (d *queued) Dispatch(ctx context.Context, msgs ...Message) error {
	for _, msg := range msgs {
		if err := d.enqueuer.EnqueueMail(ctx, msg); err != nil {
			return fmt.Errorf("queueing mail to %s: %w", msg.To, err)
		}
		d.logger.Debug("mail queued", "to", msg.To, "subject", msg.Subject)
	}
	return nil
}
