package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/pkg/queue"
	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/hibiken/asynq"
)

// AbsenceSweeper records absences for one day.
type AbsenceSweeper interface {
	MarkAbsent(ctx context.Context, day time.Time) (int, error)
}

type Handler struct {
	sender  notify.Sender
	sweeper AbsenceSweeper
	logger  *slog.Logger
	now     func() time.Time
}

func NewHandler(sender notify.Sender, sweeper AbsenceSweeper, logger *slog.Logger) *Handler {
	return &Handler{
		sender:  sender,
		sweeper: sweeper,
		logger:  logger,
		now:     time.Now,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeSendMail, h.HandleSendMail)
	mux.HandleFunc(TypeMarkAbsent, h.HandleMarkAbsent)
}

func (h *Handler) HandleSendMail(ctx context.Context, t *asynq.Task) error {
	var payload SendMailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.To == "" {
		return fmt.Errorf("mail task without recipient: %w", asynq.SkipRetry)
	}

	if err := h.sender.Send(ctx, payload.Message()); err != nil {
		h.logger.Error("mail delivery failed", "to", payload.To, "subject", payload.Subject, "error", err)
		return err
	}

	h.logger.Info("mail delivered", "to", payload.To, "subject", payload.Subject)
	return nil
}

func (h *Handler) HandleMarkAbsent(ctx context.Context, t *asynq.Task) error {
	var payload MarkAbsentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	day := util.StartOfDay(h.now().UTC())
	if payload.Date != "" {
		parsed, err := time.Parse(DateLayout, payload.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", payload.Date, asynq.SkipRetry)
		}
		day = parsed
	}

	h.logger.Info("starting absence sweep", "date", day.Format(DateLayout))
	marked, err := h.sweeper.MarkAbsent(ctx, day)
	if err != nil {
		h.logger.Error("absence sweep failed", "date", day.Format(DateLayout), "marked", marked, "error", err)
		return err
	}
	return nil
}

// RegisterSchedule adds the nightly absence sweep to scheduler.
func RegisterSchedule(scheduler *asynq.Scheduler, cronExpr string) (string, error) {
	if err := util.ValidateCronExpr(cronExpr); err != nil {
		return "", fmt.Errorf("absence sweep schedule: %w", err)
	}
	task, err := NewMarkAbsentTask(nil)
	if err != nil {
		return "", err
	}
	return scheduler.Register(cronExpr, task, asynq.Queue(queue.QueueLow))
}
