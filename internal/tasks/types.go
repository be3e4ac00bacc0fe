package tasks

import (
	"encoding/json"
	"time"

	"github.com/adnan-tnd/flow-core/internal/notify"
	"github.com/adnan-tnd/flow-core/pkg/queue"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeSendMail   = "mail:send"
	TypeMarkAbsent = "attendance:mark_absent"
)

// DateLayout is the wire format of MarkAbsentPayload.Date.
const DateLayout = "2006-01-02"

// SendMailPayload is one outbound message.
type SendMailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (p SendMailPayload) Message() notify.Message {
	return notify.Message{To: p.To, Subject: p.Subject, Body: p.Body}
}

func NewSendMailTask(msg notify.Message) (*asynq.Task, error) {
	data, err := json.Marshal(SendMailPayload{To: msg.To, Subject: msg.Subject, Body: msg.Body})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSendMail, data, asynq.Queue(queue.QueueDefault), asynq.MaxRetry(3)), nil
}

// MarkAbsentPayload names the day to sweep. Empty means the day the task
// runs, which is what the scheduler sends.
type MarkAbsentPayload struct {
	Date string `json:"date,omitempty"`
}

func NewMarkAbsentTask(day *time.Time) (*asynq.Task, error) {
	var payload MarkAbsentPayload
	if day != nil {
		payload.Date = day.Format(DateLayout)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMarkAbsent, data, asynq.Queue(queue.QueueLow), asynq.MaxRetry(3)), nil
}
