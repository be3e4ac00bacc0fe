package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/adnan-tnd/flow-core/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	sent []Message
	err  error
}

func (c *captureSender) Send(_ context.Context, msg Message) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

type captureEnqueuer struct {
	queued []Message
}

func (c *captureEnqueuer) EnqueueMail(_ context.Context, msg Message) error {
	c.queued = append(c.queued, msg)
	return nil
}

func TestNewDispatcher_InlineWithoutQueue(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender, nil, util.DiscardLogger())

	err := d.Dispatch(context.Background(), Message{To: "a@example.com"}, Message{To: "b@example.com"})
	require.NoError(t, err)
	assert.Len(t, sender.sent, 2)
}

func TestNewDispatcher_Queued(t *testing.T) {
	sender := &captureSender{}
	enq := &captureEnqueuer{}
	d := NewDispatcher(sender, enq, util.DiscardLogger())

	require.NoError(t, d.Dispatch(context.Background(), Message{To: "a@example.com"}))
	assert.Len(t, enq.queued, 1)
	assert.Empty(t, sender.sent)
}

func TestInline_SurfacesFailure(t *testing.T) {
	d := NewDispatcher(&captureSender{err: errors.New("connection refused")}, nil, util.DiscardLogger())

	err := d.Dispatch(context.Background(), Message{To: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a@example.com")
}

func TestLinks(t *testing.T) {
	l := Links{BaseURL: "https://flow.example.com"}
	assert.Equal(t, "https://flow.example.com/trello-board/accept-invitation/b1/tok", l.AcceptInvitation("b1", "tok"))
	assert.Equal(t, "https://flow.example.com/reset-password?token=abc", l.ResetPassword("abc"))
}

func TestTemplates_EscapeUserInput(t *testing.T) {
	msg := BoardInvitation("x@example.com", "<script>", "Board & Co", "https://x/accept")
	assert.Equal(t, "x@example.com", msg.To)
	assert.NotContains(t, msg.Body, "<script>")
	assert.Contains(t, msg.Body, "Board &amp; Co")
}
