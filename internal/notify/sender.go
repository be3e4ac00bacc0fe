package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/adnan-tnd/flow-core/pkg/config"
)

// NewSender picks the delivery backend named by cfg.Driver.
func NewSender(cfg config.MailConfig, logger *slog.Logger) Sender {
	if cfg.Driver == "smtp" {
		return &SMTPSender{cfg: cfg}
	}
	return &LogSender{logger: logger}
}

type SMTPSender struct {
	cfg config.MailConfig
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	raw := "From: " + s.cfg.From + "\r\n" +
		"To: " + msg.To + "\r\n" +
		"Subject: " + msg.Subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" +
		msg.Body

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, []byte(raw)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes mail to the log; the development default.
type LogSender struct {
	logger *slog.Logger
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
