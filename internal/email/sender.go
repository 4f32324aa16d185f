package email

import (
	"context"
	"fmt"

	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/sendgrid"
)

// Envelope is one rendered message addressed to one recipient.
type Envelope struct {
	To      string
	ToName  string
	Message *Rendered
}

type Sender interface {
	Send(ctx context.Context, env Envelope) error
	Name() string
}

type sendGridSender struct {
	client  sendgrid.Client
	from    sendgrid.EmailAddress
	replyTo *sendgrid.EmailAddress
}

func NewSendGridSender(client sendgrid.Client, fromEmail, fromName, replyTo string) Sender {
	s := &sendGridSender{
		client: client,
		from:   sendgrid.EmailAddress{Email: fromEmail, Name: fromName},
	}
	if replyTo != "" {
		s.replyTo = &sendgrid.EmailAddress{Email: replyTo}
	}
	return s
}

func (s *sendGridSender) Name() string { return "sendgrid" }

func (s *sendGridSender) Send(ctx context.Context, env Envelope) error {
	if env.Message == nil {
		return fmt.Errorf("empty message")
	}
	_, err := s.client.Send(ctx, sendgrid.SendEmailRequest{
		From:       s.from,
		ReplyTo:    s.replyTo,
		To:         []sendgrid.EmailAddress{{Email: env.To, Name: env.ToName}},
		Subject:    env.Message.Subject,
		Text:       env.Message.Text,
		HTML:       env.Message.HTML,
		Categories: []string{env.Message.Template},
	})
	return err
}

type logSender struct {
	log *logger.Logger
}

// NewLogSender writes messages to the log instead of delivering them.
func NewLogSender(log *logger.Logger) Sender {
	return &logSender{log: log.With("service", "LogEmailSender")}
}

func (s *logSender) Name() string { return "log" }

func (s *logSender) Send(_ context.Context, env Envelope) error {
	if env.Message == nil {
		return fmt.Errorf("empty message")
	}
	s.log.Info("Email not delivered (no provider configured)",
		"recipient", env.To,
		"template", env.Message.Template,
		"subject", env.Message.Subject,
		"text_bytes", len(env.Message.Text),
	)
	return nil
}
