package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/observability"
	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/envutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/httpx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type EmailService interface {
	Send(ctx context.Context, to, template string, data map[string]any) error
}

type EmailConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

func EmailConfigFromEnv() EmailConfig {
	return EmailConfig{
		MaxAttempts: envutil.Int("EMAIL_MAX_ATTEMPTS", 3),
		RetryDelay:  time.Duration(envutil.Int("EMAIL_RETRY_DELAY_MS", 1000)) * time.Millisecond,
	}
}

type emailService struct {
	log      *logger.Logger
	renderer *email.Renderer
	sender   email.Sender
	cfg      EmailConfig
}

func NewEmailService(log *logger.Logger, renderer *email.Renderer, sender email.Sender, cfg EmailConfig) EmailService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	return &emailService{
		log:      log.With("service", "EmailService"),
		renderer: renderer,
		sender:   sender,
		cfg:      cfg,
	}
}

func (es *emailService) Send(ctx context.Context, to, template string, data map[string]any) error {
	to = normalizeEmail(to)
	if !emailPattern.MatchString(to) {
		return fmt.Errorf("invalid recipient %q: %w", to, pkgerrors.ErrInvalidArgument)
	}
	msg, err := es.renderer.Render(template, data)
	if err != nil {
		return err
	}
	name, _ := data["firstName"].(string)
	env := email.Envelope{To: to, ToName: name, Message: msg}

	var lastErr error
	for attempt := 1; attempt <= es.cfg.MaxAttempts; attempt++ {
		lastErr = es.sender.Send(ctx, env)
		if lastErr == nil {
			observability.Current().IncEmailSent(template, "sent")
			es.log.Info("Email sent", "template", template, "sender", es.sender.Name(), "attempt", attempt)
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			break
		}
		es.log.Warn("Email send failed", "template", template, "attempt", attempt, "error", lastErr)
		if attempt < es.cfg.MaxAttempts {
			if err := httpx.Sleep(ctx, es.cfg.RetryDelay*time.Duration(attempt)); err != nil {
				lastErr = err
				break
			}
		}
	}
	observability.Current().IncEmailSent(template, "failed")
	return fmt.Errorf("send %s email: %w", template, lastErr)
}
