package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/newsletter"
	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	SubscribedMessage        = "Successfully subscribed! Welcome to Dee's cake newsletter."
	AlreadySubscribedMessage = "This email is already subscribed to our newsletter."
	UnsubscribedMessage      = "You have been unsubscribed from our newsletter."

	maxSubscriberNameLen  = 100
	defaultSubscriberPage = 50
)

type SubscribeInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	Source    string `json:"source"`
}

type UnsubscribeInput struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type SubscriberPage struct {
	Items  []*types.Subscriber `json:"items"`
	Total  int64               `json:"total"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

type NewsletterService interface {
	Subscribe(ctx context.Context, in SubscribeInput) (*types.Subscriber, error)
	Unsubscribe(ctx context.Context, in UnsubscribeInput) (*types.Subscriber, error)
	List(ctx context.Context, status string, limit, offset int) (*SubscriberPage, error)
	Count(ctx context.Context, status string) (int64, error)
}

type newsletterService struct {
	db             *gorm.DB
	log            *logger.Logger
	subscriberRepo repos.SubscriberRepo
	emails         EmailService
	baseURL        string
	now            func() time.Time
}

func NewNewsletterService(db *gorm.DB, log *logger.Logger, subscriberRepo repos.SubscriberRepo, emails EmailService, baseURL string) NewsletterService {
	return &newsletterService{
		db:             db,
		log:            log.With("service", "NewsletterService"),
		subscriberRepo: subscriberRepo,
		emails:         emails,
		baseURL:        strings.TrimRight(baseURL, "/"),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func checkSubscribe(in *SubscribeInput) error {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	if in.Email == "" {
		return apierr.BadRequest("invalid_email", "Email is required")
	}
	if err := checkEmail(in.Email); err != nil {
		return err
	}
	if err := checkMaxLen("First name", in.FirstName, maxSubscriberNameLen); err != nil {
		return err
	}
	if in.Source == "" {
		in.Source = "hero"
	}
	if !oneOf(in.Source, newsletter.Sources) {
		return apierr.BadRequest("invalid_source", "Source must be one of hero, inline, footer or popup")
	}
	return nil
}

func (ns *newsletterService) unsubscribeURL(token string) string {
	return ns.baseURL + "/unsubscribe?token=" + url.QueryEscape(token)
}

// Subscribe creates a subscriber or re-activates one that left earlier.
func (ns *newsletterService) Subscribe(ctx context.Context, in SubscribeInput) (*types.Subscriber, error) {
	if err := checkSubscribe(&in); err != nil {
		return nil, err
	}
	var sub *types.Subscriber
	err := ns.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		existing, err := ns.subscriberRepo.GetByEmail(dbc, in.Email)
		if err != nil {
			return fmt.Errorf("load subscriber: %w", err)
		}
		now := ns.now()
		if existing != nil {
			if existing.Status == newsletter.StatusSubscribed {
				return apierr.Conflict("already_subscribed", AlreadySubscribedMessage)
			}
			fields := map[string]any{
				"status":          newsletter.StatusSubscribed,
				"source":          in.Source,
				"subscribed_at":   now,
				"unsubscribed_at": nil,
			}
			if in.FirstName != "" {
				fields["first_name"] = in.FirstName
				existing.FirstName = in.FirstName
			}
			if err := ns.subscriberRepo.UpdateFields(dbc, existing.ID, fields); err != nil {
				return fmt.Errorf("resubscribe: %w", err)
			}
			existing.Status = newsletter.StatusSubscribed
			existing.Source = in.Source
			existing.SubscribedAt = now
			existing.UnsubscribedAt = nil
			sub = existing
			return nil
		}
		sub = &types.Subscriber{
			Email:            in.Email,
			FirstName:        in.FirstName,
			Source:           in.Source,
			Status:           newsletter.StatusSubscribed,
			UnsubscribeToken: uuid.NewString(),
			SubscribedAt:     now,
		}
		if err := ns.subscriberRepo.Create(dbc, sub); err != nil {
			return fmt.Errorf("create subscriber: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ns.log.Info("Newsletter subscription", "subscriber_id", sub.ID, "source", sub.Source)
	data := map[string]any{
		"firstName":      sub.FirstName,
		"unsubscribeUrl": ns.unsubscribeURL(sub.UnsubscribeToken),
	}
	if err := ns.emails.Send(ctx, sub.Email, email.TemplateCakeWelcome, data); err != nil {
		ns.log.Warn("Welcome email failed", "subscriber_id", sub.ID, "error", err)
	}
	return sub, nil
}

// Unsubscribe is a no-op for addresses that already left.
func (ns *newsletterService) Unsubscribe(ctx context.Context, in UnsubscribeInput) (*types.Subscriber, error) {
	addr := normalizeEmail(in.Email)
	token := strings.TrimSpace(in.Token)
	if addr == "" && token == "" {
		return nil, apierr.BadRequest("missing_identifier", "Email or token is required")
	}
	var (
		sub     *types.Subscriber
		changed bool
	)
	err := ns.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		var err error
		if token != "" {
			sub, err = ns.subscriberRepo.GetByToken(dbc, token)
		} else {
			sub, err = ns.subscriberRepo.GetByEmail(dbc, addr)
		}
		if err != nil {
			return fmt.Errorf("load subscriber: %w", err)
		}
		if sub == nil {
			return apierr.NotFound("subscriber")
		}
		if sub.Status == newsletter.StatusUnsubscribed {
			return nil
		}
		now := ns.now()
		if err := ns.subscriberRepo.UpdateFields(dbc, sub.ID, map[string]any{
			"status":          newsletter.StatusUnsubscribed,
			"unsubscribed_at": now,
		}); err != nil {
			return fmt.Errorf("unsubscribe: %w", err)
		}
		sub.Status = newsletter.StatusUnsubscribed
		sub.UnsubscribedAt = &now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return sub, nil
	}
	ns.log.Info("Newsletter unsubscription", "subscriber_id", sub.ID)
	data := map[string]any{
		"firstName":       sub.FirstName,
		"email":           sub.Email,
		"unsubscribeDate": sub.UnsubscribedAt.Format("January 2, 2006"),
	}
	if err := ns.emails.Send(ctx, sub.Email, email.TemplateCakeUnsubscribe, data); err != nil {
		ns.log.Warn("Unsubscribe confirmation email failed", "subscriber_id", sub.ID, "error", err)
	}
	return sub, nil
}

func checkSubscriberStatus(status string) error {
	if status != "" && status != newsletter.StatusSubscribed && status != newsletter.StatusUnsubscribed {
		return apierr.BadRequest("invalid_status", "Status must be subscribed or unsubscribed")
	}
	return nil
}

func (ns *newsletterService) List(ctx context.Context, status string, limit, offset int) (*SubscriberPage, error) {
	if err := checkSubscriberStatus(status); err != nil {
		return nil, err
	}
	limit = clampLimit(limit, defaultSubscriberPage, 200)
	offset = clampOffset(offset)
	rows, total, err := ns.subscriberRepo.List(dbctx.New(ctx), status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	if rows == nil {
		rows = []*types.Subscriber{}
	}
	return &SubscriberPage{Items: rows, Total: total, Limit: limit, Offset: offset}, nil
}

func (ns *newsletterService) Count(ctx context.Context, status string) (int64, error) {
	if err := checkSubscriberStatus(status); err != nil {
		return 0, err
	}
	return ns.subscriberRepo.Count(dbctx.New(ctx), status)
}
