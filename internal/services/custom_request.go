package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/messaging"
	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	maxRequestTitleLen  = 200
	maxRequestDescLen   = 2000
	maxBudgetRangeLen   = 50
	maxAdminNotesLen    = 1000
	maxReferenceImages  = 10
	defaultRequestLimit = 20
)

type CustomRequestInput struct {
	RequestType     string         `json:"request_type" binding:"required"`
	Title           string         `json:"title" binding:"required,max=200"`
	Description     string         `json:"description" binding:"required,max=2000"`
	Specifications  map[string]any `json:"specifications"`
	ReferenceImages []string       `json:"reference_images"`
	BudgetRange     string         `json:"budget_range" binding:"max=50"`
	EventDate       *time.Time     `json:"event_date"`
}

type CustomRequestUpdate struct {
	Status           *string `json:"status"`
	AdminNotes       *string `json:"admin_notes"`
	QuotedPriceCents *int64  `json:"quoted_price_cents"`
}

type RequestQuery struct {
	Status   string
	Type     string
	HasQuote *bool
	Search   string
	Limit    int
	Offset   int
}

type RequestPage struct {
	Items  []*types.CustomRequest `json:"items"`
	Total  int64                  `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
}

type CustomRequestService interface {
	Create(ctx context.Context, in CustomRequestInput) (*types.CustomRequest, error)
	UserRequests(ctx context.Context, q RequestQuery) (*RequestPage, error)
	Get(ctx context.Context, id uuid.UUID) (*types.CustomRequest, error)
	Approve(ctx context.Context, id uuid.UUID) (*types.CustomRequest, error)
	Decline(ctx context.Context, id uuid.UUID) (*types.CustomRequest, error)

	AllRequests(ctx context.Context, q RequestQuery) (*RequestPage, error)
	Update(ctx context.Context, id uuid.UUID, in CustomRequestUpdate) (*types.CustomRequest, error)
}

type customRequestService struct {
	db          *gorm.DB
	log         *logger.Logger
	requestRepo repos.CustomRequestRepo
	userRepo    repos.UserRepo
	emails      EmailService
	notify      Notifier
	baseURL     string
	now         func() time.Time
}

func NewCustomRequestService(
	db *gorm.DB,
	log *logger.Logger,
	requestRepo repos.CustomRequestRepo,
	userRepo repos.UserRepo,
	emails EmailService,
	notify Notifier,
	baseURL string,
) CustomRequestService {
	return &customRequestService{
		db:          db,
		log:         log.With("service", "CustomRequestService"),
		requestRepo: requestRepo,
		userRepo:    userRepo,
		emails:      emails,
		notify:      notify,
		baseURL:     strings.TrimRight(baseURL, "/"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (rs *customRequestService) Create(ctx context.Context, in CustomRequestInput) (*types.CustomRequest, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	if !oneOf(in.RequestType, messaging.RequestTypes) {
		return nil, apierr.BadRequest("invalid_request_type", "Unknown request type")
	}
	title := strings.TrimSpace(in.Title)
	if n := utf8.RuneCountInString(title); n < 1 || n > maxRequestTitleLen {
		return nil, apierr.BadRequest("invalid_title", fmt.Sprintf("Title must be 1 to %d characters", maxRequestTitleLen))
	}
	desc := strings.TrimSpace(in.Description)
	if n := utf8.RuneCountInString(desc); n < 1 || n > maxRequestDescLen {
		return nil, apierr.BadRequest("invalid_description", fmt.Sprintf("Description must be 1 to %d characters", maxRequestDescLen))
	}
	budget := strings.TrimSpace(in.BudgetRange)
	if err := checkMaxLen("Budget range", budget, maxBudgetRangeLen); err != nil {
		return nil, err
	}
	if in.EventDate != nil && !in.EventDate.After(rs.now()) {
		return nil, apierr.BadRequest("invalid_event_date", "Event date must be in the future")
	}
	if len(in.ReferenceImages) > maxReferenceImages {
		return nil, apierr.BadRequest("invalid_reference_images", fmt.Sprintf("At most %d reference images are allowed", maxReferenceImages))
	}
	for _, u := range in.ReferenceImages {
		if !validHTTPURL(u) {
			return nil, apierr.BadRequest("invalid_reference_images", "Reference images must be http(s) URLs")
		}
	}

	req := &types.CustomRequest{
		UserID:      userID,
		RequestType: in.RequestType,
		Title:       title,
		Description: desc,
		BudgetRange: budget,
		EventDate:   in.EventDate,
		Status:      messaging.RequestPending,
	}
	if len(in.Specifications) > 0 {
		b, err := json.Marshal(in.Specifications)
		if err != nil {
			return nil, apierr.BadRequest("invalid_specifications", "Specifications must be a JSON object")
		}
		req.Specifications = datatypes.JSON(b)
	}
	if len(in.ReferenceImages) > 0 {
		b, err := json.Marshal(in.ReferenceImages)
		if err != nil {
			return nil, fmt.Errorf("encode reference images: %w", err)
		}
		req.ReferenceImages = datatypes.JSON(b)
	}
	if err := rs.requestRepo.Create(dbctx.New(ctx), req); err != nil {
		return nil, fmt.Errorf("create custom request: %w", err)
	}
	rs.log.Info("Custom request submitted", "request_id", req.ID, "user_id", userID, "type", req.RequestType)
	return req, nil
}

func (rs *customRequestService) list(ctx context.Context, userID *uuid.UUID, q RequestQuery) (*RequestPage, error) {
	if q.Status != "" && !oneOf(q.Status, messaging.RequestStatuses) {
		return nil, apierr.BadRequest("invalid_status", "Unknown request status")
	}
	if q.Type != "" && !oneOf(q.Type, messaging.RequestTypes) {
		return nil, apierr.BadRequest("invalid_request_type", "Unknown request type")
	}
	f := repos.RequestFilter{
		UserID:   userID,
		Status:   q.Status,
		Type:     q.Type,
		HasQuote: q.HasQuote,
		Search:   q.Search,
		Limit:    clampLimit(q.Limit, defaultRequestLimit, 100),
		Offset:   clampOffset(q.Offset),
	}
	rows, total, err := rs.requestRepo.List(dbctx.New(ctx), f)
	if err != nil {
		return nil, fmt.Errorf("list custom requests: %w", err)
	}
	if rows == nil {
		rows = []*types.CustomRequest{}
	}
	return &RequestPage{Items: rows, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (rs *customRequestService) UserRequests(ctx context.Context, q RequestQuery) (*RequestPage, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	q.Search = ""
	q.HasQuote = nil
	return rs.list(ctx, &userID, q)
}

func (rs *customRequestService) AllRequests(ctx context.Context, q RequestQuery) (*RequestPage, error) {
	return rs.list(ctx, nil, q)
}

func (rs *customRequestService) Get(ctx context.Context, id uuid.UUID) (*types.CustomRequest, error) {
	rd := ctxutil.GetRequestData(ctx)
	userID, err := requireUser(rd)
	if err != nil {
		return nil, err
	}
	req, err := rs.requestRepo.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load custom request: %w", err)
	}
	if req == nil || (req.UserID != userID && !rd.IsAdmin()) {
		return nil, apierr.NotFound("custom request")
	}
	return req, nil
}

// respond records the customer's answer to a quote.
func (rs *customRequestService) respond(ctx context.Context, id uuid.UUID, status string) (*types.CustomRequest, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	var out *types.CustomRequest
	err = rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		req, err := rs.requestRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load custom request: %w", err)
		}
		if req == nil || req.UserID != userID {
			return apierr.NotFound("custom request")
		}
		if req.Status != messaging.RequestQuoted {
			return apierr.Conflict("not_quoted", "Only quoted requests can be approved or declined")
		}
		if err := rs.requestRepo.UpdateFields(dbc, id, map[string]any{"status": status}); err != nil {
			return fmt.Errorf("update custom request: %w", err)
		}
		req.Status = status
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	rs.log.Info("Custom request answered", "request_id", id, "status", status)
	if rs.notify != nil {
		rs.notify.CustomRequestUpdated(ctx, out)
	}
	return out, nil
}

func (rs *customRequestService) Approve(ctx context.Context, id uuid.UUID) (*types.CustomRequest, error) {
	return rs.respond(ctx, id, messaging.RequestApproved)
}

func (rs *customRequestService) Decline(ctx context.Context, id uuid.UUID) (*types.CustomRequest, error) {
	return rs.respond(ctx, id, messaging.RequestDeclined)
}

// Update applies an admin review. Quoting a pending or reviewing request
// moves it to quoted and notifies the customer.
func (rs *customRequestService) Update(ctx context.Context, id uuid.UUID, in CustomRequestUpdate) (*types.CustomRequest, error) {
	if in.Status != nil && !oneOf(*in.Status, messaging.RequestStatuses) {
		return nil, apierr.BadRequest("invalid_status", "Unknown request status")
	}
	if in.AdminNotes != nil {
		if err := checkMaxLen("Admin notes", *in.AdminNotes, maxAdminNotesLen); err != nil {
			return nil, err
		}
	}
	if in.QuotedPriceCents != nil && *in.QuotedPriceCents <= 0 {
		return nil, apierr.BadRequest("invalid_price", "Quoted price must be positive")
	}

	var (
		out    *types.CustomRequest
		quoted bool
	)
	err := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		req, err := rs.requestRepo.GetByID(dbc, id)
		if err != nil {
			return fmt.Errorf("load custom request: %w", err)
		}
		if req == nil {
			return apierr.NotFound("custom request")
		}
		fields := map[string]any{}
		if in.AdminNotes != nil {
			notes := strings.TrimSpace(*in.AdminNotes)
			fields["admin_notes"] = notes
			req.AdminNotes = notes
		}
		if in.Status != nil {
			fields["status"] = *in.Status
			req.Status = *in.Status
		}
		if in.QuotedPriceCents != nil {
			fields["quoted_price_cents"] = *in.QuotedPriceCents
			req.QuotedPriceCents = in.QuotedPriceCents
			if in.Status == nil && (req.Status == messaging.RequestPending || req.Status == messaging.RequestReviewing) {
				fields["status"] = messaging.RequestQuoted
				req.Status = messaging.RequestQuoted
			}
		}
		quoted = req.Status == messaging.RequestQuoted && req.QuotedPriceCents != nil &&
			(in.QuotedPriceCents != nil || in.Status != nil)
		if err := rs.requestRepo.UpdateFields(dbc, id, fields); err != nil {
			return fmt.Errorf("update custom request: %w", err)
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	rs.log.Info("Custom request updated", "request_id", id, "status", out.Status)
	if quoted {
		rs.sendQuote(ctx, out)
	}
	if rs.notify != nil {
		rs.notify.CustomRequestUpdated(ctx, out)
	}
	return out, nil
}

func (rs *customRequestService) sendQuote(ctx context.Context, req *types.CustomRequest) {
	u, err := rs.userRepo.GetByID(dbctx.New(ctx), req.UserID)
	if err != nil || u == nil {
		rs.log.Warn("Could not load request customer", "request_id", req.ID, "error", err)
		return
	}
	data := map[string]any{
		"firstName":   u.FirstName,
		"title":       req.Title,
		"quotedPrice": *req.QuotedPriceCents,
		"adminNotes":  req.AdminNotes,
		"requestUrl":  rs.baseURL + "/custom-requests/" + req.ID.String(),
	}
	if err := rs.emails.Send(ctx, u.Email, email.TemplateCustomRequestQuoted, data); err != nil {
		rs.log.Warn("Quote email failed", "request_id", req.ID, "error", err)
	}
}
