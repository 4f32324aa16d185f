package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/messaging"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	maxSubjectLen      = 200
	maxMessageLen      = 5000
	maxAttachments     = 10
	defaultThreadLimit = 20
	activityLimit      = 10
)

type NewThreadInput struct {
	Subject     string     `json:"subject" binding:"required,max=200"`
	Content     string     `json:"content" binding:"required,max=5000"`
	Priority    string     `json:"priority"`
	OrderID     *uuid.UUID `json:"order_id"`
	Attachments []string   `json:"attachments"`
}

type PostMessageInput struct {
	Content     string   `json:"content" binding:"required,max=5000"`
	Attachments []string `json:"attachments"`
}

type ThreadQuery struct {
	Status     string
	Priority   string
	Search     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

type ThreadPage struct {
	Items  []repos.ThreadSummary `json:"items"`
	Total  int64                 `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type MessagingStats struct {
	Threads  *repos.ThreadStats  `json:"threads"`
	Messages *repos.MessageStats `json:"messages"`
	Requests map[string]int64    `json:"requests"`
}

type MessageService interface {
	CreateThread(ctx context.Context, in NewThreadInput) (*types.MessageThread, error)
	UserThreads(ctx context.Context, q ThreadQuery) (*ThreadPage, error)
	GetThread(ctx context.Context, id uuid.UUID) (*types.MessageThread, error)
	PostMessage(ctx context.Context, threadID uuid.UUID, in PostMessageInput) (*types.Message, error)
	SetThreadStatus(ctx context.Context, threadID uuid.UUID, status string) (*types.MessageThread, error)
	UnreadCount(ctx context.Context) (int64, error)

	AllThreads(ctx context.Context, q ThreadQuery) (*ThreadPage, error)
	Stats(ctx context.Context) (*MessagingStats, error)
	RecentActivity(ctx context.Context, limit int) ([]repos.ActivityRow, error)
}

type messageService struct {
	db          *gorm.DB
	log         *logger.Logger
	threadRepo  repos.ThreadRepo
	messageRepo repos.MessageRepo
	requestRepo repos.CustomRequestRepo
	orderRepo   repos.OrderRepo
	notify      Notifier
	now         func() time.Time
}

func NewMessageService(
	db *gorm.DB,
	log *logger.Logger,
	threadRepo repos.ThreadRepo,
	messageRepo repos.MessageRepo,
	requestRepo repos.CustomRequestRepo,
	orderRepo repos.OrderRepo,
	notify Notifier,
) MessageService {
	return &messageService{
		db:          db,
		log:         log.With("service", "MessageService"),
		threadRepo:  threadRepo,
		messageRepo: messageRepo,
		requestRepo: requestRepo,
		orderRepo:   orderRepo,
		notify:      notify,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func checkContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	n := utf8.RuneCountInString(content)
	if n < 1 || n > maxMessageLen {
		return "", apierr.BadRequest("invalid_content", fmt.Sprintf("Message must be 1 to %d characters", maxMessageLen))
	}
	return content, nil
}

// attachmentsJSON validates attachment URLs and encodes them for storage.
func attachmentsJSON(urls []string) (datatypes.JSON, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	if len(urls) > maxAttachments {
		return nil, apierr.BadRequest("invalid_attachments", fmt.Sprintf("At most %d attachments are allowed", maxAttachments))
	}
	for _, u := range urls {
		if !validHTTPURL(u) {
			return nil, apierr.BadRequest("invalid_attachments", "Attachments must be http(s) URLs")
		}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return nil, fmt.Errorf("encode attachments: %w", err)
	}
	return datatypes.JSON(b), nil
}

func (ms *messageService) CreateThread(ctx context.Context, in NewThreadInput) (*types.MessageThread, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	subject := strings.TrimSpace(in.Subject)
	if n := utf8.RuneCountInString(subject); n < 1 || n > maxSubjectLen {
		return nil, apierr.BadRequest("invalid_subject", fmt.Sprintf("Subject must be 1 to %d characters", maxSubjectLen))
	}
	content, err := checkContent(in.Content)
	if err != nil {
		return nil, err
	}
	priority := in.Priority
	if priority == "" {
		priority = "normal"
	}
	if !oneOf(priority, messaging.Priorities) {
		return nil, apierr.BadRequest("invalid_priority", "Unknown priority")
	}
	attachments, err := attachmentsJSON(in.Attachments)
	if err != nil {
		return nil, err
	}

	var thread *types.MessageThread
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if in.OrderID != nil {
			o, err := ms.orderRepo.GetByID(dbc, *in.OrderID)
			if err != nil {
				return fmt.Errorf("load order: %w", err)
			}
			if o == nil || o.UserID != userID {
				return apierr.BadRequest("invalid_order", "Order not found for this account")
			}
		}
		thread = &types.MessageThread{
			UserID:        userID,
			Subject:       subject,
			Status:        messaging.ThreadOpen,
			Priority:      priority,
			OrderID:       in.OrderID,
			LastMessageAt: ms.now(),
		}
		if err := ms.threadRepo.Create(dbc, thread); err != nil {
			return fmt.Errorf("create thread: %w", err)
		}
		first := &types.Message{
			ThreadID:       thread.ID,
			SenderID:       userID,
			Content:        content,
			IsFromCustomer: true,
			Attachments:    attachments,
		}
		if err := ms.messageRepo.Create(dbc, first); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		thread.Messages = []types.Message{*first}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ms.log.Info("Message thread opened", "thread_id", thread.ID, "user_id", userID)
	if ms.notify != nil {
		ms.notify.MessagePosted(ctx, thread, &thread.Messages[0])
	}
	return thread, nil
}

func (ms *messageService) list(ctx context.Context, userID *uuid.UUID, q ThreadQuery) (*ThreadPage, error) {
	if q.Status != "" && !oneOf(q.Status, messaging.ThreadStatuses) {
		return nil, apierr.BadRequest("invalid_status", "Unknown thread status")
	}
	if q.Priority != "" && !oneOf(q.Priority, messaging.Priorities) {
		return nil, apierr.BadRequest("invalid_priority", "Unknown priority")
	}
	f := repos.ThreadFilter{
		UserID:     userID,
		Status:     q.Status,
		Priority:   q.Priority,
		Search:     q.Search,
		UnreadOnly: q.UnreadOnly,
		Limit:      clampLimit(q.Limit, defaultThreadLimit, 100),
		Offset:     clampOffset(q.Offset),
	}
	rows, total, err := ms.threadRepo.List(dbctx.New(ctx), f)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	if rows == nil {
		rows = []repos.ThreadSummary{}
	}
	return &ThreadPage{Items: rows, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (ms *messageService) UserThreads(ctx context.Context, q ThreadQuery) (*ThreadPage, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	q.Search = ""
	q.Priority = ""
	return ms.list(ctx, &userID, q)
}

func (ms *messageService) AllThreads(ctx context.Context, q ThreadQuery) (*ThreadPage, error) {
	return ms.list(ctx, nil, q)
}

// access loads a thread the caller may see and reports whether the caller
// is its owner.
func (ms *messageService) access(ctx context.Context, dbc dbctx.Context, id uuid.UUID) (*types.MessageThread, bool, uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	userID, err := requireUser(rd)
	if err != nil {
		return nil, false, uuid.Nil, err
	}
	t, err := ms.threadRepo.GetByID(dbc, id)
	if err != nil {
		return nil, false, uuid.Nil, fmt.Errorf("load thread: %w", err)
	}
	if t == nil {
		return nil, false, uuid.Nil, apierr.NotFound("thread")
	}
	owner := t.UserID == userID
	if !owner && !rd.IsAdmin() {
		return nil, false, uuid.Nil, apierr.NotFound("thread")
	}
	return t, owner, userID, nil
}

func (ms *messageService) GetThread(ctx context.Context, id uuid.UUID) (*types.MessageThread, error) {
	var out *types.MessageThread
	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		t, owner, _, err := ms.access(ctx, dbc, id)
		if err != nil {
			return err
		}
		// the viewer has now read what the other side wrote
		n, err := ms.messageRepo.MarkRead(dbc, t.ID, !owner)
		if err != nil {
			return fmt.Errorf("mark read: %w", err)
		}
		if n > 0 {
			for i := range t.Messages {
				if t.Messages[i].IsFromCustomer == !owner {
					t.Messages[i].IsRead = true
				}
			}
		}
		out = t
		return nil
	})
	return out, err
}

func (ms *messageService) PostMessage(ctx context.Context, threadID uuid.UUID, in PostMessageInput) (*types.Message, error) {
	content, err := checkContent(in.Content)
	if err != nil {
		return nil, err
	}
	attachments, err := attachmentsJSON(in.Attachments)
	if err != nil {
		return nil, err
	}
	var msg *types.Message
	var thread *types.MessageThread
	err = ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		t, owner, senderID, err := ms.access(ctx, dbc, threadID)
		if err != nil {
			return err
		}
		thread = t
		if t.Status == messaging.ThreadClosed {
			return apierr.Conflict("thread_closed", "This conversation is closed")
		}
		msg = &types.Message{
			ThreadID:       t.ID,
			SenderID:       senderID,
			Content:        content,
			IsFromCustomer: owner,
			Attachments:    attachments,
		}
		if err := ms.messageRepo.Create(dbc, msg); err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		fields := map[string]any{"last_message_at": msg.CreatedAt}
		switch {
		case owner && t.Status == messaging.ThreadPending:
			fields["status"] = messaging.ThreadOpen
		case !owner:
			fields["status"] = messaging.ThreadPending
		}
		return ms.threadRepo.UpdateFields(dbc, t.ID, fields)
	})
	if err != nil {
		return nil, err
	}
	if ms.notify != nil {
		ms.notify.MessagePosted(ctx, thread, msg)
	}
	return msg, nil
}

func (ms *messageService) SetThreadStatus(ctx context.Context, threadID uuid.UUID, status string) (*types.MessageThread, error) {
	if !oneOf(status, messaging.ThreadStatuses) {
		return nil, apierr.BadRequest("invalid_status", "Unknown thread status")
	}
	isAdmin := ctxutil.GetRequestData(ctx).IsAdmin()
	var out *types.MessageThread
	err := ms.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		t, _, _, err := ms.access(ctx, dbc, threadID)
		if err != nil {
			return err
		}
		if !isAdmin && status != messaging.ThreadClosed {
			return apierr.Forbidden("forbidden", "Customers can only close a conversation")
		}
		if err := ms.threadRepo.UpdateFields(dbc, t.ID, map[string]any{"status": status}); err != nil {
			return fmt.Errorf("update thread: %w", err)
		}
		t.Status = status
		out = t
		return nil
	})
	return out, err
}

func (ms *messageService) UnreadCount(ctx context.Context) (int64, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return 0, err
	}
	return ms.messageRepo.UnreadForUser(dbctx.New(ctx), userID)
}

func (ms *messageService) Stats(ctx context.Context) (*MessagingStats, error) {
	dbc := dbctx.New(ctx)
	threads, err := ms.threadRepo.Stats(dbc)
	if err != nil {
		return nil, fmt.Errorf("thread stats: %w", err)
	}
	messages, err := ms.messageRepo.Stats(dbc)
	if err != nil {
		return nil, fmt.Errorf("message stats: %w", err)
	}
	requests, err := ms.requestRepo.StatusCounts(dbc)
	if err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}
	return &MessagingStats{Threads: threads, Messages: messages, Requests: requests}, nil
}

func (ms *messageService) RecentActivity(ctx context.Context, limit int) ([]repos.ActivityRow, error) {
	limit = clampLimit(limit, activityLimit, 50)
	dbc := dbctx.New(ctx)
	msgs, err := ms.messageRepo.Recent(dbc, limit)
	if err != nil {
		return nil, fmt.Errorf("recent messages: %w", err)
	}
	reqs, err := ms.requestRepo.Recent(dbc, limit)
	if err != nil {
		return nil, fmt.Errorf("recent requests: %w", err)
	}
	return mergeActivity(msgs, reqs, limit), nil
}

func mergeActivity(a, b []repos.ActivityRow, limit int) []repos.ActivityRow {
	out := make([]repos.ActivityRow, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
