package messaging

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/dbquery"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/messaging"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type ThreadFilter struct {
	UserID     *uuid.UUID
	Status     string
	Priority   string
	Search     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// ThreadSummary is a thread with its message counters. UnreadCount counts
// messages the thread owner has not read.
type ThreadSummary struct {
	types.MessageThread
	MessageCount int64 `json:"message_count"`
	UnreadCount  int64 `json:"unread_count"`
}

type ThreadStats struct {
	Open       int64 `json:"open"`
	Pending    int64 `json:"pending"`
	Closed     int64 `json:"closed"`
	UrgentOpen int64 `json:"urgent_open"`
}

type ThreadRepo interface {
	Create(dbc dbctx.Context, t *types.MessageThread) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MessageThread, error)
	List(dbc dbctx.Context, f ThreadFilter) ([]ThreadSummary, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	Stats(dbc dbctx.Context) (*ThreadStats, error)
}

type threadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewThreadRepo(db *gorm.DB, baseLog *logger.Logger) ThreadRepo {
	return &threadRepo{db: db, log: baseLog.With("repo", "ThreadRepo")}
}

func (r *threadRepo) Create(dbc dbctx.Context, t *types.MessageThread) error {
	return dbc.DB(r.db).Create(t).Error
}

func (r *threadRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MessageThread, error) {
	var rows []*types.MessageThread
	if err := dbc.DB(r.db).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

const unreadForCustomer = "(SELECT COUNT(*) FROM message WHERE message.thread_id = message_thread.id AND message.is_from_customer = ? AND message.is_read = ?)"

func (r *threadRepo) List(dbc dbctx.Context, f ThreadFilter) ([]ThreadSummary, int64, error) {
	q := dbc.DB(r.db).Model(&types.MessageThread{})
	if f.UserID != nil {
		q = q.Where("message_thread.user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("message_thread.status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("message_thread.priority = ?", f.Priority)
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := dbquery.Contains(s)
		q = q.Where("("+dbquery.Like("message_thread.subject")+` OR EXISTS (
			SELECT 1 FROM message WHERE message.thread_id = message_thread.id AND `+dbquery.Like("message.content")+"))", like, like)
	}
	if f.UnreadOnly {
		q = q.Where(unreadForCustomer+" > ?", false, false, 0)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []ThreadSummary
	if err := q.
		Select("message_thread.*, "+
			"(SELECT COUNT(*) FROM message WHERE message.thread_id = message_thread.id) AS message_count, "+
			unreadForCustomer+" AS unread_count", false, false).
		Order("message_thread.last_message_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *threadRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.MessageThread{}).Where("id = ?", id).Updates(fields).Error
}

func (r *threadRepo) Stats(dbc dbctx.Context) (*ThreadStats, error) {
	var s ThreadStats
	err := dbc.DB(r.db).Model(&types.MessageThread{}).
		Select(`COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS open,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS closed,
			COALESCE(SUM(CASE WHEN status = ? AND priority = ? THEN 1 ELSE 0 END), 0) AS urgent_open`,
			messaging.ThreadOpen, messaging.ThreadPending, messaging.ThreadClosed, messaging.ThreadOpen, "urgent").
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type MessageStats struct {
	Total               int64 `json:"total"`
	UnreadFromCustomers int64 `json:"unread_from_customers"`
}

type ActivityRow struct {
	Type      string    `json:"type"`
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageRepo interface {
	Create(dbc dbctx.Context, m *types.Message) error
	MarkRead(dbc dbctx.Context, threadID uuid.UUID, fromCustomer bool) (int64, error)
	UnreadForUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	Stats(dbc dbctx.Context) (*MessageStats, error)
	Recent(dbc dbctx.Context, limit int) ([]ActivityRow, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: baseLog.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, m *types.Message) error {
	return dbc.DB(r.db).Create(m).Error
}

// MarkRead marks the messages written by one side of the thread as read.
func (r *messageRepo) MarkRead(dbc dbctx.Context, threadID uuid.UUID, fromCustomer bool) (int64, error) {
	res := dbc.DB(r.db).Model(&types.Message{}).
		Where("thread_id = ? AND is_from_customer = ? AND is_read = ?", threadID, fromCustomer, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// UnreadForUser counts bakery replies the customer has not read yet.
func (r *messageRepo) UnreadForUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Message{}).
		Joins("JOIN message_thread ON message_thread.id = message.thread_id").
		Where("message_thread.user_id = ? AND message.is_from_customer = ? AND message.is_read = ?", userID, false, false).
		Count(&n).Error
	return n, err
}

func (r *messageRepo) Stats(dbc dbctx.Context) (*MessageStats, error) {
	var s MessageStats
	err := dbc.DB(r.db).Model(&types.Message{}).
		Select(`COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN is_from_customer = ? AND is_read = ? THEN 1 ELSE 0 END), 0) AS unread_from_customers`,
			true, false).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *messageRepo) Recent(dbc dbctx.Context, limit int) ([]ActivityRow, error) {
	var rows []ActivityRow
	err := dbc.DB(r.db).Table("message").
		Select("'message' AS type, message.id AS id, message_thread.subject AS title, message.created_at AS created_at").
		Joins("JOIN message_thread ON message_thread.id = message.thread_id").
		Order("message.created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
