package newsletter

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type SubscriberRepo interface {
	Create(dbc dbctx.Context, s *types.Subscriber) error
	GetByEmail(dbc dbctx.Context, email string) (*types.Subscriber, error)
	GetByToken(dbc dbctx.Context, token string) (*types.Subscriber, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	List(dbc dbctx.Context, status string, limit, offset int) ([]*types.Subscriber, int64, error)
	Count(dbc dbctx.Context, status string) (int64, error)
}

type subscriberRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubscriberRepo(db *gorm.DB, baseLog *logger.Logger) SubscriberRepo {
	return &subscriberRepo{db: db, log: baseLog.With("repo", "SubscriberRepo")}
}

func (r *subscriberRepo) Create(dbc dbctx.Context, s *types.Subscriber) error {
	return dbc.DB(r.db).Create(s).Error
}

func (r *subscriberRepo) first(q *gorm.DB) (*types.Subscriber, error) {
	var rows []*types.Subscriber
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *subscriberRepo) GetByEmail(dbc dbctx.Context, email string) (*types.Subscriber, error) {
	return r.first(dbc.DB(r.db).Where("email = ?", strings.ToLower(strings.TrimSpace(email))))
}

func (r *subscriberRepo) GetByToken(dbc dbctx.Context, token string) (*types.Subscriber, error) {
	if token == "" {
		return nil, nil
	}
	return r.first(dbc.DB(r.db).Where("unsubscribe_token = ?", token))
}

func (r *subscriberRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Subscriber{}).Where("id = ?", id).Updates(fields).Error
}

func (r *subscriberRepo) List(dbc dbctx.Context, status string, limit, offset int) ([]*types.Subscriber, int64, error) {
	q := dbc.DB(r.db).Model(&types.Subscriber{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*types.Subscriber
	if err := q.Order("subscribed_at DESC").Limit(limit).Offset(offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *subscriberRepo) Count(dbc dbctx.Context, status string) (int64, error) {
	q := dbc.DB(r.db).Model(&types.Subscriber{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}
