package messaging

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/dbquery"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/messaging"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type RequestFilter struct {
	UserID   *uuid.UUID
	Status   string
	Type     string
	HasQuote *bool
	Search   string
	Limit    int
	Offset   int
}

type CustomRequestRepo interface {
	Create(dbc dbctx.Context, req *types.CustomRequest) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CustomRequest, error)
	List(dbc dbctx.Context, f RequestFilter) ([]*types.CustomRequest, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error
	StatusCounts(dbc dbctx.Context) (map[string]int64, error)
	Recent(dbc dbctx.Context, limit int) ([]ActivityRow, error)
}

type customRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomRequestRepo(db *gorm.DB, baseLog *logger.Logger) CustomRequestRepo {
	return &customRequestRepo{db: db, log: baseLog.With("repo", "CustomRequestRepo")}
}

func (r *customRequestRepo) Create(dbc dbctx.Context, req *types.CustomRequest) error {
	return dbc.DB(r.db).Create(req).Error
}

func (r *customRequestRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.CustomRequest, error) {
	var rows []*types.CustomRequest
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *customRequestRepo) List(dbc dbctx.Context, f RequestFilter) ([]*types.CustomRequest, int64, error) {
	q := dbc.DB(r.db).Model(&types.CustomRequest{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("request_type = ?", f.Type)
	}
	if f.HasQuote != nil {
		if *f.HasQuote {
			q = q.Where("quoted_price_cents IS NOT NULL")
		} else {
			q = q.Where("quoted_price_cents IS NULL")
		}
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := dbquery.Contains(s)
		q = q.Where(dbquery.Like("title")+" OR "+dbquery.Like("description"), like, like)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*types.CustomRequest
	if err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *customRequestRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.CustomRequest{}).Where("id = ?", id).Updates(fields).Error
}

func (r *customRequestRepo) StatusCounts(dbc dbctx.Context) (map[string]int64, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := dbc.DB(r.db).Model(&types.CustomRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(messaging.RequestStatuses))
	for _, s := range messaging.RequestStatuses {
		out[s] = 0
	}
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

func (r *customRequestRepo) Recent(dbc dbctx.Context, limit int) ([]ActivityRow, error) {
	var rows []ActivityRow
	err := dbc.DB(r.db).Table("custom_request").
		Select("'custom_request' AS type, id, title, created_at").
		Order("created_at DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
