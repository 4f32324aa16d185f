package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/dbquery"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type ListFilter struct {
	Search string
	Role   string
	Banned *bool
	Limit  int
	Offset int
}

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.User, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UpdateFields(dbc dbctx.Context, userID uuid.UUID, fields map[string]any) error
	SoftDelete(dbc dbctx.Context, userID uuid.UUID) error
	List(dbc dbctx.Context, f ListFilter) ([]*types.User, int64, error)
	CountByRole(dbc dbctx.Context, role string, since *time.Time, verifiedOnly bool) (int64, error)
	Recent(dbc dbctx.Context, role string, limit int) ([]*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

func (ur *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return []*types.User{}, nil
	}
	if err := dbc.DB(ur.db).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (ur *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	var results []*types.User
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(ur.db).
		Where("id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID returns nil, nil when the user does not exist.
func (ur *userRepo) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	rows, err := ur.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

func (ur *userRepo) GetByEmail(dbc dbctx.Context, email string) (*types.User, error) {
	var results []*types.User
	if err := dbc.DB(ur.db).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (ur *userRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	var count int64
	if err := dbc.DB(ur.db).
		Unscoped().
		Model(&types.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (ur *userRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return dbc.DB(ur.db).
		Model(&types.User{}).
		Where("id = ?", userID).
		Updates(fields).Error
}

// SoftDelete also frees the email so the address can register again.
func (ur *userRepo) SoftDelete(dbc dbctx.Context, userID uuid.UUID) error {
	tx := dbc.DB(ur.db)
	if err := tx.Model(&types.User{}).
		Where("id = ?", userID).
		Update("email", "deleted+"+userID.String()+"@deleted.invalid").Error; err != nil {
		return err
	}
	return tx.Where("id = ?", userID).Delete(&types.User{}).Error
}

func (ur *userRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.User, int64, error) {
	q := dbc.DB(ur.db).Model(&types.User{})
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		like := dbquery.Contains(s)
		q = q.Where(dbquery.Like("email")+" OR "+dbquery.Like("first_name")+" OR "+dbquery.Like("last_name"), like, like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.Banned != nil {
		q = q.Where("banned = ?", *f.Banned)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []*types.User
	if err := q.
		Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (ur *userRepo) CountByRole(dbc dbctx.Context, role string, since *time.Time, verifiedOnly bool) (int64, error) {
	q := dbc.DB(ur.db).Model(&types.User{}).Where("role = ?", role)
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	if verifiedOnly {
		q = q.Where("email_verified = ?", true)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

func (ur *userRepo) Recent(dbc dbctx.Context, role string, limit int) ([]*types.User, error) {
	var rows []*types.User
	err := dbc.DB(ur.db).
		Where("role = ?", role).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
