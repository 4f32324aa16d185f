package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type UserAvatarRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserAvatar, error)
	Upsert(dbc dbctx.Context, userID uuid.UUID, png []byte) error
	Delete(dbc dbctx.Context, userID uuid.UUID) error
}

type userAvatarRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAvatarRepo(db *gorm.DB, baseLog *logger.Logger) UserAvatarRepo {
	return &userAvatarRepo{db: db, log: baseLog.With("repo", "UserAvatarRepo")}
}

func (r *userAvatarRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserAvatar, error) {
	var rows []*types.UserAvatar
	if err := dbc.DB(r.db).Where("user_id = ?", userID).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *userAvatarRepo) Upsert(dbc dbctx.Context, userID uuid.UUID, png []byte) error {
	row := &types.UserAvatar{UserID: userID, PNG: png, UpdatedAt: time.Now().UTC()}
	return dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"png", "updated_at"}),
	}).Create(row).Error
}

func (r *userAvatarRepo) Delete(dbc dbctx.Context, userID uuid.UUID) error {
	return dbc.DB(r.db).Where("user_id = ?", userID).Delete(&types.UserAvatar{}).Error
}
