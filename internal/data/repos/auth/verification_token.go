package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type VerificationTokenRepo interface {
	Create(dbc dbctx.Context, token *types.VerificationToken) error
	GetByHash(dbc dbctx.Context, purpose, tokenHash string) (*types.VerificationToken, error)
	MarkUsed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error)
	InvalidateForUser(dbc dbctx.Context, userID uuid.UUID, purpose string, at time.Time) error
	DeleteStale(dbc dbctx.Context, now time.Time) (int64, error)
}

type verificationTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVerificationTokenRepo(db *gorm.DB, baseLog *logger.Logger) VerificationTokenRepo {
	return &verificationTokenRepo{db: db, log: baseLog.With("repo", "VerificationTokenRepo")}
}

func (r *verificationTokenRepo) Create(dbc dbctx.Context, token *types.VerificationToken) error {
	return dbc.DB(r.db).Create(token).Error
}

func (r *verificationTokenRepo) GetByHash(dbc dbctx.Context, purpose, tokenHash string) (*types.VerificationToken, error) {
	var rows []*types.VerificationToken
	if err := dbc.DB(r.db).
		Where("purpose = ? AND token_hash = ?", purpose, tokenHash).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// MarkUsed consumes the token. It returns false when another request got there first.
func (r *verificationTokenRepo) MarkUsed(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.VerificationToken{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	return res.RowsAffected == 1, res.Error
}

// InvalidateForUser burns any outstanding tokens so only the newest link works.
func (r *verificationTokenRepo) InvalidateForUser(dbc dbctx.Context, userID uuid.UUID, purpose string, at time.Time) error {
	return dbc.DB(r.db).
		Model(&types.VerificationToken{}).
		Where("user_id = ? AND purpose = ? AND used_at IS NULL", userID, purpose).
		Update("used_at", at).Error
}

func (r *verificationTokenRepo) DeleteStale(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.DB(r.db).
		Where("expires_at < ? OR used_at IS NOT NULL", now).
		Delete(&types.VerificationToken{})
	return res.RowsAffected, res.Error
}
