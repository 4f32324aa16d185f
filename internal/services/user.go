package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type UserListResult struct {
	Items  []*types.User `json:"items"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdateProfile(ctx context.Context, firstName, lastName string) (*types.User, error)
	ChangePassword(ctx context.Context, current, next string) error
	GetAvatar(ctx context.Context) ([]byte, error)
	UploadAvatar(ctx context.Context, raw []byte) error

	ListUsers(ctx context.Context, f repos.UserListFilter) (*UserListResult, error)
	SetRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error)
	Ban(ctx context.Context, userID uuid.UUID, reason string) (*types.User, error)
	Unban(ctx context.Context, userID uuid.UUID) (*types.User, error)
}

type userService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	avatarService AvatarService
	bcryptCost    int
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, userTokenRepo repos.UserTokenRepo, avatarService AvatarService, bcryptCost int) UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		db:            db,
		log:           log.With("service", "UserService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		avatarService: avatarService,
		bcryptCost:    bcryptCost,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	return us.load(dbctx.New(ctx), userID)
}

func (us *userService) load(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	user, err := us.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.NotFound("user")
	}
	return user, nil
}

func (us *userService) UpdateProfile(ctx context.Context, firstName, lastName string) (*types.User, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	first, last := strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if err := checkName("First name", first); err != nil {
		return nil, err
	}
	if err := checkName("Last name", last); err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	if err := us.userRepo.UpdateFields(dbc, userID, map[string]any{"first_name": first, "last_name": last}); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return us.load(dbc, userID)
}

func (us *userService) ChangePassword(ctx context.Context, current, next string) error {
	rd := ctxutil.GetRequestData(ctx)
	userID, err := requireUser(rd)
	if err != nil {
		return err
	}
	if err := checkPassword(next); err != nil {
		return err
	}
	return us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		user, err := us.load(dbc, userID)
		if err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
			return apierr.BadRequest("invalid_current_password", "Current password is incorrect")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(next), us.bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		if err := us.userRepo.UpdateFields(dbc, userID, map[string]any{"password": string(hash)}); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		return us.userTokenRepo.DeleteByUserIDExcept(dbc, userID, rd.TokenString)
	})
}

func (us *userService) GetAvatar(ctx context.Context) ([]byte, error) {
	user, err := us.GetMe(ctx)
	if err != nil {
		return nil, err
	}
	return us.avatarService.Get(ctx, user)
}

func (us *userService) UploadAvatar(ctx context.Context, raw []byte) error {
	user, err := us.GetMe(ctx)
	if err != nil {
		return err
	}
	return us.avatarService.Upload(ctx, user, raw)
}

func (us *userService) ListUsers(ctx context.Context, f repos.UserListFilter) (*UserListResult, error) {
	f.Limit = clampLimit(f.Limit, 20, 100)
	f.Offset = clampOffset(f.Offset)
	if f.Role != "" && f.Role != types.RoleUser && f.Role != types.RoleAdmin {
		return nil, apierr.BadRequest("invalid_role", "Role must be user or admin")
	}
	items, total, err := us.userRepo.List(dbctx.New(ctx), f)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &UserListResult{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (us *userService) SetRole(ctx context.Context, userID uuid.UUID, role string) (*types.User, error) {
	adminID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	if role != types.RoleUser && role != types.RoleAdmin {
		return nil, apierr.BadRequest("invalid_role", "Role must be user or admin")
	}
	if userID == adminID && role != types.RoleAdmin {
		return nil, apierr.BadRequest("cannot_demote_self", "You cannot remove your own admin role")
	}
	dbc := dbctx.New(ctx)
	if _, err := us.load(dbc, userID); err != nil {
		return nil, err
	}
	if err := us.userRepo.UpdateFields(dbc, userID, map[string]any{"role": role}); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	us.log.Info("User role changed", "user_id", userID, "role", role)
	return us.load(dbc, userID)
}

func (us *userService) Ban(ctx context.Context, userID uuid.UUID, reason string) (*types.User, error) {
	adminID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	if userID == adminID {
		return nil, apierr.BadRequest("cannot_ban_self", "You cannot ban yourself")
	}
	reason = strings.TrimSpace(reason)
	if err := checkMaxLen("Reason", reason, 500); err != nil {
		return nil, err
	}
	var out *types.User
	err = us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if _, err := us.load(dbc, userID); err != nil {
			return err
		}
		if err := us.userRepo.UpdateFields(dbc, userID, map[string]any{"banned": true, "ban_reason": reason}); err != nil {
			return fmt.Errorf("ban user: %w", err)
		}
		if err := us.userTokenRepo.DeleteByUserIDs(dbc, []uuid.UUID{userID}); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		out, err = us.load(dbc, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	us.log.Info("User banned", "user_id", userID)
	return out, nil
}

func (us *userService) Unban(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	dbc := dbctx.New(ctx)
	if _, err := us.load(dbc, userID); err != nil {
		return nil, err
	}
	if err := us.userRepo.UpdateFields(dbc, userID, map[string]any{"banned": false, "ban_reason": ""}); err != nil {
		return nil, fmt.Errorf("unban user: %w", err)
	}
	return us.load(dbc, userID)
}
