package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/auth"
	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const (
	verifyEmailTTL   = 24 * time.Hour
	resetPasswordTTL = time.Hour
	changeEmailTTL   = 24 * time.Hour
	deleteAccountTTL = 24 * time.Hour
)

// AccountService owns every flow driven by an emailed single-use link.
type AccountService interface {
	SendVerification(ctx context.Context, user *types.User) error
	ResendVerification(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	RequestEmailChange(ctx context.Context, newEmail string) error
	ConfirmEmailChange(ctx context.Context, token string) (*types.User, error)
	RequestAccountDeletion(ctx context.Context) error
	ConfirmAccountDeletion(ctx context.Context, token string) error
}

type accountService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	verifyRepo    repos.VerificationTokenRepo
	cartRepo      repos.CartRepo
	wishlistRepo  repos.WishlistRepo
	avatarRepo    repos.UserAvatarRepo
	emails        EmailService
	baseURL       string
	bcryptCost    int
	now           func() time.Time
}

func NewAccountService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	verifyRepo repos.VerificationTokenRepo,
	cartRepo repos.CartRepo,
	wishlistRepo repos.WishlistRepo,
	avatarRepo repos.UserAvatarRepo,
	emails EmailService,
	baseURL string,
	bcryptCost int,
) AccountService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &accountService{
		db:            db,
		log:           log.With("service", "AccountService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		verifyRepo:    verifyRepo,
		cartRepo:      cartRepo,
		wishlistRepo:  wishlistRepo,
		avatarRepo:    avatarRepo,
		emails:        emails,
		baseURL:       strings.TrimRight(baseURL, "/"),
		bcryptCost:    bcryptCost,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *accountService) link(path, raw string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(raw)
}

// issue replaces any outstanding token of the same purpose for the user.
func (s *accountService) issue(dbc dbctx.Context, userID uuid.UUID, purpose, newEmail string, ttl time.Duration) (string, error) {
	raw, hash, err := newRawToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	if err := s.verifyRepo.InvalidateForUser(dbc, userID, purpose, now); err != nil {
		return "", fmt.Errorf("invalidate %s tokens: %w", purpose, err)
	}
	if err := s.verifyRepo.Create(dbc, &types.VerificationToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: hash,
		NewEmail:  newEmail,
		ExpiresAt: now.Add(ttl),
	}); err != nil {
		return "", fmt.Errorf("create %s token: %w", purpose, err)
	}
	return raw, nil
}

// consume marks the token used; expired, used and unknown tokens all fail the same way.
func (s *accountService) consume(dbc dbctx.Context, purpose, raw string) (*types.VerificationToken, error) {
	invalid := apierr.BadRequest("invalid_token", "This link is invalid or has expired")
	if strings.TrimSpace(raw) == "" {
		return nil, invalid
	}
	tok, err := s.verifyRepo.GetByHash(dbc, purpose, hashToken(raw))
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}
	now := s.now()
	if tok == nil || !tok.Usable(now) {
		return nil, invalid
	}
	ok, err := s.verifyRepo.MarkUsed(dbc, tok.ID, now)
	if err != nil {
		return nil, fmt.Errorf("mark token used: %w", err)
	}
	if !ok {
		return nil, invalid
	}
	return tok, nil
}

func (s *accountService) currentUser(ctx context.Context) (*types.User, error) {
	userID, err := requireUser(ctxutil.GetRequestData(ctx))
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, apierr.NotFound("user")
	}
	return user, nil
}

func (s *accountService) SendVerification(ctx context.Context, user *types.User) error {
	raw, err := s.issue(dbctx.New(ctx), user.ID, auth.PurposeVerifyEmail, "", verifyEmailTTL)
	if err != nil {
		return err
	}
	return s.emails.Send(ctx, user.Email, email.TemplateVerifyEmail, map[string]any{
		"firstName": user.FirstName,
		"verifyUrl": s.link("/verify-email", raw),
	})
}

func (s *accountService) ResendVerification(ctx context.Context) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return apierr.Conflict("already_verified", "Email is already verified")
	}
	return s.SendVerification(ctx, user)
}

func (s *accountService) VerifyEmail(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		tok, err := s.consume(dbc, auth.PurposeVerifyEmail, token)
		if err != nil {
			return err
		}
		return s.userRepo.UpdateFields(dbc, tok.UserID, map[string]any{"email_verified": true})
	})
}

func (s *accountService) ForgotPassword(ctx context.Context, emailAddr string) error {
	emailAddr = normalizeEmail(emailAddr)
	if !validEmail(emailAddr) {
		return nil
	}
	user, err := s.userRepo.GetByEmail(dbctx.New(ctx), emailAddr)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil || user.Banned {
		return nil
	}
	raw, err := s.issue(dbctx.New(ctx), user.ID, auth.PurposeResetPassword, "", resetPasswordTTL)
	if err != nil {
		return err
	}
	if err := s.emails.Send(ctx, user.Email, email.TemplateResetPassword, map[string]any{
		"firstName": user.FirstName,
		"resetUrl":  s.link("/reset-password", raw),
	}); err != nil {
		s.log.Warn("Reset password email failed", "user_id", user.ID, "error", err)
	}
	return nil
}

func (s *accountService) ResetPassword(ctx context.Context, token, password string) error {
	if err := checkPassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		tok, err := s.consume(dbc, auth.PurposeResetPassword, token)
		if err != nil {
			return err
		}
		if err := s.userRepo.UpdateFields(dbc, tok.UserID, map[string]any{"password": string(hash)}); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		return s.userTokenRepo.DeleteByUserIDs(dbc, []uuid.UUID{tok.UserID})
	})
}

func (s *accountService) RequestEmailChange(ctx context.Context, newEmail string) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	newEmail = normalizeEmail(newEmail)
	if err := checkEmail(newEmail); err != nil {
		return err
	}
	if newEmail == user.Email {
		return apierr.BadRequest("same_email", "New email matches the current one")
	}
	dbc := dbctx.New(ctx)
	taken, err := s.userRepo.EmailExists(dbc, newEmail)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return apierr.Conflict("email_taken", "An account with this email already exists")
	}
	raw, err := s.issue(dbc, user.ID, auth.PurposeChangeEmail, newEmail, changeEmailTTL)
	if err != nil {
		return err
	}
	return s.emails.Send(ctx, user.Email, email.TemplateChangeEmail, map[string]any{
		"firstName":  user.FirstName,
		"newEmail":   newEmail,
		"confirmUrl": s.link("/confirm-email-change", raw),
	})
}

func (s *accountService) ConfirmEmailChange(ctx context.Context, token string) (*types.User, error) {
	var updated *types.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		tok, err := s.consume(dbc, auth.PurposeChangeEmail, token)
		if err != nil {
			return err
		}
		taken, err := s.userRepo.EmailExists(dbc, tok.NewEmail)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return apierr.Conflict("email_taken", "An account with this email already exists")
		}
		if err := s.userRepo.UpdateFields(dbc, tok.UserID, map[string]any{
			"email":          tok.NewEmail,
			"email_verified": true,
		}); err != nil {
			return fmt.Errorf("update email: %w", err)
		}
		updated, err = s.userRepo.GetByID(dbc, tok.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *accountService) RequestAccountDeletion(ctx context.Context) error {
	user, err := s.currentUser(ctx)
	if err != nil {
		return err
	}
	raw, err := s.issue(dbctx.New(ctx), user.ID, auth.PurposeDeleteAccount, "", deleteAccountTTL)
	if err != nil {
		return err
	}
	return s.emails.Send(ctx, user.Email, email.TemplateDeleteAccount, map[string]any{
		"firstName":  user.FirstName,
		"confirmUrl": s.link("/confirm-delete", raw),
	})
}

func (s *accountService) ConfirmAccountDeletion(ctx context.Context, token string) error {
	var deleted *types.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		tok, err := s.consume(dbc, auth.PurposeDeleteAccount, token)
		if err != nil {
			return err
		}
		user, err := s.userRepo.GetByID(dbc, tok.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil {
			return apierr.NotFound("user")
		}
		if err := s.userTokenRepo.DeleteByUserIDs(dbc, []uuid.UUID{user.ID}); err != nil {
			return fmt.Errorf("delete sessions: %w", err)
		}
		if err := s.cartRepo.DeleteByUserID(dbc, user.ID); err != nil {
			return fmt.Errorf("delete carts: %w", err)
		}
		if err := s.wishlistRepo.DeleteByUserID(dbc, user.ID); err != nil {
			return fmt.Errorf("delete wishlists: %w", err)
		}
		if err := s.avatarRepo.Delete(dbc, user.ID); err != nil {
			return fmt.Errorf("delete avatar: %w", err)
		}
		if err := s.userRepo.SoftDelete(dbc, user.ID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		deleted = user
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.emails.Send(ctx, deleted.Email, email.TemplateAccountDeleted, map[string]any{
		"firstName": deleted.FirstName,
	}); err != nil {
		s.log.Warn("Account deleted email failed", "user_id", deleted.ID, "error", err)
	}
	s.log.Info("Account deleted", "user_id", deleted.ID)
	return nil
}
