package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, *types.User, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type AuthConfig struct {
	JWTSecretKey string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	BcryptCost   int
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	db             *gorm.DB
	log            *logger.Logger
	userRepo       repos.UserRepo
	userTokenRepo  repos.UserTokenRepo
	avatarService  AvatarService
	accountService AccountService
	cfg            AuthConfig
	now            func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	avatarService AvatarService,
	accountService AccountService,
	cfg AuthConfig,
) AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		db:             db,
		log:            log.With("service", "AuthService"),
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		avatarService:  avatarService,
		accountService: accountService,
		cfg:            cfg,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (as *authService) GetAccessTTL() time.Duration { return as.cfg.AccessTTL }

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	email := normalizeEmail(in.Email)
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword(in.Password); err != nil {
		return nil, err
	}
	if err := checkName("First name", first); err != nil {
		return nil, err
	}
	if err := checkName("Last name", last); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), as.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    string(hash),
		FirstName:   first,
		LastName:    last,
		Role:        types.RoleUser,
		AvatarColor: as.avatarService.PickColor(),
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		exists, err := as.userRepo.EmailExists(dbc, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if exists {
			return apierr.Conflict("email_taken", "An account with this email already exists")
		}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := as.accountService.SendVerification(ctx, user); err != nil {
		as.log.Warn("Verification email failed after registration", "user_id", user.ID, "error", err)
	}
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, *types.User, error) {
	email = normalizeEmail(email)
	invalid := apierr.Unauthorized("invalid_credentials", "Invalid email or password")
	if email == "" || password == "" {
		return nil, nil, invalid
	}
	user, err := as.userRepo.GetByEmail(dbctx.New(ctx), email)
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, invalid
	}
	if user.Banned {
		return nil, nil, apierr.Forbidden("account_banned", "This account has been suspended")
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = as.issueSession(dbctx.WithTx(ctx, tx), user)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	as.log.Info("User logged in", "user_id", user.ID)
	return pair, user, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apierr.Unauthorized("invalid_refresh_token", "Refresh token is required")
	}
	var pair *TokenPair
	var expired bool
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		existing, err := as.userTokenRepo.GetByRefreshToken(dbc, refreshToken)
		if err != nil {
			return fmt.Errorf("load refresh token: %w", err)
		}
		if existing == nil {
			return apierr.Unauthorized("invalid_refresh_token", "Refresh token is invalid")
		}
		if !existing.ExpiresAt.After(as.now()) {
			expired = true
			return as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{existing.ID})
		}
		user, err := as.userRepo.GetByID(dbc, existing.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if user == nil || user.Banned {
			if err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
				return err
			}
			return apierr.Unauthorized("invalid_refresh_token", "Refresh token is invalid")
		}
		if err := as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("delete old session: %w", err)
		}
		pair, err = as.issueSession(dbc, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	if expired {
		return nil, apierr.Unauthorized("refresh_token_expired", "Refresh token has expired")
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return fmt.Errorf("no session in context: %w", pkgerrors.ErrUnauthorized)
	}
	dbc := dbctx.New(ctx)
	tok, err := as.userTokenRepo.GetByAccessToken(dbc, rd.TokenString)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if tok == nil {
		return nil
	}
	return as.userTokenRepo.DeleteByIDs(dbc, []uuid.UUID{tok.ID})
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims := &accessClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return ctx, apierr.Unauthorized("invalid_token", "Invalid or expired access token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("invalid_token", "Invalid access token subject")
	}
	dbc := dbctx.New(ctx)
	session, err := as.userTokenRepo.GetByAccessToken(dbc, tokenString)
	if err != nil {
		return ctx, fmt.Errorf("load session: %w", err)
	}
	if session == nil || session.UserID != userID {
		return ctx, apierr.Unauthorized("session_revoked", "Session is no longer valid")
	}
	user, err := as.userRepo.GetByID(dbc, userID)
	if err != nil {
		return ctx, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return ctx, apierr.Unauthorized("invalid_token", "User no longer exists")
	}
	if user.Banned {
		return ctx, apierr.Forbidden("account_banned", "This account has been suspended")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString:  tokenString,
		RefreshToken: session.RefreshToken,
		UserID:       user.ID,
		Role:         user.Role,
	}), nil
}

func (as *authService) issueSession(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return nil, err
	}
	row := &types.UserToken{
		ID:           uuid.New(),
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: uuid.New().String(),
		ExpiresAt:    as.now().Add(as.cfg.RefreshTTL),
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: row.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(as.cfg.AccessTTL.Seconds()),
	}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.now()
	claims := accessClaims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
