package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/middleware"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type AuthHandler struct {
	log            *logger.Logger
	authService    services.AuthService
	accountService services.AccountService
	cartService    services.CartService
}

func NewAuthHandler(
	log *logger.Logger,
	authService services.AuthService,
	accountService services.AccountService,
	cartService services.CartService,
) *AuthHandler {
	return &AuthHandler{
		log:            log.With("handler", "AuthHandler"),
		authService:    authService,
		accountService: accountService,
		cartService:    cartService,
	}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"user": user})
}

// Login folds the caller's guest cart into their account when the
// X-Session-Id header is present.
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	pair, user, err := ah.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if sid := strings.TrimSpace(c.GetHeader(middleware.HeaderSessionID)); sid != "" && ah.cartService != nil {
		if err := ah.cartService.MergeGuestCart(ctx, user.ID, sid); err != nil {
			ah.log.Warn("Guest cart merge failed", "user_id", user.ID, "error", err)
		}
	}
	response.RespondOK(c, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"token_type":    pair.TokenType,
		"expires_in":    pair.ExpiresIn,
		"user":          user,
	})
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pair, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, pair)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (ah *AuthHandler) VerifyEmail(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.accountService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Email verified"})
}

// ForgotPassword answers 200 whether or not the address is known.
func (ah *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.accountService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "If that email is registered, a reset link is on its way"})
}

func (ah *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.accountService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Password updated"})
}

func (ah *AuthHandler) ConfirmEmailChange(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := ah.accountService.ConfirmEmailChange(c.Request.Context(), req.Token)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

func (ah *AuthHandler) ConfirmDelete(c *gin.Context) {
	var req tokenRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.accountService.ConfirmAccountDeletion(c.Request.Context(), req.Token); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Account deleted"})
}
