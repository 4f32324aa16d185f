package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

// HeaderSessionID keys the guest cart for anonymous shoppers.
const HeaderSessionID = "X-Session-Id"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			response.AbortAPIError(c, apierr.Unauthorized("unauthorized", "Missing or invalid token"))
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			response.AbortAPIError(c, err)
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			response.AbortAPIError(c, apierr.Unauthorized("unauthorized", "Missing or invalid token"))
			return
		}
		rd.SessionID = sessionHeader(c)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and
// otherwise lets the request through as a guest.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if tokenString := extractBearerToken(c); tokenString != "" {
			authed, err := am.authService.SetContextFromToken(ctx, tokenString)
			if err == nil {
				ctx = authed
			} else {
				am.log.Debug("Ignoring invalid token on optional route", "error", err)
			}
		}
		if rd := ctxutil.GetRequestData(ctx); rd != nil {
			rd.SessionID = sessionHeader(c)
		} else if sid := sessionHeader(c); sid != "" {
			ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{SessionID: sid})
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			response.AbortAPIError(c, apierr.Unauthorized("unauthorized", "Missing or invalid token"))
			return
		}
		if !rd.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorEnvelope{
				Error: response.APIError{Message: "Admin access required", Code: "forbidden"},
			})
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}

func sessionHeader(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(HeaderSessionID))
}
