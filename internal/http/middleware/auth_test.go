package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

type stubAuth struct {
	users map[string]*ctxutil.RequestData
}

func (s *stubAuth) Register(context.Context, services.RegisterInput) (*types.User, error) {
	return nil, nil
}
func (s *stubAuth) Login(context.Context, string, string) (*services.TokenPair, *types.User, error) {
	return nil, nil, nil
}
func (s *stubAuth) Refresh(context.Context, string) (*services.TokenPair, error) { return nil, nil }
func (s *stubAuth) Logout(context.Context) error                                 { return nil }
func (s *stubAuth) GetAccessTTL() time.Duration                                  { return time.Hour }

func (s *stubAuth) SetContextFromToken(ctx context.Context, token string) (context.Context, error) {
	rd, ok := s.users[token]
	if !ok {
		return ctx, apierr.Unauthorized("invalid_token", "Invalid or expired access token")
	}
	cp := *rd
	return ctxutil.WithRequestData(ctx, &cp), nil
}

func newAuthRouter(t *testing.T) (*gin.Engine, uuid.UUID, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	customer, admin := uuid.New(), uuid.New()
	am := NewAuthMiddleware(log, &stubAuth{users: map[string]*ctxutil.RequestData{
		"customer-token": {UserID: customer, Role: "user"},
		"admin-token":    {UserID: admin, Role: "admin"},
	}})

	whoami := func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil {
			c.JSON(http.StatusOK, gin.H{"user": "", "session": ""})
			return
		}
		user := ""
		if rd.UserID != uuid.Nil {
			user = rd.UserID.String()
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "session": rd.SessionID})
	}

	r := gin.New()
	r.GET("/me", am.RequireAuth(), whoami)
	r.GET("/cart", am.OptionalAuth(), whoami)
	r.GET("/admin", am.RequireAuth(), am.RequireAdmin(), whoami)
	return r, customer, admin
}

func serve(r *gin.Engine, path, token, session string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if session != "" {
		req.Header.Set(HeaderSessionID, session)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	r, customer, _ := newAuthRouter(t)

	if rec := serve(r, "/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got=%d", rec.Code)
	}
	if rec := serve(r, "/me", "bogus", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got=%d", rec.Code)
	}
	rec := serve(r, "/me", "customer-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("valid token: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), customer.String()) {
		t.Fatalf("user not attached: %s", rec.Body.String())
	}
}

func TestOptionalAuthFallsBackToGuest(t *testing.T) {
	r, customer, _ := newAuthRouter(t)

	rec := serve(r, "/cart", "", "guest-abc")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"session":"guest-abc"`) {
		t.Fatalf("guest session: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = serve(r, "/cart", "stale", "guest-abc")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"user":""`) {
		t.Fatalf("stale token should act as guest: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = serve(r, "/cart", "customer-token", "guest-abc")
	if !strings.Contains(rec.Body.String(), customer.String()) || !strings.Contains(rec.Body.String(), `"session":"guest-abc"`) {
		t.Fatalf("authenticated cart: body=%s", rec.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	r, _, _ := newAuthRouter(t)

	if rec := serve(r, "/admin", "customer-token", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("customer on admin route: got=%d", rec.Code)
	}
	if rec := serve(r, "/admin", "admin-token", ""); rec.Code != http.StatusOK {
		t.Fatalf("admin route: got=%d", rec.Code)
	}
}
