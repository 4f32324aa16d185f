package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
)

func registerDee(t *testing.T, h *harness) {
	t.Helper()
	_, err := h.auth.Register(context.Background(), RegisterInput{
		Email:     "Dee@Example.com",
		Password:  "sprinkles123",
		FirstName: "Dee",
		LastName:  "Baker",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRegisterNormalizesEmailAndRejectsDuplicates(t *testing.T) {
	h := newHarness(t)
	registerDee(t, h)

	u, err := h.userRepo.GetByEmail(testCtx(), "dee@example.com")
	if err != nil || u == nil {
		t.Fatalf("user not stored under normalized email: %v", err)
	}
	if u.Password == "sprinkles123" {
		t.Fatalf("password stored in clear text")
	}
	if len(h.sender.byTemplate(email.TemplateVerifyEmail)) != 1 {
		t.Fatalf("expected a verification email")
	}

	_, err = h.auth.Register(context.Background(), RegisterInput{
		Email: "dee@example.com", Password: "sprinkles123", FirstName: "Dee", LastName: "Baker",
	})
	wantAPIError(t, err, http.StatusConflict, "email_taken")
}

func TestRegisterValidatesInput(t *testing.T) {
	h := newHarness(t)
	cases := []struct {
		name string
		in   RegisterInput
		code string
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "sprinkles123", FirstName: "A", LastName: "B"}, "invalid_email"},
		{"short password", RegisterInput{Email: "a@b.co", Password: "short", FirstName: "A", LastName: "B"}, "invalid_password"},
		{"missing name", RegisterInput{Email: "a@b.co", Password: "sprinkles123", FirstName: " ", LastName: "B"}, "invalid_name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.auth.Register(context.Background(), tc.in)
			wantAPIError(t, err, http.StatusBadRequest, tc.code)
		})
	}
}

func TestLoginRefreshLogout(t *testing.T) {
	h := newHarness(t)
	registerDee(t, h)
	ctx := context.Background()

	_, _, err := h.auth.Login(ctx, "dee@example.com", "wrong-password")
	wantAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")

	pair, user, err := h.auth.Login(ctx, " DEE@example.com ", "sprinkles123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.ExpiresIn != 3600 || user.Email != "dee@example.com" {
		t.Fatalf("unexpected login result: %+v %s", pair, user.Email)
	}

	authed, err := h.auth.SetContextFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(authed)
	if rd == nil || rd.UserID != user.ID || rd.Role != "user" {
		t.Fatalf("request data not set: %+v", rd)
	}

	next, err := h.auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatalf("refresh token not rotated")
	}
	_, err = h.auth.Refresh(ctx, pair.RefreshToken)
	wantAPIError(t, err, http.StatusUnauthorized, "invalid_refresh_token")
	_, err = h.auth.SetContextFromToken(ctx, pair.AccessToken)
	wantAPIError(t, err, http.StatusUnauthorized, "session_revoked")

	authed, err = h.auth.SetContextFromToken(ctx, next.AccessToken)
	if err != nil {
		t.Fatalf("SetContextFromToken after refresh: %v", err)
	}
	if err := h.auth.Logout(authed); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, err = h.auth.SetContextFromToken(ctx, next.AccessToken)
	wantAPIError(t, err, http.StatusUnauthorized, "session_revoked")
}

func TestBannedUserCannotLogin(t *testing.T) {
	h := newHarness(t)
	registerDee(t, h)
	u, _ := h.userRepo.GetByEmail(testCtx(), "dee@example.com")
	if err := h.userRepo.UpdateFields(testCtx(), u.ID, map[string]any{"banned": true}); err != nil {
		t.Fatalf("ban: %v", err)
	}
	_, _, err := h.auth.Login(context.Background(), "dee@example.com", "sprinkles123")
	wantAPIError(t, err, http.StatusForbidden, "account_banned")
}

func TestSetContextRejectsGarbage(t *testing.T) {
	h := newHarness(t)
	_, err := h.auth.SetContextFromToken(context.Background(), "not.a.jwt")
	wantAPIError(t, err, http.StatusUnauthorized, "invalid_token")
}
