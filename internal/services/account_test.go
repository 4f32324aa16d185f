package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/email"
)

func TestVerifyEmailLinkIsSingleUse(t *testing.T) {
	h := newHarness(t)
	registerDee(t, h)
	token := h.lastLinkToken(t, email.TemplateVerifyEmail)

	if err := h.accounts.VerifyEmail(context.Background(), token); err != nil {
		t.Fatalf("VerifyEmail: %v", err)
	}
	u, _ := h.userRepo.GetByEmail(testCtx(), "dee@example.com")
	if !u.EmailVerified {
		t.Fatalf("email not marked verified")
	}
	err := h.accounts.VerifyEmail(context.Background(), token)
	wantAPIError(t, err, http.StatusBadRequest, "invalid_token")

	err = h.accounts.ResendVerification(asUser(u))
	wantAPIError(t, err, http.StatusConflict, "already_verified")
}

func TestForgotPasswordIsSilentForUnknownEmail(t *testing.T) {
	h := newHarness(t)
	if err := h.accounts.ForgotPassword(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if n := len(h.sender.byTemplate(email.TemplateResetPassword)); n != 0 {
		t.Fatalf("sent %d reset emails for unknown user", n)
	}
}

func TestResetPasswordRevokesSessions(t *testing.T) {
	h := newHarness(t)
	registerDee(t, h)
	ctx := context.Background()
	pair, _, err := h.auth.Login(ctx, "dee@example.com", "sprinkles123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := h.accounts.ForgotPassword(ctx, "dee@example.com"); err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	token := h.lastLinkToken(t, email.TemplateResetPassword)
	if err := h.accounts.ResetPassword(ctx, token, "frosting456"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	_, err = h.auth.SetContextFromToken(ctx, pair.AccessToken)
	wantAPIError(t, err, http.StatusUnauthorized, "session_revoked")
	if _, _, err := h.auth.Login(ctx, "dee@example.com", "frosting456"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestEmailChangeFlow(t *testing.T) {
	h := newHarness(t)
	u := testutil.SeedUser(t, h.tx, "dee@example.com")
	testutil.SeedUser(t, h.tx, "taken@example.com")
	ctx := asUser(u)

	wantAPIError(t, h.accounts.RequestEmailChange(ctx, "dee@example.com"), http.StatusBadRequest, "same_email")
	wantAPIError(t, h.accounts.RequestEmailChange(ctx, "taken@example.com"), http.StatusConflict, "email_taken")

	if err := h.accounts.RequestEmailChange(ctx, "New@Example.com"); err != nil {
		t.Fatalf("RequestEmailChange: %v", err)
	}
	token := h.lastLinkToken(t, email.TemplateChangeEmail)
	updated, err := h.accounts.ConfirmEmailChange(context.Background(), token)
	if err != nil {
		t.Fatalf("ConfirmEmailChange: %v", err)
	}
	if updated.Email != "new@example.com" || !updated.EmailVerified {
		t.Fatalf("unexpected user after change: %s verified=%v", updated.Email, updated.EmailVerified)
	}
}

func TestAccountDeletionRemovesUser(t *testing.T) {
	h := newHarness(t)
	u := testutil.SeedUser(t, h.tx, "dee@example.com")
	if err := h.accounts.RequestAccountDeletion(asUser(u)); err != nil {
		t.Fatalf("RequestAccountDeletion: %v", err)
	}
	token := h.lastLinkToken(t, email.TemplateDeleteAccount)
	if err := h.accounts.ConfirmAccountDeletion(context.Background(), token); err != nil {
		t.Fatalf("ConfirmAccountDeletion: %v", err)
	}
	got, err := h.userRepo.GetByID(testCtx(), u.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Fatalf("user still visible after deletion")
	}
	if len(h.sender.byTemplate(email.TemplateAccountDeleted)) != 1 {
		t.Fatalf("expected deletion confirmation email")
	}
}
