package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/yungbote/deelicious-bakes-backend/internal/domain/newsletter"
	"github.com/yungbote/deelicious-bakes-backend/internal/email"
)

func TestSubscribeLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sub, err := h.newsletter.Subscribe(ctx, SubscribeInput{Email: " Fan@Example.com ", FirstName: "Sam"})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if sub.Email != "fan@example.com" || sub.Source != "hero" || sub.Status != newsletter.StatusSubscribed {
		t.Fatalf("unexpected subscriber: %+v", sub)
	}
	welcome := h.sender.byTemplate(email.TemplateCakeWelcome)
	if len(welcome) != 1 || !strings.Contains(welcome[0].Message.Text, "/unsubscribe?token="+sub.UnsubscribeToken) {
		t.Fatalf("welcome email missing unsubscribe link")
	}

	_, err = h.newsletter.Subscribe(ctx, SubscribeInput{Email: "fan@example.com"})
	wantAPIError(t, err, http.StatusConflict, "already_subscribed")

	out, err := h.newsletter.Unsubscribe(ctx, UnsubscribeInput{Token: sub.UnsubscribeToken})
	if err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	if out.Status != newsletter.StatusUnsubscribed || out.UnsubscribedAt == nil {
		t.Fatalf("not unsubscribed: %+v", out)
	}
	if _, err := h.newsletter.Unsubscribe(ctx, UnsubscribeInput{Email: "fan@example.com"}); err != nil {
		t.Fatalf("second Unsubscribe: %v", err)
	}
	if n := len(h.sender.byTemplate(email.TemplateCakeUnsubscribe)); n != 1 {
		t.Fatalf("expected one unsubscribe email, got %d", n)
	}

	back, err := h.newsletter.Subscribe(ctx, SubscribeInput{Email: "fan@example.com", Source: "footer"})
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if back.ID != sub.ID || back.Status != newsletter.StatusSubscribed || back.Source != "footer" {
		t.Fatalf("resubscribe should reuse the row: %+v", back)
	}

	n, err := h.newsletter.Count(ctx, newsletter.StatusSubscribed)
	if err != nil || n != 1 {
		t.Fatalf("Count: %d %v", n, err)
	}
	page, err := h.newsletter.List(ctx, "", 0, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Limit != 50 {
		t.Fatalf("unexpected page: %+v", page)
	}
	_, err = h.newsletter.List(ctx, "bounced", 0, 0)
	wantAPIError(t, err, http.StatusBadRequest, "invalid_status")
}

func TestSubscribeAndUnsubscribeValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.newsletter.Subscribe(ctx, SubscribeInput{Email: "  "})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_email")
	_, err = h.newsletter.Subscribe(ctx, SubscribeInput{Email: "fan@example.com", Source: "billboard"})
	wantAPIError(t, err, http.StatusBadRequest, "invalid_source")

	_, err = h.newsletter.Unsubscribe(ctx, UnsubscribeInput{})
	wantAPIError(t, err, http.StatusBadRequest, "missing_identifier")
	_, err = h.newsletter.Unsubscribe(ctx, UnsubscribeInput{Token: "nope"})
	wantAPIError(t, err, http.StatusNotFound, "not_found")
}
