package email

import (
	"errors"
	"strings"
	"testing"

	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
)

func testBranding() Branding {
	return Branding{
		CompanyName:    "Dee-licious Bakes",
		OwnerName:      "Dee",
		CompanyAddress: "1 Oven Lane",
		SupportEmail:   "help@example.com",
		WebsiteURL:     "https://bakes.example.com",
		Tagline:        "Cakes for every day",
	}
}

func TestRenderEveryTemplate(t *testing.T) {
	r, err := NewRenderer(testBranding())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	data := map[string]any{
		"firstName":       "Ada",
		"verifyUrl":       "https://bakes.example.com/verify-email?token=abc",
		"resetUrl":        "https://bakes.example.com/reset-password?token=abc",
		"confirmUrl":      "https://bakes.example.com/confirm?token=abc",
		"newEmail":        "new@example.com",
		"unsubscribeUrl":  "https://bakes.example.com/unsubscribe?token=abc",
		"email":           "ada@example.com",
		"unsubscribeDate": "October 19, 2026",
		"number":          "DLB-20261019-ABC123",
		"status":          "ready",
		"items": []map[string]any{
			{"name": "Lemon Cake", "quantity": 2, "total": int64(5000)},
		},
		"subtotal":    int64(5000),
		"tax":         int64(400),
		"deliveryFee": int64(0),
		"total":       int64(5400),
		"orderUrl":    "https://bakes.example.com/orders/1",
		"title":       "Unicorn cake",
		"quotedPrice": int64(12550),
		"requestUrl":  "https://bakes.example.com/requests/1",
	}
	for name, want := range subjects {
		name, want := name, want
		t.Run(name, func(t *testing.T) {
			msg, err := r.Render(name, data)
			if err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !strings.Contains(want, "{{") && msg.Subject != want {
				t.Fatalf("subject: got=%q want=%q", msg.Subject, want)
			}
			if !strings.Contains(msg.HTML, "<html") || !strings.Contains(msg.HTML, "Dee-licious Bakes") {
				t.Fatalf("html missing layout: %s", msg.HTML)
			}
			if !strings.HasPrefix(msg.Text, "This is a message from Dee-licious Bakes.") {
				t.Fatalf("text missing header: %q", msg.Text)
			}
			if strings.Contains(msg.Text, "<no value>") {
				t.Fatalf("text has unresolved field: %q", msg.Text)
			}
		})
	}
}

func TestRenderSubjectsWithFields(t *testing.T) {
	r, err := NewRenderer(testBranding())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	msg, err := r.Render(TemplateOrderStatus, map[string]any{"number": "DLB-1", "status": "preparing", "orderUrl": "x"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if msg.Subject != "Order DLB-1 is now preparing - Dee-licious Bakes" {
		t.Fatalf("subject: %q", msg.Subject)
	}
}

func TestRenderEscapesHTML(t *testing.T) {
	r, err := NewRenderer(testBranding())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	msg, err := r.Render(TemplateVerifyEmail, map[string]any{
		"firstName": "<script>alert(1)</script>",
		"verifyUrl": "https://bakes.example.com/verify-email?token=t",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Fatalf("html not escaped")
	}
	if !strings.Contains(msg.Text, "<script>alert(1)</script>") {
		t.Fatalf("text should carry the raw name")
	}
	if !strings.Contains(msg.HTML, "Verify Email Address") {
		t.Fatalf("missing button label")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := NewRenderer(testBranding())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	_, err = r.Render("birthday-card", nil)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestFormatCents(t *testing.T) {
	cases := map[any]string{
		int64(0):     "$0.00",
		int64(5):     "$0.05",
		int64(12550): "$125.50",
		-150:         "-$1.50",
	}
	for in, want := range cases {
		if got := formatCents(in); got != want {
			t.Fatalf("formatCents(%v): got=%q want=%q", in, got, want)
		}
	}
}
