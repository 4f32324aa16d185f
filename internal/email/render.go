package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
)

const (
	TemplateResetPassword       = "reset-password"
	TemplateVerifyEmail         = "verify-email"
	TemplateChangeEmail         = "change-email"
	TemplateDeleteAccount       = "delete-account"
	TemplateAccountDeleted      = "account-deleted"
	TemplateCakeWelcome         = "cake-welcome"
	TemplateCakeUnsubscribe     = "cake-unsubscribe-confirmation"
	TemplateOrderConfirmation   = "order-confirmation"
	TemplateOrderStatus         = "order-status"
	TemplateCustomRequestQuoted = "custom-request-quoted"
)

var subjects = map[string]string{
	TemplateResetPassword:       "Reset Your Password - Dee-licious Bakes",
	TemplateVerifyEmail:         "Verify Your Email Address - Dee-licious Bakes",
	TemplateChangeEmail:         "Approve Email Address Change - Dee-licious Bakes",
	TemplateDeleteAccount:       "Confirm Account Deletion - Dee-licious Bakes",
	TemplateAccountDeleted:      "Account Deletion Confirmed - Dee-licious Bakes",
	TemplateCakeWelcome:         "Welcome to Dee-licious Bakes! 🍰",
	TemplateCakeUnsubscribe:     "Unsubscribe Confirmed - Dee-licious Bakes",
	TemplateOrderConfirmation:   "Order Confirmed: {{.number}} - Dee-licious Bakes",
	TemplateOrderStatus:         "Order {{.number}} is now {{.status}} - Dee-licious Bakes",
	TemplateCustomRequestQuoted: "Your Custom Request Has Been Quoted - Dee-licious Bakes",
}

//go:embed templates/*.html templates/*.txt
var templateFS embed.FS

// ErrUnknownTemplate is returned for names outside the registry.
var ErrUnknownTemplate = fmt.Errorf("unknown email template: %w", pkgerrors.ErrInvalidArgument)

// Rendered is a message ready to hand to a Sender.
type Rendered struct {
	Template string
	Subject  string
	HTML     string
	Text     string
}

type Renderer struct {
	brand    Branding
	subjects map[string]*texttemplate.Template
	html     map[string]*htmltemplate.Template
	text     map[string]*texttemplate.Template
}

var funcs = map[string]any{
	"money": formatCents,
	"dict":  dict,
}

// NewRenderer parses every registered template up front.
func NewRenderer(brand Branding) (*Renderer, error) {
	r := &Renderer{
		brand:    brand,
		subjects: make(map[string]*texttemplate.Template, len(subjects)),
		html:     make(map[string]*htmltemplate.Template, len(subjects)),
		text:     make(map[string]*texttemplate.Template, len(subjects)),
	}
	for name, subject := range subjects {
		st, err := texttemplate.New(name).Parse(subject)
		if err != nil {
			return nil, fmt.Errorf("parse subject %s: %w", name, err)
		}
		ht, err := htmltemplate.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html", "templates/button.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse html %s: %w", name, err)
		}
		tt, err := texttemplate.New(name).Funcs(funcs).ParseFS(templateFS,
			"templates/layout.txt", "templates/"+name+".txt")
		if err != nil {
			return nil, fmt.Errorf("parse text %s: %w", name, err)
		}
		r.subjects[name] = st
		r.html[name] = ht
		r.text[name] = tt
	}
	return r, nil
}

func Known(name string) bool {
	_, ok := subjects[name]
	return ok
}

func (r *Renderer) Render(name string, data map[string]any) (*Rendered, error) {
	if !Known(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	merged := r.brand.fields()
	for k, v := range data {
		merged[k] = v
	}

	var buf bytes.Buffer
	if err := r.subjects[name].Execute(&buf, merged); err != nil {
		return nil, fmt.Errorf("render subject %s: %w", name, err)
	}
	subject := strings.TrimSpace(buf.String())
	merged["subject"] = subject

	buf.Reset()
	if err := r.html[name].ExecuteTemplate(&buf, "layout", merged); err != nil {
		return nil, fmt.Errorf("render html %s: %w", name, err)
	}
	html := buf.String()

	buf.Reset()
	if err := r.text[name].ExecuteTemplate(&buf, "layout", merged); err != nil {
		return nil, fmt.Errorf("render text %s: %w", name, err)
	}

	return &Rendered{
		Template: name,
		Subject:  subject,
		HTML:     html,
		Text:     strings.TrimSpace(buf.String()) + "\n",
	}, nil
}

func formatCents(v any) string {
	var cents int64
	switch n := v.(type) {
	case int64:
		cents = n
	case int:
		cents = int64(n)
	case int32:
		cents = int64(n)
	case *int64:
		if n != nil {
			cents = *n
		}
	case float64:
		cents = int64(n)
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}

func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	out := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		out[k] = kv[i+1]
	}
	return out, nil
}
