package sendgrid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, url string, retries int) Client {
	t.Helper()
	log, _ := logger.New("test")
	c, err := New(log, Config{
		APIKey:           "SG.test",
		BaseURL:          url,
		DefaultFromEmail: "hello@deeliciousbakes.com",
		DefaultFromName:  "Dee-licious Bakes",
		Timeout:          5 * time.Second,
		MaxRetries:       retries,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSendBuildsMailSendPayload(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v3/mail/send" || r.Header.Get("Authorization") != "Bearer SG.test" {
			t.Errorf("unexpected request: %s %s", r.URL.Path, r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Message-Id", "msg-1")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv.URL, 0).Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "dee@example.com"}},
		Subject: " Verify ",
		Text:    "plain",
		HTML:    "<p>html</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if res.StatusCode != http.StatusAccepted || res.MessageID != "msg-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got.From.Email != "hello@deeliciousbakes.com" || got.Subject != "Verify" {
		t.Fatalf("defaults not applied: %+v", got)
	}
	if len(got.Content) != 2 || got.Content[0].Type != "text/plain" {
		t.Fatalf("content order wrong: %+v", got.Content)
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 1)
	if _, err := c.Send(context.Background(), SendEmailRequest{
		To: []EmailAddress{{Email: "dee@example.com"}}, Subject: "s", Text: "t",
	}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad from"}]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).Send(context.Background(), SendEmailRequest{
		To: []EmailAddress{{Email: "dee@example.com"}}, Subject: "s", Text: "t",
	})
	he, ok := err.(*HTTPError)
	if !ok || he.StatusCode != http.StatusBadRequest || he.Error() != "sendgrid http 400: bad from" {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestSendSandboxMode(t *testing.T) {
	var got mailSendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	log, _ := logger.New("test")
	c, err := New(log, Config{APIKey: "SG.test", BaseURL: srv.URL, DefaultFromEmail: "hello@deeliciousbakes.com", SandboxMode: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Send(context.Background(), SendEmailRequest{
		To:      []EmailAddress{{Email: "dee@example.com"}},
		Subject: "Order confirmed",
		Text:    "thanks",
	}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got.MailSettings == nil || !got.MailSettings.SandboxMode.Enable {
		t.Fatalf("sandbox flag not sent: %+v", got.MailSettings)
	}
}
