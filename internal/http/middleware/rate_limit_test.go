package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
)

func TestRateLimiterPerKey(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	if !rl.Allow("1.1.1.1") || !rl.Allow("1.1.1.1") {
		t.Fatalf("burst should allow two requests")
	}
	if rl.Allow("1.1.1.1") {
		t.Fatalf("third request within the same instant should be limited")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatalf("other clients have their own bucket")
	}

	fixed = fixed.Add(time.Second)
	if !rl.Allow("1.1.1.1") {
		t.Fatalf("one token refills per second at 60/min")
	}
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := NewRateLimiter(10, 1)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return fixed }

	rl.Allow("a")
	fixed = fixed.Add(rl.idleTTL + time.Minute)
	rl.Allow("b")
	if _, ok := rl.visitors["a"]; ok {
		t.Fatalf("idle visitor was not evicted")
	}
	if len(rl.visitors) != 1 {
		t.Fatalf("visitors: got=%d want=1", len(rl.visitors))
	}
}

func TestRateLimitMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(10, 1)

	r := gin.New()
	r.POST("/api/login", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := do(); rec.Code != http.StatusOK {
		t.Fatalf("first request: got=%d", rec.Code)
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got=%d want=%d", rec.Code, http.StatusTooManyRequests)
	}
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error.Code != "rate_limited" {
		t.Fatalf("code: got=%q", env.Error.Code)
	}
}
