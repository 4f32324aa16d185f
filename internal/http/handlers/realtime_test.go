package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/realtime"
)

func waitForSubscriber(t *testing.T, hub *realtime.Hub, channel string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.Subscribers(channel) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no subscriber on %s", channel)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRealtimeStreamJoinsUserAndAdminChannels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := logger.New("test")
	hub := realtime.NewHub(log)
	h := NewRealtimeHandler(log, hub)
	adminID := uuid.New()

	r := gin.New()
	r.GET("/events", func(c *gin.Context) {
		rd := &ctxutil.RequestData{UserID: adminID, Role: "admin"}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}, h.Stream)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()

	waitForSubscriber(t, hub, realtime.AdminChannel)
	if hub.Subscribers(realtime.UserChannel(adminID)) != 1 {
		t.Fatalf("expected user channel subscription")
	}
	hub.Broadcast(realtime.Message{Channel: realtime.AdminChannel, Event: realtime.EventOrderPlaced, Data: map[string]any{"order_number": "DLB-20260101-ABCDEF"}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), "DLB-20260101-ABCDEF") {
		t.Fatalf("event not streamed: %s", w.Body.String())
	}
	if hub.Subscribers(realtime.AdminChannel) != 0 {
		t.Fatalf("client should be removed after disconnect")
	}
}

func TestRealtimeStreamRequiresUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, _ := logger.New("test")
	h := NewRealtimeHandler(log, realtime.NewHub(log))

	r := gin.New()
	r.GET("/events", h.Stream)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", w.Code)
	}
}
