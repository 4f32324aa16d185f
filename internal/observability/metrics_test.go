package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/api/products", "200", time.Millisecond)
	m.ApiInflightInc()
	m.ApiInflightDec()
	m.IncOrderPlaced(1000)
	m.IncEmailSent("verify-email", "sent")
	m.IncCacheLookup("facets", true)
	m.IncMaintenanceRun("tokens", "ok")
	if m.Registry() != nil {
		t.Fatalf("nil metrics should have no registry")
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveAPI("GET", "/api/products", "200", 20*time.Millisecond)
	m.IncEmailSent("cake-welcome", "sent")
	m.IncOrderPlaced(4200)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`bakery_http_requests_total{method="GET",route="/api/products",status="200"} 1`,
		`emails_sent_total{status="sent",template="cake-welcome"} 1`,
		`bakery_orders_placed_total 1`,
		`bakery_order_value_cents_total 4200`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}
