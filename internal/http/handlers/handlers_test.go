package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/middleware"
	"github.com/yungbote/deelicious-bakes-backend/internal/http/response"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

// Stubs embed the service interface so each test only implements the
// methods it exercises.

type stubProducts struct {
	services.ProductService
	got services.ProductQuery
}

func (s *stubProducts) Search(_ context.Context, q services.ProductQuery) (*services.ProductPage, error) {
	s.got = q
	return &services.ProductPage{Items: []*types.Product{}, Limit: 20}, nil
}

func (s *stubProducts) GetBySlug(_ context.Context, slug string) (*types.Product, error) {
	return nil, apierr.NotFound("product")
}

type stubCart struct {
	services.CartService
	owner  services.CartOwner
	merged []string
}

func (s *stubCart) Summary(_ context.Context, owner services.CartOwner) (*services.CartSummary, error) {
	s.owner = owner
	return &services.CartSummary{ItemCount: 2, SubtotalCents: 1200, TotalCents: 1796}, nil
}

func (s *stubCart) MergeGuestCart(_ context.Context, userID uuid.UUID, sessionID string) error {
	s.merged = append(s.merged, userID.String()+"/"+sessionID)
	return nil
}

type stubAuth struct {
	services.AuthService
	user *types.User
}

func (s *stubAuth) Login(_ context.Context, email, password string) (*services.TokenPair, *types.User, error) {
	if password != "correct horse" {
		return nil, nil, apierr.Unauthorized("invalid_credentials", "Invalid email or password")
	}
	return &services.TokenPair{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", ExpiresIn: 3600}, s.user, nil
}

type stubOrders struct {
	services.OrderService
	got services.OrderQuery
	day time.Time
}

func (s *stubOrders) UserOrders(_ context.Context, q services.OrderQuery) (*services.OrderPage, error) {
	s.got = q
	return &services.OrderPage{}, nil
}

func (s *stubOrders) ByDeliveryDate(_ context.Context, day time.Time) ([]*types.Order, error) {
	s.day = day
	return []*types.Order{}, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.APIError {
	t.Helper()
	var env response.ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error
}

func TestProductSearchParsesFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubProducts{}
	h := NewProductHandler(stub)
	r := gin.New()
	r.GET("/products", h.Search)

	tagA, tagB, allergen := uuid.New(), uuid.New(), uuid.New()
	url := "/products?query=lemon&category=cakes&tags=" + tagA.String() + "," + tagB.String() +
		"&allergen_free=" + allergen.String() + "&price_min=1000&price_max=4000&in_stock=true&min_slices=8&sort=price-asc&limit=5&offset=10"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d body=%s", rec.Code, rec.Body.String())
	}
	q := stub.got
	if q.Query != "lemon" || q.CategorySlug != "cakes" || q.Sort != "price-asc" || q.Limit != 5 || q.Offset != 10 {
		t.Fatalf("unexpected query: %+v", q)
	}
	if len(q.TagIDs) != 2 || q.TagIDs[0] != tagA || q.TagIDs[1] != tagB {
		t.Fatalf("tags: %v", q.TagIDs)
	}
	if len(q.AllergenFreeIDs) != 1 || q.AllergenFreeIDs[0] != allergen {
		t.Fatalf("allergen_free: %v", q.AllergenFreeIDs)
	}
	if q.PriceMin == nil || *q.PriceMin != 1000 || q.PriceMax == nil || *q.PriceMax != 4000 {
		t.Fatalf("price range: %v %v", q.PriceMin, q.PriceMax)
	}
	if !q.InStock || q.MinSlices == nil || *q.MinSlices != 8 || q.MaxSlices != nil {
		t.Fatalf("stock/slices: %+v", q)
	}
}

func TestProductSearchRejectsBadFilters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewProductHandler(&stubProducts{})
	r := gin.New()
	r.GET("/products", h.Search)

	for _, url := range []string{
		"/products?tags=not-a-uuid",
		"/products?price_min=cheap",
		"/products?category_id=42",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: got=%d", url, rec.Code)
		}
		if got := decodeError(t, rec).Code; got != "invalid_query" {
			t.Fatalf("%s: code=%q", url, got)
		}
	}
}

func TestProductNotFoundEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewProductHandler(&stubProducts{})
	r := gin.New()
	r.GET("/products/slug/:slug", h.GetBySlug)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/slug/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got=%d", rec.Code)
	}
	e := decodeError(t, rec)
	if e.Code != "not_found" || e.Message != "Product not found" {
		t.Fatalf("unexpected error: %+v", e)
	}
}

func TestCartOwnerPrefersUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubCart{}
	h := NewCartHandler(stub)
	userID := uuid.New()

	r := gin.New()
	r.GET("/guest", h.Summary)
	r.GET("/user", func(c *gin.Context) {
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}, h.Summary)

	req := httptest.NewRequest(http.MethodGet, "/guest", nil)
	req.Header.Set(middleware.HeaderSessionID, " sess-1 ")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if stub.owner.UserID != nil || stub.owner.SessionID != "sess-1" {
		t.Fatalf("guest owner: %+v", stub.owner)
	}

	req = httptest.NewRequest(http.MethodGet, "/user", nil)
	req.Header.Set(middleware.HeaderSessionID, "sess-1")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if stub.owner.UserID == nil || *stub.owner.UserID != userID {
		t.Fatalf("user owner: %+v", stub.owner)
	}
}

func TestLoginMergesGuestCart(t *testing.T) {
	gin.SetMode(gin.TestMode)
	user := &types.User{ID: uuid.New(), Email: "dee@example.com", Role: "user"}
	cart := &stubCart{}
	h := NewAuthHandler(testLogger(t), &stubAuth{user: user}, nil, cart)
	r := gin.New()
	r.POST("/login", h.Login)

	login := func(password, session string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"email": user.Email, "password": password})
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if session != "" {
			req.Header.Set(middleware.HeaderSessionID, session)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := login("wrong", "guest-1"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: got=%d", rec.Code)
	}
	if len(cart.merged) != 0 {
		t.Fatalf("failed login must not merge: %v", cart.merged)
	}

	rec := login("correct horse", "guest-1")
	if rec.Code != http.StatusOK {
		t.Fatalf("login: got=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.AccessToken != "a" || out.ExpiresIn != 3600 {
		t.Fatalf("unexpected tokens: %+v", out)
	}
	if len(cart.merged) != 1 || cart.merged[0] != user.ID.String()+"/guest-1" {
		t.Fatalf("merge calls: %v", cart.merged)
	}

	login("correct horse", "")
	if len(cart.merged) != 1 {
		t.Fatalf("login without session header must not merge")
	}
}

func TestOrderListAndDateParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	stub := &stubOrders{}
	h := NewOrderHandler(stub)
	r := gin.New()
	r.GET("/orders", h.List)
	r.GET("/orders/by-date/:date", h.ByDeliveryDate)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?status=pending,confirmed&status=delivered&date_from=2026-01-01&sort=total-desc", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list: got=%d", rec.Code)
	}
	if len(stub.got.Statuses) != 3 || stub.got.Statuses[2] != "delivered" {
		t.Fatalf("statuses: %v", stub.got.Statuses)
	}
	if stub.got.DateFrom == nil || stub.got.DateFrom.Format(dateLayout) != "2026-01-01" || stub.got.DateTo != nil {
		t.Fatalf("dates: %v %v", stub.got.DateFrom, stub.got.DateTo)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/by-date/2026-02-14", nil))
	if rec.Code != http.StatusOK || stub.day.Format(dateLayout) != "2026-02-14" {
		t.Fatalf("by-date: got=%d day=%v", rec.Code, stub.day)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/by-date/tomorrow", nil))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_date" {
		t.Fatalf("bad date: got=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestInvalidPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewOrderHandler(&stubOrders{})
	r := gin.New()
	r.GET("/orders/:id", h.Get)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/123", nil))
	if rec.Code != http.StatusBadRequest || decodeError(t, rec).Code != "invalid_id" {
		t.Fatalf("got=%d body=%s", rec.Code, rec.Body.String())
	}
}
