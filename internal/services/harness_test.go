package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/testutil"
	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/pkg/dbctx"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/apierr"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/cache"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/ctxutil"
)

const testBaseURL = "https://bakes.test"

var testCartConfig = CartConfig{TaxRate: 0.08, DeliveryFeeCents: 500, FreeDeliveryThresholdCents: 5000}

// harness wires every service over one rolled-back transaction.
type harness struct {
	tx     *gorm.DB
	sender *recordingSender
	cache  *cache.Memory
	events *recordingEmitter

	userRepo     repos.UserRepo
	tokenRepo    repos.UserTokenRepo
	verifyRepo   repos.VerificationTokenRepo
	productRepo  repos.ProductRepo
	variantRepo  repos.VariantRepo
	cartRepo     repos.CartRepo
	wishlistRepo repos.WishlistRepo
	orderRepo    repos.OrderRepo
	threadRepo   repos.ThreadRepo
	requestRepo  repos.CustomRequestRepo

	categories  CategoryService
	products    ProductService
	taxonomy    TaxonomyService
	facets      FacetService
	carts       CartService
	wishlists   WishlistService
	orders      OrderService
	messages    MessageService
	requests    CustomRequestService
	newsletter  NewsletterService
	dashboard   DashboardService
	accounts    AccountService
	auth        AuthService
	users       UserService
	maintenance MaintenanceService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	h := &harness{tx: tx, sender: &recordingSender{}, cache: cache.NewMemory(), events: &recordingEmitter{}}
	h.userRepo = repos.NewUserRepo(tx, log)
	h.tokenRepo = repos.NewUserTokenRepo(tx, log)
	h.verifyRepo = repos.NewVerificationTokenRepo(tx, log)
	avatarRepo := repos.NewUserAvatarRepo(tx, log)
	categoryRepo := repos.NewCategoryRepo(tx, log)
	h.productRepo = repos.NewProductRepo(tx, log)
	h.variantRepo = repos.NewVariantRepo(tx, log)
	imageRepo := repos.NewImageRepo(tx, log)
	tagRepo := repos.NewTagRepo(tx, log)
	allergenRepo := repos.NewAllergenRepo(tx, log)
	facetRepo := repos.NewFacetRepo(tx, log)
	h.cartRepo = repos.NewCartRepo(tx, log)
	h.wishlistRepo = repos.NewWishlistRepo(tx, log)
	h.orderRepo = repos.NewOrderRepo(tx, log)
	h.threadRepo = repos.NewThreadRepo(tx, log)
	messageRepo := repos.NewMessageRepo(tx, log)
	h.requestRepo = repos.NewCustomRequestRepo(tx, log)
	subscriberRepo := repos.NewSubscriberRepo(tx, log)

	emails := newTestEmailService(t, h.sender, 1)
	notify := NewNotifier(h.events)
	avatars := NewAvatarService(log, avatarRepo)

	h.categories = NewCategoryService(tx, log, categoryRepo, h.productRepo, h.cache, time.Minute)
	h.products = NewProductService(tx, log, h.productRepo, h.variantRepo, imageRepo, tagRepo, allergenRepo, categoryRepo, h.cartRepo, h.wishlistRepo, h.categories)
	h.taxonomy = NewTaxonomyService(tx, log, tagRepo, allergenRepo, h.categories)
	h.facets = NewFacetService(log, facetRepo, tagRepo, h.categories, h.cache, FacetConfig{CacheTTL: time.Minute, Concurrency: 1})
	h.carts = NewCartService(tx, log, h.cartRepo, h.productRepo, h.variantRepo, testCartConfig)
	h.wishlists = NewWishlistService(tx, log, h.wishlistRepo, h.productRepo, h.carts)
	h.orders = NewOrderService(tx, log, h.orderRepo, h.cartRepo, h.productRepo, h.variantRepo, h.userRepo, h.carts, emails, notify, testBaseURL)
	h.messages = NewMessageService(tx, log, h.threadRepo, messageRepo, h.requestRepo, h.orderRepo, notify)
	h.requests = NewCustomRequestService(tx, log, h.requestRepo, h.userRepo, emails, notify, testBaseURL)
	h.newsletter = NewNewsletterService(tx, log, subscriberRepo, emails, testBaseURL)
	h.dashboard = NewDashboardService(log, h.userRepo, h.orderRepo, h.productRepo, messageRepo, h.requestRepo)
	h.accounts = NewAccountService(tx, log, h.userRepo, h.tokenRepo, h.verifyRepo, h.cartRepo, h.wishlistRepo, avatarRepo, emails, testBaseURL, bcrypt.MinCost)
	h.auth = NewAuthService(tx, log, h.userRepo, h.tokenRepo, avatars, h.accounts, AuthConfig{
		JWTSecretKey: "test-secret",
		AccessTTL:    time.Hour,
		RefreshTTL:   24 * time.Hour,
		BcryptCost:   bcrypt.MinCost,
	})
	h.users = NewUserService(tx, log, h.userRepo, h.tokenRepo, avatars, bcrypt.MinCost)
	h.maintenance = NewMaintenanceService(log, h.tokenRepo, h.verifyRepo, h.cartRepo, MaintenanceConfig{GuestCartMaxAge: 24 * time.Hour})
	return h
}

func asUser(u *types.User) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: u.ID, Role: u.Role})
}

func wantAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %d %s, got nil", status, code)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected api error %d %s, got %v", status, code, err)
	}
	if ae.Status != status || ae.Code != code {
		t.Fatalf("got %d %s, want %d %s (%v)", ae.Status, ae.Code, status, code, err)
	}
}

var linkToken = regexp.MustCompile(`token=([0-9a-f]{64})`)

// lastLinkToken pulls the raw token out of the newest email of a template.
func (h *harness) lastLinkToken(t *testing.T, template string) string {
	t.Helper()
	sent := h.sender.byTemplate(template)
	if len(sent) == 0 {
		t.Fatalf("no %s email sent", template)
	}
	m := linkToken.FindStringSubmatch(sent[len(sent)-1].Message.Text)
	if m == nil {
		t.Fatalf("no token link in %s email", template)
	}
	return m[1]
}

// testCtx is for direct repo calls; harness repos already sit on the test tx.
func testCtx() dbctx.Context { return dbctx.New(context.Background()) }
