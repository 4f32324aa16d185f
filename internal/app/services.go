package app

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/email"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
	"github.com/yungbote/deelicious-bakes-backend/internal/services"
)

// facetConcurrency bounds the parallel facet queries per request.
const facetConcurrency = 4

type Services struct {
	Email       services.EmailService
	Avatar      services.AvatarService
	Account     services.AccountService
	Auth        services.AuthService
	User        services.UserService
	Category    services.CategoryService
	Product     services.ProductService
	Taxonomy    services.TaxonomyService
	Facet       services.FacetService
	Cart        services.CartService
	Wishlist    services.WishlistService
	Order       services.OrderService
	Message     services.MessageService
	Request     services.CustomRequestService
	Newsletter  services.NewsletterService
	Dashboard   services.DashboardService
	Health      services.HealthService
	Maintenance services.MaintenanceService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")

	renderer, err := email.NewRenderer(cfg.Branding)
	if err != nil {
		return Services{}, fmt.Errorf("init email templates: %w", err)
	}
	emails := services.NewEmailService(log, renderer, clients.EmailSender, cfg.Email)
	avatars := services.NewAvatarService(log, repos.UserAvatar)

	account := services.NewAccountService(
		db, log,
		repos.User, repos.UserToken, repos.VerificationToken,
		repos.Cart, repos.Wishlist, repos.UserAvatar,
		emails, cfg.AppBaseURL, bcrypt.DefaultCost,
	)
	auth := services.NewAuthService(db, log, repos.User, repos.UserToken, avatars, account, services.AuthConfig{
		JWTSecretKey: cfg.JWTSecretKey,
		AccessTTL:    cfg.AccessTokenTTL,
		RefreshTTL:   cfg.RefreshTokenTTL,
		BcryptCost:   bcrypt.DefaultCost,
	})
	users := services.NewUserService(db, log, repos.User, repos.UserToken, avatars, bcrypt.DefaultCost)
	notify := services.NewNotifier(clients.Emitter)

	categories := services.NewCategoryService(db, log, repos.Category, repos.Product, clients.Cache, cfg.CacheTTL)
	products := services.NewProductService(
		db, log,
		repos.Product, repos.Variant, repos.Image, repos.Tag, repos.Allergen, repos.Category,
		repos.Cart, repos.Wishlist,
		categories,
	)
	taxonomy := services.NewTaxonomyService(db, log, repos.Tag, repos.Allergen, categories)
	facets := services.NewFacetService(log, repos.Facet, repos.Tag, categories, clients.Cache, services.FacetConfig{
		CacheTTL:    cfg.CacheTTL,
		Concurrency: facetConcurrency,
	})

	carts := services.NewCartService(db, log, repos.Cart, repos.Product, repos.Variant, cfg.Cart)
	wishlists := services.NewWishlistService(db, log, repos.Wishlist, repos.Product, carts)
	orders := services.NewOrderService(
		db, log,
		repos.Order, repos.Cart, repos.Product, repos.Variant, repos.User,
		carts, emails, notify, cfg.AppBaseURL,
	)

	messages := services.NewMessageService(db, log, repos.Thread, repos.Message, repos.CustomRequest, repos.Order, notify)
	requests := services.NewCustomRequestService(db, log, repos.CustomRequest, repos.User, emails, notify, cfg.AppBaseURL)
	newsletter := services.NewNewsletterService(db, log, repos.Subscriber, emails, cfg.AppBaseURL)

	return Services{
		Email:       emails,
		Avatar:      avatars,
		Account:     account,
		Auth:        auth,
		User:        users,
		Category:    categories,
		Product:     products,
		Taxonomy:    taxonomy,
		Facet:       facets,
		Cart:        carts,
		Wishlist:    wishlists,
		Order:       orders,
		Message:     messages,
		Request:     requests,
		Newsletter:  newsletter,
		Dashboard:   services.NewDashboardService(log, repos.User, repos.Order, repos.Product, repos.Message, repos.CustomRequest),
		Health:      services.NewHealthService(db, log, clients.Cache),
		Maintenance: services.NewMaintenanceService(log, repos.UserToken, repos.VerificationToken, repos.Cart, cfg.Maintenance),
	}, nil
}
