package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/deelicious-bakes-backend/internal/http"
	httpH "github.com/yungbote/deelicious-bakes-backend/internal/http/handlers"
	httpMW "github.com/yungbote/deelicious-bakes-backend/internal/http/middleware"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type Middleware struct {
	Auth        *httpMW.AuthMiddleware
	RateLimiter *httpMW.RateLimiter
}

type Handlers struct {
	Health        *httpH.HealthHandler
	Auth          *httpH.AuthHandler
	User          *httpH.UserHandler
	Category      *httpH.CategoryHandler
	Product       *httpH.ProductHandler
	Taxonomy      *httpH.TaxonomyHandler
	Facet         *httpH.FacetHandler
	Newsletter    *httpH.NewsletterHandler
	Cart          *httpH.CartHandler
	Wishlist      *httpH.WishlistHandler
	Order         *httpH.OrderHandler
	Message       *httpH.MessageHandler
	CustomRequest *httpH.CustomRequestHandler
	Dashboard     *httpH.DashboardHandler
	Realtime      *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, services Services, clients Clients) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:        httpH.NewHealthHandler(services.Health),
		Auth:          httpH.NewAuthHandler(log, services.Auth, services.Account, services.Cart),
		User:          httpH.NewUserHandler(services.User, services.Account),
		Category:      httpH.NewCategoryHandler(services.Category),
		Product:       httpH.NewProductHandler(services.Product),
		Taxonomy:      httpH.NewTaxonomyHandler(services.Taxonomy),
		Facet:         httpH.NewFacetHandler(services.Facet),
		Newsletter:    httpH.NewNewsletterHandler(services.Newsletter),
		Cart:          httpH.NewCartHandler(services.Cart),
		Wishlist:      httpH.NewWishlistHandler(services.Wishlist),
		Order:         httpH.NewOrderHandler(services.Order),
		Message:       httpH.NewMessageHandler(services.Message),
		CustomRequest: httpH.NewCustomRequestHandler(services.Request),
		Dashboard:     httpH.NewDashboardHandler(services.Dashboard),
		Realtime:      httpH.NewRealtimeHandler(log, clients.Hub),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:        httpMW.NewAuthMiddleware(log, services.Auth),
		RateLimiter: httpMW.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst),
	}
}

func wireRouter(log *logger.Logger, cfg Config, clients Clients, handlers Handlers, middleware Middleware) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        clients.Metrics,
		TracingEnabled: cfg.OtelEnabled,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimiter:    middleware.RateLimiter,
		AuthMiddleware: middleware.Auth,

		HealthHandler:        handlers.Health,
		AuthHandler:          handlers.Auth,
		UserHandler:          handlers.User,
		CategoryHandler:      handlers.Category,
		ProductHandler:       handlers.Product,
		TaxonomyHandler:      handlers.Taxonomy,
		FacetHandler:         handlers.Facet,
		NewsletterHandler:    handlers.Newsletter,
		CartHandler:          handlers.Cart,
		WishlistHandler:      handlers.Wishlist,
		OrderHandler:         handlers.Order,
		MessageHandler:       handlers.Message,
		CustomRequestHandler: handlers.CustomRequest,
		DashboardHandler:     handlers.Dashboard,
		RealtimeHandler:      handlers.Realtime,
	})
}
