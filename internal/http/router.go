package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/deelicious-bakes-backend/internal/http/handlers"
	httpMW "github.com/yungbote/deelicious-bakes-backend/internal/http/middleware"
	"github.com/yungbote/deelicious-bakes-backend/internal/observability"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

const serviceName = "deelicious-bakes-api"

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	TracingEnabled bool
	AllowedOrigins []string
	RateLimiter    *httpMW.RateLimiter

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler        *httpH.HealthHandler
	AuthHandler          *httpH.AuthHandler
	UserHandler          *httpH.UserHandler
	CategoryHandler      *httpH.CategoryHandler
	ProductHandler       *httpH.ProductHandler
	TaxonomyHandler      *httpH.TaxonomyHandler
	FacetHandler         *httpH.FacetHandler
	NewsletterHandler    *httpH.NewsletterHandler
	CartHandler          *httpH.CartHandler
	WishlistHandler      *httpH.WishlistHandler
	OrderHandler         *httpH.OrderHandler
	MessageHandler       *httpH.MessageHandler
	CustomRequestHandler *httpH.CustomRequestHandler
	DashboardHandler     *httpH.DashboardHandler
	RealtimeHandler      *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.RateLimiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{cfg.RateLimiter.Middleware(), h}
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", limited(cfg.AuthHandler.Register)...)
			api.POST("/login", limited(cfg.AuthHandler.Login)...)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
			api.POST("/auth/verify-email", cfg.AuthHandler.VerifyEmail)
			api.POST("/auth/forgot-password", limited(cfg.AuthHandler.ForgotPassword)...)
			api.POST("/auth/reset-password", cfg.AuthHandler.ResetPassword)
			api.POST("/auth/confirm-email-change", cfg.AuthHandler.ConfirmEmailChange)
			api.POST("/auth/confirm-delete", cfg.AuthHandler.ConfirmDelete)
		}

		// Catalog
		if cfg.CategoryHandler != nil {
			api.GET("/categories", cfg.CategoryHandler.List)
			api.GET("/categories/tree", cfg.CategoryHandler.Tree)
			api.GET("/categories/roots", cfg.CategoryHandler.Roots)
			api.GET("/categories/slug/:slug", cfg.CategoryHandler.GetBySlug)
			api.GET("/categories/:id/subcategories", cfg.CategoryHandler.Subcategories)
			api.GET("/categories/:id/breadcrumb", cfg.CategoryHandler.Breadcrumb)
		}
		if cfg.ProductHandler != nil {
			api.GET("/products", cfg.ProductHandler.Search)
			api.GET("/products/featured", cfg.ProductHandler.Featured)
			api.GET("/products/dietary", cfg.ProductHandler.Dietary)
			api.GET("/products/slug/:slug", cfg.ProductHandler.GetBySlug)
			api.GET("/products/:id/recommended", cfg.ProductHandler.Recommended)
		}
		if cfg.FacetHandler != nil {
			api.GET("/filters/facets", cfg.FacetHandler.Facets)
			api.GET("/filters/popular-tags", cfg.FacetHandler.PopularTags)
			api.GET("/filters/dietary-tags", cfg.FacetHandler.DietaryTags)
			api.GET("/filters/occasion-tags", cfg.FacetHandler.OccasionTags)
			api.GET("/filters/suggestions", cfg.FacetHandler.Suggestions)
		}

		// Newsletter
		if cfg.NewsletterHandler != nil {
			api.POST("/subscribe", limited(cfg.NewsletterHandler.Subscribe)...)
			api.GET("/subscribe", cfg.NewsletterHandler.SubscribeMethodNotAllowed)
			api.POST("/unsubscribe", limited(cfg.NewsletterHandler.Unsubscribe)...)
		}

		// Cart (guest or signed in)
		if cfg.CartHandler != nil {
			cart := api.Group("/cart")
			if cfg.AuthMiddleware != nil {
				cart.Use(cfg.AuthMiddleware.OptionalAuth())
			}
			cart.GET("", cfg.CartHandler.Get)
			cart.GET("/summary", cfg.CartHandler.Summary)
			cart.POST("/items", cfg.CartHandler.AddItem)
			cart.PATCH("/items", cfg.CartHandler.BulkUpdate)
			cart.POST("/items/remove", cfg.CartHandler.BulkRemove)
			cart.PATCH("/items/:id", cfg.CartHandler.UpdateItem)
			cart.DELETE("/items/:id", cfg.CartHandler.RemoveItem)
			cart.DELETE("", cfg.CartHandler.Clear)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
			if cfg.RealtimeHandler != nil {
				protected.GET("/events", cfg.RealtimeHandler.Stream)
			}
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
			protected.PATCH("/me", cfg.UserHandler.UpdateMe)
			protected.POST("/me/password", cfg.UserHandler.ChangePassword)
			protected.POST("/me/resend-verification", cfg.UserHandler.ResendVerification)
			protected.POST("/me/email", cfg.UserHandler.RequestEmailChange)
			protected.POST("/me/delete-request", cfg.UserHandler.RequestDeletion)
			protected.GET("/me/avatar", cfg.UserHandler.GetAvatar)
			protected.PUT("/me/avatar", cfg.UserHandler.UploadAvatar)
		}

		// Wishlists
		if cfg.WishlistHandler != nil {
			protected.GET("/wishlists", cfg.WishlistHandler.List)
			protected.POST("/wishlists", cfg.WishlistHandler.Create)
			protected.GET("/wishlists/default", cfg.WishlistHandler.GetDefault)
			protected.GET("/wishlists/recent", cfg.WishlistHandler.Recent)
			protected.GET("/wishlists/contains/:product_id", cfg.WishlistHandler.Contains)
			protected.POST("/wishlists/items", cfg.WishlistHandler.AddItem)
			protected.DELETE("/wishlists/items/:item_id", cfg.WishlistHandler.RemoveItem)
			protected.POST("/wishlists/items/:item_id/move-to-cart", cfg.WishlistHandler.MoveToCart)
			protected.GET("/wishlists/:id", cfg.WishlistHandler.Get)
			protected.PATCH("/wishlists/:id", cfg.WishlistHandler.Rename)
			protected.DELETE("/wishlists/:id", cfg.WishlistHandler.Delete)
		}

		// Orders
		if cfg.OrderHandler != nil {
			protected.POST("/orders/checkout", cfg.OrderHandler.Checkout)
			protected.GET("/orders", cfg.OrderHandler.List)
			protected.GET("/orders/stats", cfg.OrderHandler.Stats)
			protected.GET("/orders/:id", cfg.OrderHandler.Get)
			protected.POST("/orders/:id/cancel", cfg.OrderHandler.Cancel)
		}

		// Messages
		if cfg.MessageHandler != nil {
			protected.GET("/messages/threads", cfg.MessageHandler.ListThreads)
			protected.POST("/messages/threads", cfg.MessageHandler.CreateThread)
			protected.GET("/messages/threads/:id", cfg.MessageHandler.GetThread)
			protected.POST("/messages/threads/:id/messages", cfg.MessageHandler.PostMessage)
			protected.POST("/messages/threads/:id/close", cfg.MessageHandler.CloseThread)
			protected.GET("/messages/unread-count", cfg.MessageHandler.UnreadCount)
		}

		// Custom requests
		if cfg.CustomRequestHandler != nil {
			protected.POST("/custom-requests", cfg.CustomRequestHandler.Create)
			protected.GET("/custom-requests", cfg.CustomRequestHandler.List)
			protected.GET("/custom-requests/:id", cfg.CustomRequestHandler.Get)
			protected.POST("/custom-requests/:id/approve", cfg.CustomRequestHandler.Approve)
			protected.POST("/custom-requests/:id/decline", cfg.CustomRequestHandler.Decline)
		}
	}

	admin := protected.Group("/admin")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireAdmin())
	}
	registerAdminRoutes(admin, cfg)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "Route not found", "code": "not_found"}})
	})
	return r
}

func registerAdminRoutes(admin *gin.RouterGroup, cfg RouterConfig) {
	if cfg.DashboardHandler != nil {
		admin.GET("/dashboard", cfg.DashboardHandler.Get)
	}

	if cfg.UserHandler != nil {
		admin.GET("/users", cfg.UserHandler.ListUsers)
		admin.PATCH("/users/:id/role", cfg.UserHandler.SetRole)
		admin.POST("/users/:id/ban", cfg.UserHandler.Ban)
		admin.POST("/users/:id/unban", cfg.UserHandler.Unban)
	}

	if cfg.CategoryHandler != nil {
		admin.GET("/categories", cfg.CategoryHandler.AdminList)
		admin.POST("/categories", cfg.CategoryHandler.Create)
		admin.POST("/categories/reorder", cfg.CategoryHandler.Reorder)
		admin.PATCH("/categories/:id", cfg.CategoryHandler.Update)
		admin.DELETE("/categories/:id", cfg.CategoryHandler.Delete)
		admin.GET("/categories/:id/parent-options", cfg.CategoryHandler.ParentOptions)
	}

	if cfg.ProductHandler != nil {
		admin.GET("/products", cfg.ProductHandler.AdminList)
		admin.POST("/products", cfg.ProductHandler.Create)
		admin.POST("/products/bulk", cfg.ProductHandler.BulkUpdate)
		admin.GET("/products/stats", cfg.ProductHandler.Stats)
		admin.GET("/products/:id", cfg.ProductHandler.AdminGet)
		admin.PATCH("/products/:id", cfg.ProductHandler.Update)
		admin.DELETE("/products/:id", cfg.ProductHandler.Delete)

		admin.GET("/products/:id/variants", cfg.ProductHandler.ListVariants)
		admin.POST("/products/:id/variants", cfg.ProductHandler.CreateVariant)
		admin.PATCH("/products/:id/variants/:variant_id", cfg.ProductHandler.UpdateVariant)
		admin.DELETE("/products/:id/variants/:variant_id", cfg.ProductHandler.DeleteVariant)

		admin.GET("/products/:id/images", cfg.ProductHandler.ListImages)
		admin.POST("/products/:id/images", cfg.ProductHandler.CreateImage)
		admin.PATCH("/products/:id/images/:image_id", cfg.ProductHandler.UpdateImage)
		admin.DELETE("/products/:id/images/:image_id", cfg.ProductHandler.DeleteImage)
	}

	if cfg.TaxonomyHandler != nil {
		admin.GET("/tags", cfg.TaxonomyHandler.ListTags)
		admin.POST("/tags", cfg.TaxonomyHandler.CreateTag)
		admin.PATCH("/tags/:id", cfg.TaxonomyHandler.UpdateTag)
		admin.DELETE("/tags/:id", cfg.TaxonomyHandler.DeleteTag)
		admin.GET("/allergens", cfg.TaxonomyHandler.ListAllergens)
		admin.POST("/allergens", cfg.TaxonomyHandler.CreateAllergen)
		admin.PATCH("/allergens/:id", cfg.TaxonomyHandler.UpdateAllergen)
		admin.DELETE("/allergens/:id", cfg.TaxonomyHandler.DeleteAllergen)
	}

	if cfg.OrderHandler != nil {
		admin.GET("/orders/recent", cfg.OrderHandler.Recent)
		admin.GET("/orders/analytics", cfg.OrderHandler.Analytics)
		admin.GET("/orders/popular-products", cfg.OrderHandler.PopularProducts)
		admin.GET("/orders/by-status/:status", cfg.OrderHandler.ByStatus)
		admin.GET("/orders/by-date/:date", cfg.OrderHandler.ByDeliveryDate)
		admin.GET("/orders/:id", cfg.OrderHandler.AdminGet)
		admin.PATCH("/orders/:id/status", cfg.OrderHandler.UpdateStatus)
		admin.PATCH("/orders/:id/payment", cfg.OrderHandler.UpdatePayment)
	}

	if cfg.MessageHandler != nil {
		admin.GET("/messages/threads", cfg.MessageHandler.AllThreads)
		admin.GET("/messages/threads/:id", cfg.MessageHandler.GetThread)
		admin.POST("/messages/threads/:id/messages", cfg.MessageHandler.PostMessage)
		admin.PATCH("/messages/threads/:id/status", cfg.MessageHandler.SetStatus)
		admin.GET("/messages/stats", cfg.MessageHandler.Stats)
		admin.GET("/messages/activity", cfg.MessageHandler.Activity)
	}

	if cfg.CustomRequestHandler != nil {
		admin.GET("/custom-requests", cfg.CustomRequestHandler.AdminList)
		admin.GET("/custom-requests/:id", cfg.CustomRequestHandler.Get)
		admin.PATCH("/custom-requests/:id", cfg.CustomRequestHandler.Update)
	}

	if cfg.NewsletterHandler != nil {
		admin.GET("/newsletter/subscribers", cfg.NewsletterHandler.List)
	}
}
