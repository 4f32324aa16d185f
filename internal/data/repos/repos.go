package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/auth"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/cart"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/catalog"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/messaging"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/newsletter"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/orders"
	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos/user"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserAvatarRepo = user.UserAvatarRepo
type UserListFilter = user.ListFilter

type UserTokenRepo = auth.UserTokenRepo
type VerificationTokenRepo = auth.VerificationTokenRepo

type CategoryRepo = catalog.CategoryRepo
type ProductRepo = catalog.ProductRepo
type ProductSearchFilter = catalog.SearchFilter
type ProductStats = catalog.Stats
type VariantRepo = catalog.VariantRepo
type ImageRepo = catalog.ImageRepo
type TagRepo = catalog.TagRepo
type AllergenRepo = catalog.AllergenRepo
type FacetRepo = catalog.FacetRepo
type CategoryCount = catalog.CategoryCount
type TagCount = catalog.TagCount
type AllergenCount = catalog.AllergenCount
type PriceRange = catalog.PriceRange
type ValueCount = catalog.ValueCount

const (
	ProductSortNameAsc     = catalog.SortNameAsc
	ProductSortNameDesc    = catalog.SortNameDesc
	ProductSortPriceAsc    = catalog.SortPriceAsc
	ProductSortPriceDesc   = catalog.SortPriceDesc
	ProductSortCreatedAsc  = catalog.SortCreatedAsc
	ProductSortCreatedDesc = catalog.SortCreatedDesc
	ProductSortPopularity  = catalog.SortPopularity
	ProductSortUpdatedDesc = catalog.SortUpdatedDesc

	VariantFlavor = catalog.VariantFlavor
	VariantSize   = catalog.VariantSize
	VariantType   = catalog.VariantType
)

type CartRepo = cart.CartRepo
type WishlistRepo = cart.WishlistRepo

type OrderRepo = orders.OrderRepo
type OrderListFilter = orders.ListFilter
type OrderUserStats = orders.UserStats
type OrderAnalytics = orders.Analytics
type PopularProduct = orders.PopularProduct

const (
	OrderSortCreatedAsc   = orders.SortCreatedAsc
	OrderSortCreatedDesc  = orders.SortCreatedDesc
	OrderSortTotalAsc     = orders.SortTotalAsc
	OrderSortTotalDesc    = orders.SortTotalDesc
	OrderSortStatus       = orders.SortStatus
	OrderSortDeliveryDate = orders.SortDeliveryDate
)

type ThreadRepo = messaging.ThreadRepo
type MessageRepo = messaging.MessageRepo
type CustomRequestRepo = messaging.CustomRequestRepo
type ThreadFilter = messaging.ThreadFilter
type ThreadSummary = messaging.ThreadSummary
type ThreadStats = messaging.ThreadStats
type MessageStats = messaging.MessageStats
type ActivityRow = messaging.ActivityRow
type RequestFilter = messaging.RequestFilter

type SubscriberRepo = newsletter.SubscriberRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserAvatarRepo(db *gorm.DB, baseLog *logger.Logger) UserAvatarRepo {
	return user.NewUserAvatarRepo(db, baseLog)
}
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}
func NewVerificationTokenRepo(db *gorm.DB, baseLog *logger.Logger) VerificationTokenRepo {
	return auth.NewVerificationTokenRepo(db, baseLog)
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return catalog.NewCategoryRepo(db, baseLog)
}
func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return catalog.NewProductRepo(db, baseLog)
}
func NewVariantRepo(db *gorm.DB, baseLog *logger.Logger) VariantRepo {
	return catalog.NewVariantRepo(db, baseLog)
}
func NewImageRepo(db *gorm.DB, baseLog *logger.Logger) ImageRepo {
	return catalog.NewImageRepo(db, baseLog)
}
func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo { return catalog.NewTagRepo(db, baseLog) }
func NewAllergenRepo(db *gorm.DB, baseLog *logger.Logger) AllergenRepo {
	return catalog.NewAllergenRepo(db, baseLog)
}
func NewFacetRepo(db *gorm.DB, baseLog *logger.Logger) FacetRepo {
	return catalog.NewFacetRepo(db, baseLog)
}

func NewCartRepo(db *gorm.DB, baseLog *logger.Logger) CartRepo { return cart.NewCartRepo(db, baseLog) }
func NewWishlistRepo(db *gorm.DB, baseLog *logger.Logger) WishlistRepo {
	return cart.NewWishlistRepo(db, baseLog)
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return orders.NewOrderRepo(db, baseLog)
}

func NewThreadRepo(db *gorm.DB, baseLog *logger.Logger) ThreadRepo {
	return messaging.NewThreadRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return messaging.NewMessageRepo(db, baseLog)
}
func NewCustomRequestRepo(db *gorm.DB, baseLog *logger.Logger) CustomRequestRepo {
	return messaging.NewCustomRequestRepo(db, baseLog)
}

func NewSubscriberRepo(db *gorm.DB, baseLog *logger.Logger) SubscriberRepo {
	return newsletter.NewSubscriberRepo(db, baseLog)
}
