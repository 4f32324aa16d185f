package domain

import (
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/auth"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/cart"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/catalog"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/messaging"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/newsletter"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/orders"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/user"
)

type (
	User       = user.User
	UserAvatar = user.UserAvatar

	UserToken         = auth.UserToken
	VerificationToken = auth.VerificationToken

	Category        = catalog.Category
	Product         = catalog.Product
	ProductVariant  = catalog.ProductVariant
	ProductImage    = catalog.ProductImage
	Tag             = catalog.Tag
	ProductTag      = catalog.ProductTag
	Allergen        = catalog.Allergen
	ProductAllergen = catalog.ProductAllergen
	AllergenInfo    = catalog.AllergenInfo

	Cart           = cart.Cart
	CartItem       = cart.CartItem
	Customizations = cart.Customizations
	Decorations    = cart.Decorations
	Wishlist       = cart.Wishlist
	WishlistItem   = cart.WishlistItem

	Order              = orders.Order
	OrderItem          = orders.OrderItem
	OrderStatusHistory = orders.OrderStatusHistory
	DeliveryAddress    = orders.DeliveryAddress

	MessageThread = messaging.MessageThread
	Message       = messaging.Message
	CustomRequest = messaging.CustomRequest

	Subscriber = newsletter.Subscriber
)

const (
	RoleUser  = user.RoleUser
	RoleAdmin = user.RoleAdmin

	DefaultWishlistName = cart.DefaultWishlistName
)

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserAvatar{},
		&UserToken{},
		&VerificationToken{},

		&Category{},
		&Product{},
		&ProductVariant{},
		&ProductImage{},
		&Tag{},
		&ProductTag{},
		&Allergen{},
		&ProductAllergen{},

		&Cart{},
		&CartItem{},
		&Wishlist{},
		&WishlistItem{},

		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},

		&MessageThread{},
		&Message{},
		&CustomRequest{},

		&Subscriber{},
	}
}
