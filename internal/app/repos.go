package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/data/repos"
	"github.com/yungbote/deelicious-bakes-backend/internal/platform/logger"
)

type Repos struct {
	User              repos.UserRepo
	UserAvatar        repos.UserAvatarRepo
	UserToken         repos.UserTokenRepo
	VerificationToken repos.VerificationTokenRepo

	Category repos.CategoryRepo
	Product  repos.ProductRepo
	Variant  repos.VariantRepo
	Image    repos.ImageRepo
	Tag      repos.TagRepo
	Allergen repos.AllergenRepo
	Facet    repos.FacetRepo

	Cart     repos.CartRepo
	Wishlist repos.WishlistRepo
	Order    repos.OrderRepo

	Thread        repos.ThreadRepo
	Message       repos.MessageRepo
	CustomRequest repos.CustomRequestRepo
	Subscriber    repos.SubscriberRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:              repos.NewUserRepo(db, log),
		UserAvatar:        repos.NewUserAvatarRepo(db, log),
		UserToken:         repos.NewUserTokenRepo(db, log),
		VerificationToken: repos.NewVerificationTokenRepo(db, log),

		Category: repos.NewCategoryRepo(db, log),
		Product:  repos.NewProductRepo(db, log),
		Variant:  repos.NewVariantRepo(db, log),
		Image:    repos.NewImageRepo(db, log),
		Tag:      repos.NewTagRepo(db, log),
		Allergen: repos.NewAllergenRepo(db, log),
		Facet:    repos.NewFacetRepo(db, log),

		Cart:     repos.NewCartRepo(db, log),
		Wishlist: repos.NewWishlistRepo(db, log),
		Order:    repos.NewOrderRepo(db, log),

		Thread:        repos.NewThreadRepo(db, log),
		Message:       repos.NewMessageRepo(db, log),
		CustomRequest: repos.NewCustomRequestRepo(db, log),
		Subscriber:    repos.NewSubscriberRepo(db, log),
	}
}
