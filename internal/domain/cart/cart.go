package cart

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/domain/catalog"
)

// Cart belongs to a user or, for guests, to a client session id.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	SessionID string     `gorm:"index;column:session_id" json:"-"`
	Items     []CartItem `gorm:"foreignKey:CartID" json:"items"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null;index" json:"updated_at"`
}

func (Cart) TableName() string { return "cart" }

func (c *Cart) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Decorations struct {
	Color    string `json:"color,omitempty" binding:"max=50"`
	Design   string `json:"design,omitempty" binding:"max=100"`
	Message  string `json:"message,omitempty" binding:"max=200"`
	Frosting string `json:"frosting,omitempty" binding:"max=50"`
}

type Customizations struct {
	Decorations         *Decorations   `json:"decorations,omitempty" binding:"omitempty"`
	SpecialInstructions string         `json:"special_instructions,omitempty" binding:"max=1000"`
	GiftWrap            bool           `json:"gift_wrap,omitempty"`
	CustomOptions       map[string]any `json:"custom_options,omitempty"`
}

type CartItem struct {
	ID             uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	CartID         uuid.UUID                          `gorm:"type:uuid;index;not null" json:"cart_id"`
	ProductID      uuid.UUID                          `gorm:"type:uuid;index;not null" json:"product_id"`
	VariantID      *uuid.UUID                         `gorm:"type:uuid" json:"variant_id,omitempty"`
	Quantity       int                                `gorm:"not null" json:"quantity"`
	Customizations datatypes.JSONType[Customizations] `json:"customizations"`
	UnitPriceCents int64                              `gorm:"not null;column:unit_price_cents" json:"unit_price_cents"`

	Product *catalog.Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Variant *catalog.ProductVariant `gorm:"foreignKey:VariantID" json:"variant,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_item" }

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i *CartItem) LineTotalCents() int64 { return i.UnitPriceCents * int64(i.Quantity) }

const DefaultWishlistName = "My Wishlist"

type Wishlist struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	Name      string         `gorm:"not null" json:"name"`
	IsDefault bool           `gorm:"not null;column:is_default" json:"is_default"`
	Items     []WishlistItem `gorm:"foreignKey:WishlistID" json:"items,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Wishlist) TableName() string { return "wishlist" }

func (w *Wishlist) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

type WishlistItem struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	WishlistID uuid.UUID        `gorm:"type:uuid;uniqueIndex:idx_wishlist_item_product;not null" json:"wishlist_id"`
	ProductID  uuid.UUID        `gorm:"type:uuid;uniqueIndex:idx_wishlist_item_product;not null" json:"product_id"`
	Notes      string           `json:"notes,omitempty"`
	Product    *catalog.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt  time.Time        `gorm:"not null;index" json:"created_at"`
}

func (WishlistItem) TableName() string { return "wishlist_item" }

func (i *WishlistItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
