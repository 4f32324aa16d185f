package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Category struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string     `gorm:"not null" json:"name"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Description string     `gorm:"type:text" json:"description"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	SortOrder   int        `gorm:"not null;index" json:"sort_order"`
	IsActive    bool       `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Category) TableName() string { return "category" }

func (c *Category) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string     `gorm:"not null;index" json:"name"`
	Slug             string     `gorm:"uniqueIndex;not null" json:"slug"`
	Description      string     `gorm:"type:text" json:"description"`
	ShortDescription string     `gorm:"column:short_description" json:"short_description"`
	CategoryID       *uuid.UUID `gorm:"type:uuid;index" json:"category_id"`
	BasePriceCents   int64      `gorm:"not null;column:base_price_cents" json:"base_price_cents"`
	IsActive         bool       `gorm:"not null;index" json:"is_active"`
	StockQuantity    int        `gorm:"not null;column:stock_quantity" json:"stock_quantity"`
	MinSlices        *int       `gorm:"column:min_slices" json:"min_slices"`
	MaxSlices        *int       `gorm:"column:max_slices" json:"max_slices"`
	ServingSize      string     `gorm:"column:serving_size" json:"serving_size"`
	PreparationTime  *int       `gorm:"column:preparation_time" json:"preparation_time"`

	Variants  []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
	Images    []ProductImage   `gorm:"foreignKey:ProductID" json:"images,omitempty"`
	Tags      []Tag            `gorm:"-" json:"tags,omitempty"`
	Allergens []AllergenInfo   `gorm:"-" json:"allergens,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Product) TableName() string { return "product" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ProductVariant struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID     uuid.UUID      `gorm:"type:uuid;index;not null" json:"product_id"`
	Name          string         `gorm:"not null" json:"name"`
	SKU           string         `gorm:"uniqueIndex;not null;column:sku" json:"sku"`
	PriceCents    int64          `gorm:"not null;column:price_cents" json:"price_cents"`
	StockQuantity int            `gorm:"not null;column:stock_quantity" json:"stock_quantity"`
	IsDefault     bool           `gorm:"not null;column:is_default" json:"is_default"`
	Flavor        string         `gorm:"index" json:"flavor,omitempty"`
	Size          string         `gorm:"index" json:"size,omitempty"`
	Type          string         `gorm:"index" json:"type,omitempty"`
	Attributes    datatypes.JSON `json:"attributes,omitempty"`
	Description   string         `json:"description,omitempty"`
	IsAvailable   bool           `gorm:"not null;column:is_available" json:"is_available"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (ProductVariant) TableName() string { return "product_variant" }

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

type ProductImage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null" json:"product_id"`
	URL       string    `gorm:"not null" json:"url"`
	AltText   string    `gorm:"column:alt_text" json:"alt_text"`
	SortOrder int       `gorm:"not null" json:"sort_order"`
	IsMain    bool      `gorm:"not null;column:is_main" json:"is_main"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ProductImage) TableName() string { return "product_image" }

func (i *ProductImage) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

var TagTypes = []string{"dietary", "occasion", "flavor", "texture", "style", "other"}

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Type      string    `gorm:"not null;index" json:"type"`
	Color     string    `json:"color"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (Tag) TableName() string { return "tag" }

func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type ProductTag struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey" json:"product_id"`
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"tag_id"`
}

func (ProductTag) TableName() string { return "product_tag" }

var AllergenSeverities = []string{"mild", "moderate", "severe"}

type Allergen struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;not null" json:"name"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Allergen) TableName() string { return "allergen" }

func (a *Allergen) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type ProductAllergen struct {
	ProductID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"product_id"`
	AllergenID       uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"allergen_id"`
	ContainsAllergen bool      `gorm:"not null;column:contains_allergen" json:"contains_allergen"`
	MayContain       bool      `gorm:"not null;column:may_contain" json:"may_contain"`
}

func (ProductAllergen) TableName() string { return "product_allergen" }

// AllergenInfo is an allergen as attached to one product.
type AllergenInfo struct {
	Allergen
	ContainsAllergen bool `json:"contains_allergen"`
	MayContain       bool `json:"may_contain"`
}
