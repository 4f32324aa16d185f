package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/deelicious-bakes-backend/internal/domain"
	"github.com/yungbote/deelicious-bakes-backend/internal/domain/orders"
)

func SeedUser(tb testing.TB, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Email:       email,
		Password:    "pw",
		FirstName:   "Dee",
		LastName:    "Baker",
		Role:        types.RoleUser,
		AvatarColor: "#E8A0BF",
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedAdmin(tb testing.TB, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := SeedUser(tb, tx, email)
	if err := tx.Model(u).Update("role", types.RoleAdmin).Error; err != nil {
		tb.Fatalf("seed admin: %v", err)
	}
	u.Role = types.RoleAdmin
	return u
}

func SeedCategory(tb testing.TB, tx *gorm.DB, slug string, parentID *uuid.UUID, sortOrder int) *types.Category {
	tb.Helper()
	c := &types.Category{
		ID:        uuid.New(),
		Name:      slug,
		Slug:      slug,
		ParentID:  parentID,
		SortOrder: sortOrder,
		IsActive:  true,
	}
	if err := tx.Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedProduct(tb testing.TB, tx *gorm.DB, slug string, categoryID *uuid.UUID, priceCents int64, stock int) *types.Product {
	tb.Helper()
	p := &types.Product{
		ID:             uuid.New(),
		Name:           slug,
		Slug:           slug,
		Description:    "A " + slug + " from the oven",
		CategoryID:     categoryID,
		BasePriceCents: priceCents,
		IsActive:       true,
		StockQuantity:  stock,
	}
	if err := tx.Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedVariant(tb testing.TB, tx *gorm.DB, productID uuid.UUID, sku string, priceCents int64, stock int) *types.ProductVariant {
	tb.Helper()
	v := &types.ProductVariant{
		ID:            uuid.New(),
		ProductID:     productID,
		Name:          sku,
		SKU:           sku,
		PriceCents:    priceCents,
		StockQuantity: stock,
		IsAvailable:   true,
		Attributes:    datatypes.JSON([]byte("{}")),
	}
	if err := tx.Create(v).Error; err != nil {
		tb.Fatalf("seed variant: %v", err)
	}
	return v
}

func SeedTag(tb testing.TB, tx *gorm.DB, name, tagType string, productIDs ...uuid.UUID) *types.Tag {
	tb.Helper()
	tag := &types.Tag{ID: uuid.New(), Name: name, Type: tagType, Color: "#A0C49D"}
	if err := tx.Create(tag).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	for _, pid := range productIDs {
		if err := tx.Create(&types.ProductTag{ProductID: pid, TagID: tag.ID}).Error; err != nil {
			tb.Fatalf("seed product tag: %v", err)
		}
	}
	return tag
}

func SeedAllergen(tb testing.TB, tx *gorm.DB, name string, productIDs ...uuid.UUID) *types.Allergen {
	tb.Helper()
	a := &types.Allergen{ID: uuid.New(), Name: name, Severity: "moderate"}
	if err := tx.Create(a).Error; err != nil {
		tb.Fatalf("seed allergen: %v", err)
	}
	for _, pid := range productIDs {
		row := &types.ProductAllergen{ProductID: pid, AllergenID: a.ID, ContainsAllergen: true}
		if err := tx.Create(row).Error; err != nil {
			tb.Fatalf("seed product allergen: %v", err)
		}
	}
	return a
}

// SeedOrder creates an order with one line per product at its base price.
func SeedOrder(tb testing.TB, tx *gorm.DB, userID uuid.UUID, status string, products ...*types.Product) *types.Order {
	tb.Helper()
	o := &types.Order{
		ID:            uuid.New(),
		OrderNumber:   "DLB-" + uuid.NewString()[:13],
		UserID:        userID,
		Status:        status,
		PaymentStatus: orders.PaymentPending,
		DeliveryAddress: datatypes.NewJSONType(types.DeliveryAddress{
			FirstName: "Dee", LastName: "Baker", AddressLine1: "1 Oven Way",
			City: "Austin", State: "TX", PostalCode: "78701", Country: "US",
		}),
	}
	for _, p := range products {
		o.Items = append(o.Items, types.OrderItem{
			ProductID:       p.ID,
			ProductName:     p.Name,
			Quantity:        1,
			UnitPriceCents:  p.BasePriceCents,
			TotalPriceCents: p.BasePriceCents,
		})
		o.SubtotalCents += p.BasePriceCents
	}
	o.TotalCents = o.SubtotalCents
	if err := tx.Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrInt(v int) *int { return &v }
