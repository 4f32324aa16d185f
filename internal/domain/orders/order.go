package orders

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/deelicious-bakes-backend/internal/domain/cart"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var Statuses = []string{StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusDelivered, StatusCancelled}

const (
	PaymentPending    = "pending"
	PaymentProcessing = "processing"
	PaymentCompleted  = "completed"
	PaymentFailed     = "failed"
	PaymentRefunded   = "refunded"
)

var PaymentStatuses = []string{PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded}

var transitions = map[string][]string{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// OpenStatuses are the statuses counted as "pending" in dashboards.
var OpenStatuses = []string{StatusPending, StatusConfirmed, StatusPreparing}

type DeliveryAddress struct {
	FirstName            string `json:"first_name" binding:"required,max=50"`
	LastName             string `json:"last_name" binding:"required,max=50"`
	AddressLine1         string `json:"address_line1" binding:"required,max=100"`
	AddressLine2         string `json:"address_line2,omitempty" binding:"max=100"`
	City                 string `json:"city" binding:"required,max=50"`
	State                string `json:"state" binding:"required,max=50"`
	PostalCode           string `json:"postal_code" binding:"required,max=20"`
	Country              string `json:"country" binding:"required,max=50"`
	Phone                string `json:"phone,omitempty" binding:"max=20"`
	DeliveryInstructions string `json:"delivery_instructions,omitempty" binding:"max=500"`
}

type Order struct {
	ID                  uuid.UUID                           `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber         string                              `gorm:"uniqueIndex;not null;column:order_number" json:"order_number"`
	UserID              uuid.UUID                           `gorm:"type:uuid;index;not null" json:"user_id"`
	Status              string                              `gorm:"not null;index" json:"status"`
	SubtotalCents       int64                               `gorm:"not null" json:"subtotal_cents"`
	TaxCents            int64                               `gorm:"not null" json:"tax_cents"`
	DeliveryFeeCents    int64                               `gorm:"not null" json:"delivery_fee_cents"`
	TotalCents          int64                               `gorm:"not null;index" json:"total_cents"`
	SpecialInstructions string                              `gorm:"type:text" json:"special_instructions,omitempty"`
	DeliveryDate        *time.Time                          `gorm:"index" json:"delivery_date,omitempty"`
	DeliveryAddress     datatypes.JSONType[DeliveryAddress] `json:"delivery_address"`
	PaymentStatus       string                              `gorm:"not null;index" json:"payment_status"`
	PaymentIntentID     string                              `gorm:"column:payment_intent_id" json:"payment_intent_id,omitempty"`

	Items   []OrderItem          `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	History []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"history,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Order) TableName() string { return "customer_order" }

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID              uuid.UUID                               `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID         uuid.UUID                               `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID       uuid.UUID                               `gorm:"type:uuid;index;not null" json:"product_id"`
	VariantID       *uuid.UUID                              `gorm:"type:uuid" json:"variant_id,omitempty"`
	ProductName     string                                  `gorm:"not null" json:"product_name"`
	VariantName     string                                  `json:"variant_name,omitempty"`
	Quantity        int                                     `gorm:"not null" json:"quantity"`
	UnitPriceCents  int64                                   `gorm:"not null" json:"unit_price_cents"`
	TotalPriceCents int64                                   `gorm:"not null" json:"total_price_cents"`
	Customizations  datatypes.JSONType[cart.Customizations] `json:"customizations"`
	CreatedAt       time.Time                               `gorm:"not null" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_item" }

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type OrderStatusHistory struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"order_id"`
	Status    string     `gorm:"not null" json:"status"`
	Notes     string     `json:"notes,omitempty"`
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	CreatedAt time.Time  `gorm:"not null;index" json:"created_at"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }

func (h *OrderStatusHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
