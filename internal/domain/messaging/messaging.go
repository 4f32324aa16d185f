package messaging

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ThreadOpen    = "open"
	ThreadClosed  = "closed"
	ThreadPending = "pending"
)

var ThreadStatuses = []string{ThreadOpen, ThreadClosed, ThreadPending}

var Priorities = []string{"low", "normal", "high", "urgent"}

type MessageThread struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	Subject       string     `gorm:"not null" json:"subject"`
	Status        string     `gorm:"not null;index" json:"status"`
	Priority      string     `gorm:"not null;index" json:"priority"`
	OrderID       *uuid.UUID `gorm:"type:uuid;index" json:"order_id,omitempty"`
	LastMessageAt time.Time  `gorm:"not null;index" json:"last_message_at"`
	Messages      []Message  `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`
}

func (MessageThread) TableName() string { return "message_thread" }

func (t *MessageThread) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Message struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID       uuid.UUID      `gorm:"type:uuid;index;not null" json:"thread_id"`
	SenderID       uuid.UUID      `gorm:"type:uuid;not null" json:"sender_id"`
	Content        string         `gorm:"type:text;not null" json:"content"`
	IsFromCustomer bool           `gorm:"not null;column:is_from_customer" json:"is_from_customer"`
	IsRead         bool           `gorm:"not null;column:is_read" json:"is_read"`
	Attachments    datatypes.JSON `json:"attachments,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Message) TableName() string { return "message" }

func (m *Message) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

const (
	RequestPending   = "pending"
	RequestReviewing = "reviewing"
	RequestQuoted    = "quoted"
	RequestApproved  = "approved"
	RequestDeclined  = "declined"
	RequestCompleted = "completed"
)

var RequestStatuses = []string{RequestPending, RequestReviewing, RequestQuoted, RequestApproved, RequestDeclined, RequestCompleted}

var RequestTypes = []string{"custom_cake", "custom_cookies", "special_flavor", "custom_decoration", "bulk_order", "other"}

type CustomRequest struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	RequestType      string         `gorm:"not null;index;column:request_type" json:"request_type"`
	Title            string         `gorm:"not null" json:"title"`
	Description      string         `gorm:"type:text;not null" json:"description"`
	Specifications   datatypes.JSON `json:"specifications,omitempty"`
	ReferenceImages  datatypes.JSON `gorm:"column:reference_images" json:"reference_images,omitempty"`
	BudgetRange      string         `gorm:"column:budget_range" json:"budget_range,omitempty"`
	EventDate        *time.Time     `gorm:"column:event_date" json:"event_date,omitempty"`
	Status           string         `gorm:"not null;index" json:"status"`
	AdminNotes       string         `gorm:"column:admin_notes" json:"admin_notes,omitempty"`
	QuotedPriceCents *int64         `gorm:"column:quoted_price_cents" json:"quoted_price_cents,omitempty"`
	OrderID          *uuid.UUID     `gorm:"type:uuid" json:"order_id,omitempty"`
	CreatedAt        time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (CustomRequest) TableName() string { return "custom_request" }

func (r *CustomRequest) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
