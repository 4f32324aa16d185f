package newsletter

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusSubscribed   = "subscribed"
	StatusUnsubscribed = "unsubscribed"
)

var Sources = []string{"hero", "inline", "footer", "popup"}

type Subscriber struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email            string     `gorm:"uniqueIndex;not null" json:"email"`
	FirstName        string     `gorm:"column:first_name" json:"first_name,omitempty"`
	Source           string     `gorm:"not null" json:"source"`
	Status           string     `gorm:"not null;index" json:"status"`
	UnsubscribeToken string     `gorm:"uniqueIndex;not null;column:unsubscribe_token" json:"-"`
	SubscribedAt     time.Time  `gorm:"not null" json:"subscribed_at"`
	UnsubscribedAt   *time.Time `json:"unsubscribed_at,omitempty"`
	CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"not null" json:"updated_at"`
}

func (Subscriber) TableName() string { return "newsletter_subscriber" }

func (s *Subscriber) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
