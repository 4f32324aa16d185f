package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password      string    `gorm:"not null;column:password" json:"-"`
	FirstName     string    `gorm:"not null;column:first_name" json:"first_name"`
	LastName      string    `gorm:"not null;column:last_name" json:"last_name"`
	Role          string    `gorm:"not null;index;column:role" json:"role"`
	EmailVerified bool      `gorm:"not null;column:email_verified" json:"email_verified"`
	Banned        bool      `gorm:"not null;index;column:banned" json:"banned"`
	BanReason     string    `gorm:"column:ban_reason" json:"ban_reason,omitempty"`
	AvatarColor   string    `gorm:"column:avatar_color" json:"avatar_color"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}

// UserAvatar holds an uploaded avatar; users without one get a generated image.
type UserAvatar struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	PNG       []byte    `gorm:"not null;column:png" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserAvatar) TableName() string { return "user_avatar" }
