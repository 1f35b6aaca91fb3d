package models

import (
	"database/sql/driver"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StringArray is a custom type for PostgreSQL text[] that implements Scanner and Valuer
type StringArray []string

// Scan implements the sql.Scanner interface for reading from database
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}

	// PostgreSQL returns text[] as a string like "{value1,value2,value3}"
	str, ok := value.(string)
	if !ok {
		if bytes, ok := value.([]byte); ok {
			str = string(bytes)
		} else {
			*a = nil
			return nil
		}
	}

	str = strings.TrimPrefix(str, "{")
	str = strings.TrimSuffix(str, "}")

	if str == "" {
		*a = []string{}
		return nil
	}

	// Simple case - doesn't handle quoted values with commas
	*a = strings.Split(str, ",")
	return nil
}

// Value implements the driver.Valuer interface for writing to database
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	if len(a) == 0 {
		return "{}", nil
	}
	return "{" + strings.Join(a, ",") + "}", nil
}

// User represents a CollegeDost account. Accounts are created either through
// phone-OTP verification or Google sign-in; both paths converge on the same
// record, so Phone and GoogleID are independently nullable.
type User struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Phone       *string `gorm:"uniqueIndex" json:"phone,omitempty"`
	GoogleID    *string `gorm:"uniqueIndex" json:"-"`
	Email       *string `gorm:"uniqueIndex" json:"email,omitempty"`
	Username    string  `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string  `gorm:"not null" json:"display_name"`
	Bio         string  `gorm:"type:text" json:"bio"`

	// Opaque storage key for the avatar image; URL building happens at the edge
	AvatarKey string `json:"avatar_key"`

	// Exams the user is preparing for, used to scope "my exams" feed filtering
	InterestedExams StringArray `gorm:"type:text[]" json:"interested_exams"`

	// Cached social counters, maintained by follow/post flows
	FollowerCount  int `gorm:"default:0" json:"follower_count"`
	FollowingCount int `gorm:"default:0" json:"following_count"`
	PostCount      int `gorm:"default:0" json:"post_count"`

	PhoneVerified bool       `gorm:"default:false" json:"phone_verified"`
	LastActiveAt  *time.Time `json:"last_active_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Follow represents a follower -> followee edge
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;index" json:"follower_id"`
	Follower   User   `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
	FolloweeID string `gorm:"not null;index" json:"followee_id"`
	Followee   User   `gorm:"foreignKey:FolloweeID" json:"followee,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName ensures unique constraint naming for the follow edge table
func (Follow) TableName() string {
	return "follows"
}

// PhoneOTP stores a pending phone verification. Only a bcrypt hash of the
// code is persisted; the plaintext code exists solely in the delivery channel.
type PhoneOTP struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Phone    string `gorm:"not null;index" json:"phone"`
	CodeHash string `gorm:"not null" json:"-"`
	Channel  string `gorm:"default:sms" json:"channel"` // "sms" or "email"

	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Attempts  int       `gorm:"default:0" json:"attempts"`
	Used      bool      `gorm:"default:false" json:"used"`

	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate hooks for GORM

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (o *PhoneOTP) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
