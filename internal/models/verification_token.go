package models

import "time"

// VerificationToken proves ownership of an email address. Consumption is
// destructive: the row is deleted once the token is redeemed, making each
// token single-use.
type VerificationToken struct {
	BaseModel

	Token     string    `gorm:"uniqueIndex;not null" json:"-"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	User      *User     `json:"-"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}
