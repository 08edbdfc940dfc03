package models

// Auth providers known to the platform.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User describes platform accounts. Password is nil for accounts created
// through OAuth that never set a local credential.
type User struct {
	BaseModel

	Name  string `json:"name"`
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	// PasswordHash is nil for pure-OAuth accounts.
	PasswordHash *string `json:"-"`

	Provider   string  `gorm:"not null;default:local" json:"provider"`
	ProviderID *string `gorm:"uniqueIndex" json:"-"`

	Avatar string `json:"avatar,omitempty"`
	Bio    string `gorm:"type:text" json:"bio,omitempty"`

	IsEmailVerified bool `gorm:"default:false" json:"is_email_verified"`

	// RefreshTokenHash holds the digest of the single currently-valid
	// refresh token; nil when the user holds none.
	RefreshTokenHash *string `json:"-"`

	VerificationTokens []VerificationToken `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Sanitized returns a copy safe to hand back to callers: no password hash,
// no refresh token hash.
func (u User) Sanitized() User {
	u.PasswordHash = nil
	u.RefreshTokenHash = nil
	return u
}
