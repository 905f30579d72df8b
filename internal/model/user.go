package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ParseRole accepts the two known roles, case-insensitively.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleBuyer:
		return RoleBuyer, true
	case RoleSeller:
		return RoleSeller, true
	}
	return "", false
}

// Profile is the public face of a user.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email,omitempty"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      Role   `json:"role"`
}

// DisplayName falls back to a generic label for profiles without a name.
func (p Profile) DisplayName() string {
	if name := strings.TrimSpace(p.FullName); name != "" {
		return name
	}
	return "Property Seller"
}

// ProfileRow is created lazily the first time a signed-in user is seen.
type ProfileRow struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Role      string    `json:"role" gorm:"not null;default:'buyer'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ProfileRow) TableName() string {
	return "profiles"
}

// SavedPropertyRow marks a property as favorited by a user. Absence means
// not saved.
type SavedPropertyRow struct {
	UserID     string    `json:"user_id" gorm:"type:uuid;primaryKey"`
	PropertyID string    `json:"property_id" gorm:"type:uuid;primaryKey"`
	CreatedAt  time.Time `json:"created_at"`
}

func (SavedPropertyRow) TableName() string {
	return "saved_properties"
}

// AccountRow holds the credentials of an auth user. Provider is "email" for
// password accounts and the OAuth provider name otherwise.
type AccountRow struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	AvatarURL    string    `json:"avatar_url"`
	Provider     string    `json:"provider" gorm:"not null;default:'email'"`
	CreatedAt    time.Time `json:"created_at"`
}

func (AccountRow) TableName() string {
	return "accounts"
}
