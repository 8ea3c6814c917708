package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Profile is the public face of a user, keyed by the identity provider's UID
type Profile struct {
	ID        uint      `json:"-" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email,omitempty" gorm:"index"`
	Username  *string   `json:"username" gorm:"uniqueIndex"` // stored lowercased
	FullName  string    `json:"full_name"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileCompact is the author block embedded in posts and comments
type ProfileCompact struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ToCompact converts a profile to its compact form
func (p *Profile) ToCompact() ProfileCompact {
	c := ProfileCompact{
		UserID:    p.UserID,
		FullName:  p.FullName,
		Bio:       p.Bio,
		AvatarURL: p.AvatarURL,
	}
	if p.Username != nil {
		c.Username = *p.Username
	}
	return c
}

// NormalizeUsername is the stored form of a username. Usernames are unique ignoring case.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// UpsertProfileRequest defines the request body for saving one's own profile
type UpsertProfileRequest struct {
	Username  string `json:"username" validate:"omitempty,min=2,max=40,alphanumunicode"`
	FullName  string `json:"full_name" validate:"max=100"`
	Bio       string `json:"bio" validate:"max=1000"`
	AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	Website   string `json:"website" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
