package users

import (
	"strings"
	"time"
)

const (
	ProviderPassword = "password"
	ProviderGoogle   = "google"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Phone        string     `json:"phone,omitempty"`
	Provider     string     `json:"provider"`
	ProviderSub  string     `json:"-"`
	PictureURL   string     `json:"pictureUrl,omitempty"`
	ReferredBy   *string    `json:"referredBy,omitempty"`
	IsActive     bool       `json:"isActive"`
	IsStaff      bool       `json:"isStaff"`
	IsSuperuser  bool       `json:"isSuperuser"`
	ExpiryDate   *time.Time `json:"expiryDate,omitempty"`
	DateJoined   time.Time  `json:"dateJoined"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// PremiumAt reports whether the user's paid access is still running at t.
func (u User) PremiumAt(t time.Time) bool {
	return u.ExpiryDate != nil && t.Before(*u.ExpiryDate)
}

// SignupInput is what a password signup supplies.
type SignupInput struct {
	Email      string
	Password   string
	Password2  string
	FirstName  string
	LastName   string
	Phone      string
	ReferredBy string
}

// ExternalIdentity is a profile returned by an OAuth provider.
type ExternalIdentity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}
