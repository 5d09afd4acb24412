package domain

import "time"

// User represents an account in the system. An account is created either
// by local username/password registration or by completing an OAuth
// provider login, in which case AuthID carries the provider subject.
type User struct {
	Entity
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name,omitempty"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	AuthID       string    `json:"auth_id,omitempty"`       // Provider subject, empty for local accounts
	PasswordHash string    `json:"password_hash,omitempty"` // Stored hashed, filter from API responses
	LastLoginAt  time.Time `json:"last_login_at"`
}

// IsLocal returns true if the account authenticates with a password
// rather than through the OAuth provider.
func (u *User) IsLocal() bool {
	return u.AuthID == ""
}

// Name returns the best available name to display for the user.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
