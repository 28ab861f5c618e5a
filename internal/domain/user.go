package domain

import (
	"time"
)

// User represents a registered user. PasswordHash is never serialized: it
// stays inside the orchestrator/store boundary.
type User struct {
	ID           string    `json:"id"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Sanitized returns a copy of the user with the password hash removed, for
// handing out across the service boundary.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone
}

// TokenPair holds an access and refresh token pair. Each token is a
// self-contained signed artifact; there is no server-side session state.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
