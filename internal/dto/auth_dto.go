package dto

import (
	"bytes"
	"encoding/json"
)

// User is the authenticated teacher as returned by the auth endpoints.
type User struct {
	ID    ID     `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginRequest carries teacher credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a teacher account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// MeResponse resolves the session behind a bearer token. The API may wrap the
// user under "user" or return it bare, optionally with a refreshed token.
type MeResponse struct {
	User  User   `json:"user"`
	Token string `json:"token,omitempty"`
}

// UnmarshalJSON accepts both the wrapped and the bare user shape.
func (m *MeResponse) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		User  *User  `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	m.Token = wrapped.Token
	if wrapped.User != nil {
		m.User = *wrapped.User
		return nil
	}

	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		m.User = User{}
		return nil
	}
	return json.Unmarshal(data, &m.User)
}
