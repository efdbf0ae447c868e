package gateway

import (
	"context"
	"net/http"

	"github.com/noah-isme/classpilot-go/internal/dto"
)

// Me resolves the session behind token.
func (c *Client) Me(ctx context.Context, token string) (dto.MeResponse, error) {
	var out dto.MeResponse
	err := c.do(ctx, call{
		op:        "auth.me",
		method:    http.MethodGet,
		segments:  []string{"auth", "me"},
		token:     token,
		protected: true,
		out:       &out,
	})
	return out, err
}

// Register creates a teacher account.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, call{
		op:       "auth.register",
		method:   http.MethodPost,
		segments: []string{"auth", "register"},
		body:     req,
		out:      &out,
	})
	return out, err
}

// Login authenticates a teacher.
func (c *Client) Login(ctx context.Context, req dto.LoginRequest) (dto.AuthResponse, error) {
	var out dto.AuthResponse
	err := c.do(ctx, call{
		op:       "auth.login",
		method:   http.MethodPost,
		segments: []string{"auth", "login"},
		body:     req,
		out:      &out,
	})
	return out, err
}

// Logout asks the API to invalidate token.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, call{
		op:        "auth.logout",
		method:    http.MethodPost,
		segments:  []string{"auth", "logout"},
		token:     token,
		protected: true,
		body:      struct{}{},
	})
}
