package apiclient

import (
	"context"
	"net/http"

	"storefront-client/internal/domain"
)

// Login exchanges credentials for a bearer token and the user profile.
func (c *Client) Login(ctx context.Context, in domain.LoginRequest) (*domain.AuthResponse, error) {
	var out domain.AuthResponse
	if err := c.send(ctx, request{method: http.MethodPost, route: "/auth/login", path: "/auth/login", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. It does not log the caller in.
func (c *Client) Register(ctx context.Context, in domain.RegisterRequest) (*domain.User, error) {
	var out domain.User
	if err := c.send(ctx, request{method: http.MethodPost, route: "/auth/register", path: "/auth/register", body: in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me resolves the identity behind the current credential. The API exposes it
// as POST, not GET.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var out domain.User
	if err := c.send(ctx, request{method: http.MethodPost, route: "/auth/me", path: "/auth/me"}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
