package rpcclient

import (
	"context"
	"net/http"

	"github.com/baechuer/newslink/internal/transport/http/dto"
)

// SignUp registers a new account and keeps its session.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (dto.AuthData, error) {
	return c.authenticate(ctx, "/api/auth/sign-up/email", dto.SignUpRequest{
		Email:    email,
		Password: password,
		Name:     name,
	})
}

// SignIn keeps the returned session both as a cookie and as the bearer token.
func (c *Client) SignIn(ctx context.Context, email, password string) (dto.AuthData, error) {
	return c.authenticate(ctx, "/api/auth/sign-in/email", dto.SignInRequest{
		Email:    email,
		Password: password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (dto.AuthData, error) {
	var out dto.AuthData
	if err := c.post(ctx, path, body, &out); err != nil {
		return dto.AuthData{}, err
	}
	c.SetToken(out.Token)
	return out, nil
}

// SignOut revokes the session server-side and forgets the local token even
// when the server call fails.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.post(ctx, "/api/auth/sign-out", nil, nil)
	c.SetToken("")
	return err
}

// GetSession returns nil, nil when the caller is signed out.
func (c *Client) GetSession(ctx context.Context) (*dto.SessionData, error) {
	var out *dto.SessionData
	if err := c.do(ctx, http.MethodGet, c.endpoint("/api/auth/get-session"), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.endpoint("/healthz"), nil, nil)
}
