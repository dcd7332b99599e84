package api

import (
	"context"
	"net/http"

	"github.com/dukerupert/wicket/internal/domain"
)

// Credentials is the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for the user identity and its token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*domain.User, error) {
	var resp struct {
		Message string       `json:"message"`
		User    *domain.User `json:"user"`
		Token   string       `json:"token"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		route:  "/auth/login",
		body:   creds,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, &ResponseError{Method: http.MethodPost, Path: "/auth/login", StatusCode: http.StatusBadGateway, Message: resp.Message}
	}

	user := *resp.User
	// Some backends return the token beside the user rather than inside it.
	if user.Token == "" {
		user.Token = resp.Token
	}
	return &user, nil
}
