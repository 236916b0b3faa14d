package api

import (
	"context"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a bearer token. No token is sent with
// this request.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, "/auth/login", &LoginRequest{Username: username, Password: password}, nil, false)
	if err != nil {
		return nil, err
	}

	var resp LoginResponse
	if err := decode(raw, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response carried no token")
	}
	return &resp, nil
}
