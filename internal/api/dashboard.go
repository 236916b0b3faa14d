package api

import (
	"context"
	"net/http"
)

// Dashboard gets the aggregate counts shown on the landing page
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var resp Dashboard
	if err := c.request(ctx, http.MethodGet, "/metrics/dashboard", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
