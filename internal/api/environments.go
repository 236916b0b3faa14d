package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListEnvironments lists all environments
func (c *Client) ListEnvironments(ctx context.Context) ([]Environment, error) {
	var resp []Environment
	if err := c.request(ctx, http.MethodGet, "/environments", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetEnvironment gets an environment by id
func (c *Client) GetEnvironment(ctx context.Context, id ID) (*Environment, error) {
	var resp Environment
	if err := c.request(ctx, http.MethodGet, "/environments/"+url.PathEscape(id.String()), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateEnvironment creates a new environment
func (c *Client) CreateEnvironment(ctx context.Context, name string) (*Environment, error) {
	req := &NameRequest{Name: name}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp Environment
	if err := c.request(ctx, http.MethodPost, "/environments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateEnvironment renames an environment
func (c *Client) UpdateEnvironment(ctx context.Context, id ID, name string) (*Environment, error) {
	req := &NameRequest{Name: name}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp Environment
	if err := c.request(ctx, http.MethodPut, "/environments/"+url.PathEscape(id.String()), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteEnvironment deletes an environment by id
func (c *Client) DeleteEnvironment(ctx context.Context, id ID) error {
	return c.request(ctx, http.MethodDelete, "/environments/"+url.PathEscape(id.String()), nil, nil)
}
