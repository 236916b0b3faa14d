package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListNamespaces lists all namespaces
func (c *Client) ListNamespaces(ctx context.Context) ([]Namespace, error) {
	var resp []Namespace
	if err := c.request(ctx, http.MethodGet, "/namespaces", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetNamespace gets a namespace by id
func (c *Client) GetNamespace(ctx context.Context, id ID) (*Namespace, error) {
	var resp Namespace
	if err := c.request(ctx, http.MethodGet, "/namespaces/"+url.PathEscape(id.String()), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateNamespace creates a new namespace
func (c *Client) CreateNamespace(ctx context.Context, name string) (*Namespace, error) {
	req := &NameRequest{Name: name}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp Namespace
	if err := c.request(ctx, http.MethodPost, "/namespaces", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateNamespace renames a namespace
func (c *Client) UpdateNamespace(ctx context.Context, id ID, name string) (*Namespace, error) {
	req := &NameRequest{Name: name}
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp Namespace
	if err := c.request(ctx, http.MethodPut, "/namespaces/"+url.PathEscape(id.String()), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteNamespace deletes a namespace by id
func (c *Client) DeleteNamespace(ctx context.Context, id ID) error {
	return c.request(ctx, http.MethodDelete, "/namespaces/"+url.PathEscape(id.String()), nil, nil)
}
