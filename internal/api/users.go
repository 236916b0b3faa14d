package api

import (
	"context"
	"net/http"
	"net/url"
)

// ListUsers lists all users
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp []User
	if err := c.request(ctx, http.MethodGet, "/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetUser gets a user by id
func (c *Client) GetUser(ctx context.Context, id ID) (*User, error) {
	var resp User
	if err := c.request(ctx, http.MethodGet, "/users/"+url.PathEscape(id.String()), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateUser creates a new user
func (c *Client) CreateUser(ctx context.Context, req *UserCreate) (*User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp User
	if err := c.request(ctx, http.MethodPost, "/users", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateUser sends the changed fields of a user
func (c *Client) UpdateUser(ctx context.Context, id ID, req *UserUpdate) (*User, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp User
	if err := c.request(ctx, http.MethodPut, "/users/"+url.PathEscape(id.String()), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteUser deletes a user by id
func (c *Client) DeleteUser(ctx context.Context, id ID) error {
	return c.request(ctx, http.MethodDelete, "/users/"+url.PathEscape(id.String()), nil, nil)
}

// ChangePassword changes the password of the authenticated user
func (c *Client) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	req := &ChangePasswordRequest{CurrentPassword: currentPassword, NewPassword: newPassword}
	if err := Validate(req); err != nil {
		return err
	}
	return c.request(ctx, http.MethodPatch, "/users/change-password", req, nil)
}

// Diff builds an update carrying only the fields of next that differ from
// prev. An empty password means "unchanged".
func Diff(prev User, next User, password string) UserUpdate {
	var upd UserUpdate
	if next.Name != prev.Name {
		upd.Name = &next.Name
	}
	if next.Username != prev.Username {
		upd.Username = &next.Username
	}
	if next.Email != prev.Email {
		upd.Email = &next.Email
	}
	if next.Description != prev.Description {
		upd.Description = &next.Description
	}
	if next.Roles != prev.Roles {
		upd.Roles = &next.Roles
	}
	if password != "" {
		upd.Password = &password
	}
	return upd
}
