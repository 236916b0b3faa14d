package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListFeatures lists features, optionally narrowed by namespace and environment
func (c *Client) ListFeatures(ctx context.Context, filter FeatureFilter) ([]Feature, error) {
	path := "/features"
	params := url.Values{}
	if filter.Namespace != "" {
		params.Set("namespace", filter.Namespace)
	}
	if filter.Environment != "" {
		params.Set("environment", filter.Environment)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp []Feature
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetFeatureByKey looks a feature up by its composite identity
func (c *Client) GetFeatureByKey(ctx context.Context, key FeatureKey) (*Feature, error) {
	var resp Feature
	if err := c.request(ctx, http.MethodGet, "/features/feature?"+keyParams(key).Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateFeature creates a new feature
func (c *Client) CreateFeature(ctx context.Context, req *FeatureCreate) (*Feature, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	var resp Feature
	if err := c.request(ctx, http.MethodPost, "/features", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateFeature updates a feature by id
func (c *Client) UpdateFeature(ctx context.Context, id int64, req *FeatureUpdate) (*Feature, error) {
	var resp Feature
	if err := c.request(ctx, http.MethodPut, "/features/"+strconv.FormatInt(id, 10), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteFeature deletes a feature by id
func (c *Client) DeleteFeature(ctx context.Context, id int64) error {
	return c.request(ctx, http.MethodDelete, "/features/"+strconv.FormatInt(id, 10), nil, nil)
}

// ToggleFeature sets the enabled flag through the composite-key endpoint.
// The list and detail flows use UpdateFeature instead.
func (c *Client) ToggleFeature(ctx context.Context, key FeatureKey, enabled bool) (*Feature, error) {
	var resp Feature
	path := "/features/feature/toggle?" + keyParams(key).Encode()
	if err := c.request(ctx, http.MethodPatch, path, &ToggleRequest{Enabled: enabled}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func keyParams(key FeatureKey) url.Values {
	params := url.Values{}
	params.Set("name", key.Name)
	params.Set("namespace", key.Namespace)
	params.Set("environment", key.Environment)
	return params
}
