package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultAuditPageSize is the page size used by the audit timeline
const DefaultAuditPageSize = 10

// AuditSort is the server-side ordering always requested for audit logs
const AuditSort = "createdAt,desc"

// FilterAll is the selector value meaning "no filter"
const FilterAll = "all"

// AuditQuery selects a page of audit logs for one entity
type AuditQuery struct {
	Page       int
	Size       int
	Actions    []string
	UserType   string
	Username   string
	DataSource string
}

// Values encodes the query. Filters are only included when present and not
// "all"; sort is always createdAt descending.
func (q AuditQuery) Values() url.Values {
	size := q.Size
	if size <= 0 {
		size = DefaultAuditPageSize
	}
	page := q.Page
	if page < 0 {
		page = 0
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("size", strconv.Itoa(size))
	params.Set("sort", AuditSort)

	if len(q.Actions) > 0 {
		params.Set("action", strings.Join(q.Actions, ","))
	}
	if isSelected(q.UserType) {
		params.Set("user_type", q.UserType)
	}
	if username := strings.TrimSpace(q.Username); username != "" {
		params.Set("username", username)
	}
	if isSelected(q.DataSource) {
		params.Set("data_source", q.DataSource)
	}
	return params
}

func isSelected(v string) bool {
	return v != "" && v != FilterAll
}

// AuditByFeature gets a page of audit logs for a feature
func (c *Client) AuditByFeature(ctx context.Context, featureID string, q AuditQuery) (*Page[AuditLog], error) {
	path := "/audit/feature/" + url.PathEscape(featureID) + "?" + q.Values().Encode()

	var resp Page[AuditLog]
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Content == nil {
		resp.Content = []AuditLog{}
	}
	return &resp, nil
}
