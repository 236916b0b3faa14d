package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// ID is a record identifier. The backend sends ids as JSON numbers for some
// resources and as strings for others; both decode into ID.
type ID string

// UnmarshalJSON accepts a JSON string, number or null
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string {
	return string(id)
}

// Int64 parses the id as a number, returning 0 if it is not one
func (id ID) Int64() int64 {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Timestamp decodes both RFC 3339 times and zone-less local date times
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// UnmarshalJSON parses a JSON string timestamp; null and "" decode to zero
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if string(bytes.TrimSpace(b)) == "null" {
		t.Time = time.Time{}
		return nil
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// MarshalJSON writes the timestamp as RFC 3339, or null when zero
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Snapshot is a serialized entity snapshot stored in an audit log. The
// backend may send it as a JSON string or as an embedded JSON value; either
// way it is kept as text.
type Snapshot string

// UnmarshalJSON keeps strings as is and other JSON values as their raw text
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Snapshot(str)
		return nil
	}
	*s = Snapshot(b)
	return nil
}

// LoginRequest is the credential exchange body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful credential exchange
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// User is a Togglr operator account
type User struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Description string    `json:"description,omitempty"`
	Roles       string    `json:"roles"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// DisplayName returns the first name when set, else the username
func (u User) DisplayName() string {
	if fields := strings.Fields(u.Name); len(fields) > 0 {
		return fields[0]
	}
	return u.Username
}

// UserCreate is the body for creating a user
type UserCreate struct {
	Name     string `json:"name" validate:"required,notblank"`
	Username string `json:"username" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank"`
	Roles    string `json:"roles,omitempty"`
}

// UserUpdate carries only the fields that changed
type UserUpdate struct {
	Name        *string `json:"name,omitempty"`
	Username    *string `json:"username,omitempty"`
	Email       *string `json:"email,omitempty" validate:"omitnil,email"`
	Description *string `json:"description,omitempty"`
	Roles       *string `json:"roles,omitempty"`
	Password    *string `json:"password,omitempty"`
}

// Empty reports whether no field is set
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Username == nil && u.Email == nil &&
		u.Description == nil && u.Roles == nil && u.Password == nil
}

// ChangePasswordRequest is the body for a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

// FeatureKey is the composite identity of a feature
type FeatureKey struct {
	Name        string
	Namespace   string
	Environment string
}

func (k FeatureKey) String() string {
	return k.Name + "|" + k.Namespace + "|" + k.Environment
}

// Feature is a feature toggle
type Feature struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Namespace   string          `json:"namespace"`
	Environment string          `json:"environment"`
	Enabled     bool            `json:"enabled"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   Timestamp       `json:"createdAt"`
	UpdatedAt   Timestamp       `json:"updatedAt"`
}

// Key returns the composite identity used for navigation
func (f Feature) Key() FeatureKey {
	return FeatureKey{Name: f.Name, Namespace: f.Namespace, Environment: f.Environment}
}

// Description returns metadata.description when metadata is an object with a
// string description
func (f Feature) Description() string {
	if len(f.Metadata) == 0 {
		return ""
	}
	var obj struct {
		Description any `json:"description"`
	}
	if err := json.Unmarshal(f.Metadata, &obj); err != nil {
		return ""
	}
	s, _ := obj.Description.(string)
	return s
}

// FeatureFilter narrows a feature listing on the server side
type FeatureFilter struct {
	Namespace   string
	Environment string
}

// FeatureCreate is the body for creating a feature
type FeatureCreate struct {
	Name        string          `json:"name" validate:"required,notblank"`
	Namespace   string          `json:"namespace" validate:"required,notblank"`
	Environment string          `json:"environment" validate:"required,notblank"`
	Enabled     bool            `json:"enabled"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
}

// FeatureUpdate is the body for the general update-by-id endpoint
type FeatureUpdate struct {
	Enabled  *bool           `json:"enabled,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ToggleRequest is the body of the composite-key toggle endpoint
type ToggleRequest struct {
	Enabled bool `json:"enabled"`
}

// Environment is a deployment context
type Environment struct {
	ID               ID        `json:"id"`
	Name             string    `json:"name"`
	CreatedAt        Timestamp `json:"createdAt"`
	TotalFeatures    int       `json:"totalFeatures"`
	ActiveFeatures   int       `json:"activeFeatures"`
	InactiveFeatures int       `json:"inactiveFeatures"`
}

// Namespace is a logical grouping of features
type Namespace struct {
	ID               ID        `json:"id"`
	Name             string    `json:"name"`
	CreatedAt        Timestamp `json:"createdAt"`
	TotalFeatures    int       `json:"totalFeatures"`
	ActiveFeatures   int       `json:"activeFeatures"`
	InactiveFeatures int       `json:"inactiveFeatures"`
}

// NameRequest is the create/update body for environments and namespaces
type NameRequest struct {
	Name string `json:"name" validate:"required,notblank"`
}

// Dashboard holds aggregate counts for the landing page
type Dashboard struct {
	TotalFeatures     int `json:"totalFeatures"`
	ActiveFeatures    int `json:"activeFeatures"`
	TotalEnvironments int `json:"totalEnvironments"`
	TotalNamespaces   int `json:"totalNamespaces"`
	TotalUsers        int `json:"totalUsers"`
}

// InactiveFeatures is derived from the total and active counts
func (d Dashboard) InactiveFeatures() int {
	return d.TotalFeatures - d.ActiveFeatures
}

// Audit actions
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
	ActionAccess = "ACCESS"
)

// AuditActions lists the actions offered as audit filters
var AuditActions = []string{ActionCreate, ActionUpdate, ActionDelete, ActionAccess}

// Audit user types and data sources
const (
	UserTypeUser   = "USER"
	UserTypeClient = "CLIENT"

	DataSourceCache    = "CACHE"
	DataSourceDatabase = "DATABASE"
)

// AuditLog is an immutable record of an event against a tracked entity
type AuditLog struct {
	ID         ID        `json:"id"`
	Username   string    `json:"username"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   ID        `json:"entityId"`
	EntityName string    `json:"entityName"`
	OldValues  Snapshot  `json:"oldValues,omitempty"`
	NewValues  Snapshot  `json:"newValues,omitempty"`
	IPAddress  string    `json:"ipAddress"`
	UserType   string    `json:"userType"`
	DataSource string    `json:"dataSource"`
	TraceID    string    `json:"traceId"`
	CreatedAt  Timestamp `json:"createdAt"`
}

// Page is the envelope of paginated endpoints
type Page[T any] struct {
	Content       []T `json:"content"`
	Number        int `json:"number"`
	TotalPages    int `json:"totalPages"`
	TotalElements int `json:"totalElements"`
}
