package listview

import (
	"strconv"
	"time"

	"github.com/togglr/togglr-admin/internal/api"
)

// Feature fields
const (
	FieldName        = "name"
	FieldNamespace   = "namespace"
	FieldEnvironment = "environment"
	FieldEnabled     = "enabled"
	FieldCreatedAt   = "createdAt"
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldRoles       = "roles"
)

// FeatureID is the identity of a feature inside a view
func FeatureID(f api.Feature) string {
	return strconv.FormatInt(f.ID, 10)
}

// FeatureSchema filters features by namespace, environment and enabled and
// searches name and metadata.description
var FeatureSchema = Schema[api.Feature]{
	ID: FeatureID,
	Search: func(f api.Feature) []string {
		return []string{f.Name, f.Description()}
	},
	Fields: map[string]Field[api.Feature]{
		FieldName:        Text(func(f api.Feature) string { return f.Name }),
		FieldNamespace:   Text(func(f api.Feature) string { return f.Namespace }),
		FieldEnvironment: Text(func(f api.Feature) string { return f.Environment }),
		FieldEnabled:     Bool(func(f api.Feature) bool { return f.Enabled }),
		FieldCreatedAt:   Time(func(f api.Feature) time.Time { return f.CreatedAt.Time }),
	},
	Seed:        []string{FieldNamespace, FieldEnvironment, FieldEnabled},
	DefaultSort: FieldName,
}

// UserSchema searches name, username, email and roles
var UserSchema = Schema[api.User]{
	ID: func(u api.User) string { return u.ID.String() },
	Search: func(u api.User) []string {
		return []string{u.Name, u.Username, u.Email, u.Roles}
	},
	Fields: map[string]Field[api.User]{
		FieldName:      Text(func(u api.User) string { return u.Name }),
		FieldUsername:  Text(func(u api.User) string { return u.Username }),
		FieldEmail:     Text(func(u api.User) string { return u.Email }),
		FieldRoles:     Text(func(u api.User) string { return u.Roles }),
		FieldCreatedAt: Time(func(u api.User) time.Time { return u.CreatedAt.Time }),
	},
	DefaultSort: FieldName,
}

// EnvironmentSchema searches name
var EnvironmentSchema = Schema[api.Environment]{
	ID:     func(e api.Environment) string { return e.ID.String() },
	Search: func(e api.Environment) []string { return []string{e.Name} },
	Fields: map[string]Field[api.Environment]{
		FieldName:      Text(func(e api.Environment) string { return e.Name }),
		FieldCreatedAt: Time(func(e api.Environment) time.Time { return e.CreatedAt.Time }),
	},
	DefaultSort: FieldName,
}

// NamespaceSchema searches name
var NamespaceSchema = Schema[api.Namespace]{
	ID:     func(n api.Namespace) string { return n.ID.String() },
	Search: func(n api.Namespace) []string { return []string{n.Name} },
	Fields: map[string]Field[api.Namespace]{
		FieldName:      Text(func(n api.Namespace) string { return n.Name }),
		FieldCreatedAt: Time(func(n api.Namespace) time.Time { return n.CreatedAt.Time }),
	},
	DefaultSort: FieldName,
}
