// Package routes defines the page addresses of the admin client and maps
// paths onto pages.
package routes

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/togglr/togglr-admin/internal/api"
)

// Page addresses
const (
	Login        = "/login"
	Dashboard    = "/dashboard"
	Features     = "/features"
	Users        = "/users"
	Environments = "/environments"
	Namespaces   = "/namespaces"
	Settings     = "/settings"

	// Landing is where a successful login lands
	Landing = Dashboard
)

// Page identifies a screen
type Page int

const (
	PageNotFound Page = iota
	PageLogin
	PageDashboard
	PageFeatures
	PageFeatureDetail
	PageUsers
	PageUserDetail
	PageEnvironments
	PageEnvironmentDetail
	PageNamespaces
	PageNamespaceDetail
	PageSettings
)

var pageNames = map[Page]string{
	PageNotFound:          "not-found",
	PageLogin:             "login",
	PageDashboard:         "dashboard",
	PageFeatures:          "features",
	PageFeatureDetail:     "feature",
	PageUsers:             "users",
	PageUserDetail:        "user",
	PageEnvironments:      "environments",
	PageEnvironmentDetail: "environment",
	PageNamespaces:        "namespaces",
	PageNamespaceDetail:   "namespace",
	PageSettings:          "settings",
}

func (p Page) String() string {
	if name, ok := pageNames[p]; ok {
		return name
	}
	return "page(" + strconv.Itoa(int(p)) + ")"
}

// Match is a resolved path
type Match struct {
	Page Page
	// ID is the detail segment, unescaped for users, environments and
	// namespaces and still escaped for features (see ParseFeatureDetail)
	ID string
	// Public pages need no session
	Public bool
	// RequireRoot pages need a root role
	RequireRoot bool
}

// Resolve maps a path, optionally with a query string, onto a page
func Resolve(path string) Match {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.TrimRight(path, "/")
	if path == "" {
		return Match{Page: PageDashboard}
	}

	switch path {
	case Login:
		return Match{Page: PageLogin, Public: true}
	case Dashboard:
		return Match{Page: PageDashboard}
	case Features:
		return Match{Page: PageFeatures}
	case Users:
		return Match{Page: PageUsers, RequireRoot: true}
	case Environments:
		return Match{Page: PageEnvironments}
	case Namespaces:
		return Match{Page: PageNamespaces}
	case Settings:
		return Match{Page: PageSettings}
	}

	section, id, ok := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if !ok || id == "" || strings.Contains(id, "/") {
		return Match{Page: PageNotFound, Public: true}
	}

	switch "/" + section {
	case Features:
		return Match{Page: PageFeatureDetail, ID: id}
	case Users:
		return Match{Page: PageUserDetail, ID: unescape(id), RequireRoot: true}
	case Environments:
		return Match{Page: PageEnvironmentDetail, ID: unescape(id)}
	case Namespaces:
		return Match{Page: PageNamespaceDetail, ID: unescape(id)}
	}
	return Match{Page: PageNotFound, Public: true}
}

func unescape(s string) string {
	if u, err := url.PathUnescape(s); err == nil {
		return u
	}
	return s
}

// FeatureDetail builds the detail address of a feature. Each part of the key
// is escaped so names containing '|' or '/' survive the round trip.
func FeatureDetail(key api.FeatureKey) string {
	return Features + "/" + escapePart(key.Name) + "|" + escapePart(key.Namespace) + "|" + escapePart(key.Environment)
}

func escapePart(s string) string {
	return strings.ReplaceAll(url.PathEscape(s), "|", "%7C")
}

// ParseFeatureDetail recovers a feature key from a detail address or from
// the bare "name|namespace|environment" segment
func ParseFeatureDetail(path string) (api.FeatureKey, error) {
	segment := path
	if strings.HasPrefix(path, "/") {
		m := Resolve(path)
		if m.Page != PageFeatureDetail {
			return api.FeatureKey{}, fmt.Errorf("not a feature address: %s", path)
		}
		segment = m.ID
	}

	parts := strings.Split(segment, "|")
	if len(parts) != 3 {
		return api.FeatureKey{}, fmt.Errorf("feature key must be name|namespace|environment: %s", segment)
	}

	var unescaped [3]string
	for i, p := range parts {
		u, err := url.PathUnescape(p)
		if err != nil {
			return api.FeatureKey{}, fmt.Errorf("invalid feature key part %q: %w", p, err)
		}
		if u == "" {
			return api.FeatureKey{}, fmt.Errorf("feature key has an empty part: %s", segment)
		}
		unescaped[i] = u
	}
	return api.FeatureKey{Name: unescaped[0], Namespace: unescaped[1], Environment: unescaped[2]}, nil
}

// FeaturesFiltered builds a drill-in address onto the features list. A nil
// enabled leaves the enabled filter off.
func FeaturesFiltered(namespace, environment string, enabled *bool) string {
	params := url.Values{}
	if namespace != "" {
		params.Set("namespace", namespace)
	}
	if environment != "" {
		params.Set("environment", environment)
	}
	if enabled != nil {
		params.Set("enabled", strconv.FormatBool(*enabled))
	}
	if len(params) == 0 {
		return Features
	}
	return Features + "?" + params.Encode()
}

// Query returns the parsed query of an address
func Query(path string) url.Values {
	_, raw, ok := strings.Cut(path, "?")
	if !ok {
		return url.Values{}
	}
	v, err := url.ParseQuery(raw)
	if err != nil {
		return url.Values{}
	}
	return v
}

// Detail builds the detail address of a user, environment or namespace
func Detail(section string, id api.ID) string {
	return section + "/" + url.PathEscape(id.String())
}
