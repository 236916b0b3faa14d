package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Transport instruments outgoing Togglr API requests
type Transport struct {
	Base     http.RoundTripper
	Metrics  *Metrics
	BasePath string
}

// NewTransport wraps base, which defaults to http.DefaultTransport. basePath
// is trimmed from request paths before they are used as labels.
func NewTransport(base http.RoundTripper, m *Metrics, basePath string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Metrics: m, BasePath: strings.TrimRight(basePath, "/")}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	if t.Metrics == nil {
		return resp, err
	}

	path := normalizeClientPath(strings.TrimPrefix(req.URL.Path, t.BasePath))
	t.Metrics.ClientRequestDurationSeconds.WithLabelValues(req.Method, path).Observe(time.Since(start).Seconds())

	if err != nil {
		t.Metrics.ClientRequestsTotal.WithLabelValues(req.Method, path, "error").Inc()
		t.Metrics.ClientErrorsTotal.WithLabelValues("network").Inc()
		return resp, err
	}

	t.Metrics.ClientRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(resp.StatusCode)).Inc()
	if resp.StatusCode >= 400 {
		t.Metrics.ClientErrorsTotal.WithLabelValues(errorKind(resp.StatusCode)).Inc()
	}
	return resp, nil
}

// normalizeClientPath replaces numeric and uuid segments with {id} to keep label
// cardinality bounded
func normalizeClientPath(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if isNumeric(part) || isUUID(part) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// errorKind labels a failed response the way the client reports it
func errorKind(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "unauthorized"
	case status == http.StatusForbidden:
		return "forbidden"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return "validation"
	case status == http.StatusTooManyRequests:
		return "rate_limited"
	case status >= 500:
		return "server_error"
	default:
		return "client_error"
	}
}
