package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/features/42" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	client := &http.Client{Transport: NewTransport(nil, m, "/api/v1")}

	for _, path := range []string{"/api/v1/features", "/api/v1/features/42", "/api/v1/features/42"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("Get(%s) error = %v", path, err)
		}
		resp.Body.Close()
	}

	if got := testutil.ToFloat64(m.ClientRequestsTotal.WithLabelValues("GET", "/features", "200")); got != 1 {
		t.Errorf("list requests = %v", got)
	}
	if got := testutil.ToFloat64(m.ClientRequestsTotal.WithLabelValues("GET", "/features/{id}", "404")); got != 2 {
		t.Errorf("detail requests = %v", got)
	}
	if got := testutil.ToFloat64(m.ClientErrorsTotal.WithLabelValues("not_found")); got != 2 {
		t.Errorf("not_found errors = %v", got)
	}
}

func TestNormalizeClientPath(t *testing.T) {
	tests := map[string]string{
		"/users/12":   "/users/{id}",
		"/features":   "/features",
		"/audit/feature/550e8400-e29b-41d4-a716-446655440000": "/audit/feature/{id}",
	}
	for in, want := range tests {
		if got := normalizeClientPath(in); got != want {
			t.Errorf("normalizeClientPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{401, "unauthorized"},
		{403, "forbidden"},
		{404, "not_found"},
		{400, "validation"},
		{422, "validation"},
		{429, "rate_limited"},
		{409, "client_error"},
		{502, "server_error"},
	}
	for _, tt := range tests {
		if got := errorKind(tt.status); got != tt.want {
			t.Errorf("errorKind(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
