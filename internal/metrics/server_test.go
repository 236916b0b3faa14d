package metrics

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewServerAllowedIPs(t *testing.T) {
	m := New()

	tests := []struct {
		name       string
		allowedIPs []string
		wantCount  int
	}{
		{"empty list", nil, 0},
		{"single IP", []string{"192.168.1.1"}, 1},
		{"CIDR notation", []string{"192.168.0.0/16", "10.0.0.0/8"}, 2},
		{"with invalid", []string{"192.168.1.1", "invalid", "10.0.0.0/33"}, 1},
		{"IPv6", []string{"::1", "fe80::/10"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(m, "", "", tt.allowedIPs, nil, newTestLogger())
			if got := s.AllowedNetworks(); got != tt.wantCount {
				t.Errorf("AllowedNetworks() = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestServerAllowList(t *testing.T) {
	tests := []struct {
		name       string
		trusted    []string
		remoteAddr string
		xff        string
		realIP     string
		wantStatus int
	}{
		{"allowed CIDR", nil, "10.1.2.3:5555", "", "", http.StatusOK},
		{"allowed single", nil, "192.168.1.5:5555", "", "", http.StatusOK},
		{"denied", nil, "172.16.0.1:5555", "", "", http.StatusForbidden},
		{"mapped IPv4", nil, "[::ffff:10.0.0.1]:5555", "", "", http.StatusOK},
		{"forged forwarded header ignored", nil, "172.16.0.1:5555", "10.9.9.9", "", http.StatusForbidden},
		{"forged real ip ignored", nil, "172.16.0.1:5555", "", "10.9.9.9", http.StatusForbidden},
		{"forwarded through trusted proxy", []string{"172.16.0.0/12"}, "172.16.0.1:5555", "10.9.9.9, 172.16.0.2", "", http.StatusOK},
		{"spoofed first hop behind trusted proxy", []string{"172.16.0.0/12"}, "172.16.0.1:5555", "10.9.9.9, 203.0.113.7", "", http.StatusForbidden},
		{"real ip through trusted proxy", []string{"172.16.0.1"}, "172.16.0.1:5555", "", "192.168.1.5", http.StatusOK},
		{"untrusted proxy", []string{"172.16.0.1"}, "172.16.0.9:5555", "10.9.9.9", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(New(), ":0", "/metrics", []string{"10.0.0.0/8", "192.168.1.5"}, nil, newTestLogger())
			s.TrustProxies(tt.trusted)
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestServerMetricsAndHealth(t *testing.T) {
	m := New()
	m.FeaturesTotal.Set(7)
	up := false
	s := NewServer(m, ":0", "/metrics", nil, func() bool { return up }, newTestLogger())
	h := s.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "togglr_features_total 7") {
		t.Errorf("metrics output missing gauge:\n%s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "203.0.113.9:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("health status = %d, want 503 before first poll", rec.Code)
	}

	up = true
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
}
