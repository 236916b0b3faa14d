package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return NewClient(srv.URL+"/api/v1", opts...)
}

func TestDoAttachesHeaders(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Write([]byte(`{"ok":true}`))
	}, WithTokenSource(StaticToken("abc")))

	header := http.Header{}
	header.Set("Authorization", "Bearer caller")
	header.Set("X-Trace", "t1")
	raw, err := c.Do(context.Background(), http.MethodGet, "/features", nil, header)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if string(raw) != `{"ok":true}` {
		t.Errorf("raw = %s", raw)
	}
	if got.URL.Path != "/api/v1/features" {
		t.Errorf("path = %s", got.URL.Path)
	}
	if got.Header.Get("Authorization") != "Bearer abc" {
		t.Errorf("Authorization = %q, want token source to win", got.Header.Get("Authorization"))
	}
	if got.Header.Get("X-Trace") != "t1" {
		t.Errorf("caller header lost")
	}
	if got.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", got.Header.Get("Content-Type"))
	}
	if got.Header.Get(HeaderRequestID) == "" {
		t.Errorf("expected request id header")
	}
}

func TestDoWithoutToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}, WithTokenSource(StaticToken("")))

	raw, err := c.Do(context.Background(), http.MethodDelete, "/features/1", nil, nil)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if raw != nil {
		t.Errorf("expected nil result for 204, got %s", raw)
	}
	if auth != "" {
		t.Errorf("Authorization = %q, want none", auth)
	}
}

func TestDoCallerContentType(t *testing.T) {
	var ct string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ct = r.Header.Get("Content-Type")
	})

	header := http.Header{}
	header.Set("Content-Type", "text/plain")
	if _, err := c.Do(context.Background(), http.MethodPost, "/x", map[string]string{"a": "b"}, header); err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if ct != "text/plain" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestDoErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server message", http.StatusBadRequest, `{"message":"Feature exists"}`, "Feature exists"},
		{"no body", http.StatusInternalServerError, ``, DefaultErrorMessage},
		{"not json", http.StatusBadGateway, `<html>`, DefaultErrorMessage},
		{"blank message", http.StatusConflict, `{"message":"  "}`, DefaultErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.message {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.message)
			}
		})
	}
}

func TestDoRespectsTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, WithTimeout(50*time.Millisecond))

	if _, err := c.Do(context.Background(), http.MethodGet, "/slow", nil, nil); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestLoginSendsNoToken(t *testing.T) {
	var auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/v1/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"token":"t","user":{"id":7,"username":"ada","roles":"ADMIN"}}`))
	}, WithTokenSource(StaticToken("stale")))

	resp, err := c.Login(context.Background(), "ada", "pw")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if auth != "" {
		t.Errorf("login sent Authorization %q", auth)
	}
	if resp.Token != "t" || resp.User.ID != "7" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestLoginEmptyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":""}`))
	})
	if _, err := c.Login(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestMessage(t *testing.T) {
	fallback := "Failed to load"
	if got := Message(&APIError{Status: 400, Message: "Name taken"}, fallback); got != "Name taken" {
		t.Errorf("got %q", got)
	}
	if got := Message(&APIError{Status: 500, Message: DefaultErrorMessage}, fallback); got != fallback {
		t.Errorf("got %q", got)
	}
	if got := Message(&ValidationError{Message: "name is required"}, fallback); got != "name is required" {
		t.Errorf("got %q", got)
	}
	if got := Message(errors.New("dial tcp"), fallback); got != fallback {
		t.Errorf("got %q", got)
	}
}

func TestStatusHelpers(t *testing.T) {
	err := error(&APIError{Status: http.StatusForbidden, Message: "x"})
	if !IsForbidden(err) {
		t.Error("expected IsForbidden")
	}
	if IsNotFound(err) {
		t.Error("unexpected IsNotFound")
	}
	if StatusOf(errors.New("other")) != 0 {
		t.Error("expected 0 status for non API error")
	}
}
