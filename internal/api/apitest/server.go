// Package apitest provides an in-memory Togglr backend for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/togglr/togglr-admin/internal/api"
)

// Request is a request observed by the server
type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Header http.Header
	Body   []byte
}

// Failure forces a route to respond with an error
type Failure struct {
	Status  int
	Message string
}

// Server is a fake Togglr backend
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	Username     string
	Password     string
	Token        string
	LoginUser    api.User
	features     []api.Feature
	users        []api.User
	environments []api.Environment
	namespaces   []api.Namespace
	audit        map[string][]api.AuditLog
	dashboard    api.Dashboard
	failures     map[string]Failure
	requests     []Request
	nextID       int64
}

// NewServer starts a fake backend mounted at /api/v1
func NewServer() *Server {
	s := &Server{
		Username:  "admin",
		Password:  "secret",
		Token:     "test-token",
		LoginUser: api.User{ID: "1", Name: "Ada Admin", Username: "admin", Email: "admin@example.com", Roles: "ADMIN"},
		audit:     make(map[string][]api.AuditLog),
		failures:  make(map[string]Failure),
		nextID:    100,
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)

			r.Get("/features", s.handleListFeatures)
			r.Post("/features", s.handleCreateFeature)
			r.Get("/features/feature", s.handleGetFeature)
			r.Patch("/features/feature/toggle", s.handleToggleFeature)
			r.Put("/features/{id}", s.handleUpdateFeature)
			r.Delete("/features/{id}", s.handleDeleteFeature)

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Patch("/users/change-password", s.handleNoContent)
			r.Get("/users/{id}", s.handleGetUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)

			r.Get("/environments", s.handleListEnvironments)
			r.Post("/environments", s.handleCreateEnvironment)
			r.Get("/environments/{id}", s.handleGetEnvironment)
			r.Put("/environments/{id}", s.handleRenameEnvironment)
			r.Delete("/environments/{id}", s.handleDeleteEnvironment)

			r.Get("/namespaces", s.handleListNamespaces)
			r.Post("/namespaces", s.handleCreateNamespace)
			r.Get("/namespaces/{id}", s.handleGetNamespace)
			r.Put("/namespaces/{id}", s.handleRenameNamespace)
			r.Delete("/namespaces/{id}", s.handleDeleteNamespace)

			r.Get("/metrics/dashboard", s.handleDashboard)
			r.Get("/audit/feature/{id}", s.handleAudit)
		})
	})

	s.Server = httptest.NewServer(r)
	return s
}

// BaseURL returns the API base URL of the server
func (s *Server) BaseURL() string {
	return s.URL + "/api/v1"
}

// Fail makes every request matching "METHOD /path" respond with f.
// The path is the route pattern, e.g. "GET /audit/feature/{id}".
func (s *Server) Fail(route string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = f
}

// Recover removes a forced failure
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// SetFeatures replaces the feature collection
func (s *Server) SetFeatures(features ...api.Feature) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features = append([]api.Feature(nil), features...)
}

// Features returns a copy of the feature collection
func (s *Server) Features() []api.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Feature(nil), s.features...)
}

// SetUsers replaces the user collection
func (s *Server) SetUsers(users ...api.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]api.User(nil), users...)
}

// SetEnvironments replaces the environment collection
func (s *Server) SetEnvironments(envs ...api.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environments = append([]api.Environment(nil), envs...)
}

// SetNamespaces replaces the namespace collection
func (s *Server) SetNamespaces(namespaces ...api.Namespace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.namespaces = append([]api.Namespace(nil), namespaces...)
}

// SetDashboard sets the dashboard counts
func (s *Server) SetDashboard(d api.Dashboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboard = d
}

// SetAudit sets the audit log history of a feature, newest first
func (s *Server) SetAudit(featureID string, logs ...api.AuditLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit[featureID] = append([]api.AuditLog(nil), logs...)
}

// Requests returns the requests observed so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns the observed requests for a method and path prefix
func (s *Server) RequestsTo(method, pathPrefix string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, pathPrefix) {
			out = append(out, r)
		}
	}
	return out
}

// ResetRequests forgets observed requests
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		query := make(map[string]string)
		for k, v := range r.URL.Query() {
			query[k] = strings.Join(v, ",")
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   strings.TrimPrefix(r.URL.Path, "/api/v1"),
			Query:  query,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// failed writes a forced failure for the current route, if one is set
func (s *Server) failed(w http.ResponseWriter, r *http.Request) bool {
	route := r.Method + " " + strings.TrimPrefix(chi.RouteContext(r.Context()).RoutePattern(), "/api/v1")
	s.mu.Lock()
	f, ok := s.failures[route]
	s.mu.Unlock()
	if !ok {
		return false
	}
	if f.Message == "" {
		w.WriteHeader(f.Status)
		return true
	}
	writeError(w, f.Status, f.Message)
	return true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Username != s.Username || req.Password != s.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, api.LoginResponse{Token: s.Token, User: s.LoginUser})
}

func (s *Server) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	ns := r.URL.Query().Get("namespace")
	env := r.URL.Query().Get("environment")

	s.mu.Lock()
	out := make([]api.Feature, 0, len(s.features))
	for _, f := range s.features {
		if ns != "" && f.Namespace != ns {
			continue
		}
		if env != "" && f.Environment != env {
			continue
		}
		out = append(out, f)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetFeature(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	key := keyFromQuery(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range s.features {
		if f.Key() == key {
			writeJSON(w, http.StatusOK, f)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Feature not found")
}

func (s *Server) handleCreateFeature(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	var req api.FeatureCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	s.nextID++
	now := api.Timestamp{Time: time.Now().UTC()}
	f := api.Feature{
		ID:          s.nextID,
		Name:        req.Name,
		Namespace:   req.Namespace,
		Environment: req.Environment,
		Enabled:     req.Enabled,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.features = append(s.features, f)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, f)
}

func (s *Server) handleUpdateFeature(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var req api.FeatureUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.features {
		if s.features[i].ID != id {
			continue
		}
		if req.Enabled != nil {
			s.features[i].Enabled = *req.Enabled
		}
		if req.Metadata != nil {
			s.features[i].Metadata = req.Metadata
		}
		s.features[i].UpdatedAt = api.Timestamp{Time: time.Now().UTC()}
		writeJSON(w, http.StatusOK, s.features[i])
		return
	}
	writeError(w, http.StatusNotFound, "Feature not found")
}

func (s *Server) handleToggleFeature(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	key := keyFromQuery(r)
	var req api.ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.features {
		if s.features[i].Key() == key {
			s.features[i].Enabled = req.Enabled
			writeJSON(w, http.StatusOK, s.features[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Feature not found")
}

func (s *Server) handleDeleteFeature(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.features {
		if s.features[i].ID == id {
			s.features = append(s.features[:i], s.features[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Feature not found")
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	s.mu.Lock()
	out := append([]api.User{}, s.users...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID.String() == id {
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeError(w, http.StatusNotFound, "User not found")
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	var req api.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	s.nextID++
	u := api.User{
		ID:       api.ID(strconv.FormatInt(s.nextID, 10)),
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Roles:    req.Roles,
	}
	s.users = append(s.users, u)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	var req api.UserUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID.String() != id {
			continue
		}
		u := &s.users[i]
		if req.Name != nil {
			u.Name = *req.Name
		}
		if req.Username != nil {
			u.Username = *req.Username
		}
		if req.Email != nil {
			u.Email = *req.Email
		}
		if req.Description != nil {
			u.Description = *req.Description
		}
		if req.Roles != nil {
			u.Roles = *req.Roles
		}
		writeJSON(w, http.StatusOK, *u)
		return
	}
	writeError(w, http.StatusNotFound, "User not found")
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID.String() == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "User not found")
}

func (s *Server) handleNoContent(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	s.mu.Lock()
	out := append([]api.Environment{}, s.environments...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetEnvironment(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.environments {
		if e.ID.String() == id {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Environment not found")
}

func (s *Server) handleCreateEnvironment(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	var req api.NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	s.nextID++
	e := api.Environment{ID: api.ID(strconv.FormatInt(s.nextID, 10)), Name: req.Name}
	s.environments = append(s.environments, e)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleRenameEnvironment(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	var req api.NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.environments {
		if s.environments[i].ID.String() == id {
			s.environments[i].Name = req.Name
			writeJSON(w, http.StatusOK, s.environments[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Environment not found")
}

func (s *Server) handleDeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.environments {
		if s.environments[i].ID.String() == id {
			s.environments = append(s.environments[:i], s.environments[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Environment not found")
}

func (s *Server) handleListNamespaces(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	s.mu.Lock()
	out := append([]api.Namespace{}, s.namespaces...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetNamespace(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.namespaces {
		if n.ID.String() == id {
			writeJSON(w, http.StatusOK, n)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Namespace not found")
}

func (s *Server) handleCreateNamespace(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	var req api.NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	s.nextID++
	n := api.Namespace{ID: api.ID(strconv.FormatInt(s.nextID, 10)), Name: req.Name}
	s.namespaces = append(s.namespaces, n)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleRenameNamespace(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	var req api.NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.namespaces {
		if s.namespaces[i].ID.String() == id {
			s.namespaces[i].Name = req.Name
			writeJSON(w, http.StatusOK, s.namespaces[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Namespace not found")
}

func (s *Server) handleDeleteNamespace(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.namespaces {
		if s.namespaces[i].ID.String() == id {
			s.namespaces = append(s.namespaces[:i], s.namespaces[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Namespace not found")
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	s.mu.Lock()
	d := s.dashboard
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, r) {
		return
	}
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	if size <= 0 {
		size = api.DefaultAuditPageSize
	}

	actions := map[string]bool{}
	if a := q.Get("action"); a != "" {
		for _, v := range strings.Split(a, ",") {
			actions[v] = true
		}
	}

	s.mu.Lock()
	var matched []api.AuditLog
	for _, l := range s.audit[id] {
		if len(actions) > 0 && !actions[l.Action] {
			continue
		}
		if ut := q.Get("user_type"); ut != "" && l.UserType != ut {
			continue
		}
		if ds := q.Get("data_source"); ds != "" && l.DataSource != ds {
			continue
		}
		if un := q.Get("username"); un != "" && !strings.Contains(strings.ToLower(l.Username), strings.ToLower(un)) {
			continue
		}
		matched = append(matched, l)
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt.Time)
	})

	totalPages := (len(matched) + size - 1) / size
	start := page * size
	end := start + size
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	writeJSON(w, http.StatusOK, api.Page[api.AuditLog]{
		Content:       matched[start:end],
		Number:        page,
		TotalPages:    totalPages,
		TotalElements: len(matched),
	})
}

func keyFromQuery(r *http.Request) api.FeatureKey {
	q := r.URL.Query()
	return api.FeatureKey{Name: q.Get("name"), Namespace: q.Get("namespace"), Environment: q.Get("environment")}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
