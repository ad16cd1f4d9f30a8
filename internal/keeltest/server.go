// Package keeltest runs an in-memory Keel admin API for tests.
package keeltest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/mux"
	"github.com/keel-hq/keelctl/internal/model"
)

const (
	Username = "admin"
	Password = "admin"
	Token    = "test-token"
)

// Request is one call the server received.
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// Server serves a fixed data set under /v1 and applies mutations to it.
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	Resources []model.Resource
	Tracked   []model.TrackedImage
	Approvals []model.Approval
	Audit     []model.AuditLogEntry
	Stats     []model.StatPoint
	User      model.UserInfo
	// Fail forces a status for "METHOD /v1/path".
	Fail     map[string]int
	requests []Request
}

// New starts a server preloaded with Fixture data. Close it with t.Cleanup.
func New() *Server {
	s := &Server{Fail: map[string]int{}}
	s.Resources, s.Tracked, s.Approvals, s.Audit, s.Stats = Fixture()
	s.User = model.UserInfo{ID: "1", Name: "Administrator", Username: Username, RoleID: "admin", Status: 1}
	s.Server = httptest.NewServer(s.router())
	return s
}

// APIURL is the API root to hand to transport.Options.
func (s *Server) APIURL() string { return s.Server.URL + "/v1" }

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Last returns the last request with the given method, or nil.
func (s *Server) Last(method string) *Request {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method {
			return &reqs[i]
		}
	}
	return nil
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)

	api := v1.NewRoute().Subrouter()
	api.Use(s.authenticate)
	api.HandleFunc("/auth/user", s.user).Methods(http.MethodGet)
	api.HandleFunc("/auth/refresh", s.refresh).Methods(http.MethodGet)
	api.HandleFunc("/resources", s.list(func() any { return s.Resources })).Methods(http.MethodGet)
	api.HandleFunc("/policies", s.setPolicy).Methods(http.MethodPut)
	api.HandleFunc("/tracked", s.list(func() any { return s.Tracked })).Methods(http.MethodGet)
	api.HandleFunc("/tracked", s.setTracking).Methods(http.MethodPut)
	api.HandleFunc("/approvals", s.list(func() any { return s.Approvals })).Methods(http.MethodGet)
	api.HandleFunc("/approvals", s.updateApproval).Methods(http.MethodPost)
	api.HandleFunc("/approvals", s.setApproval).Methods(http.MethodPut)
	api.HandleFunc("/audit", s.audit).Methods(http.MethodGet)
	api.HandleFunc("/stats", s.list(func() any { return s.Stats })).Methods(http.MethodGet)
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			dec := json.NewDecoder(r.Body)
			var raw json.RawMessage
			if err := dec.Decode(&raw); err == nil {
				body = raw
			}
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})
		code := s.Fail[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if code != 0 {
			http.Error(w, http.StatusText(code), code)
			return
		}
		r.Body = readCloser(body)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, p, ok := r.BasicAuth(); ok && u == Username && p == Password {
			next.ServeHTTP(w, r)
			return
		}
		if strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ") == Token {
			next.ServeHTTP(w, r)
			return
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
}

func (s *Server) list(items func() any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, items())
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Username != Username || req.Password != Password {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	writeJSON(w, model.LoginResponse{Token: Token})
}

func (s *Server) user(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, s.User)
}

func (s *Server) refresh(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, model.LoginResponse{Token: Token})
}

func (s *Server) setPolicy(w http.ResponseWriter, r *http.Request) {
	var req model.PolicyUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Resources {
		if s.Resources[i].Identifier == req.Identifier {
			s.Resources[i].Policy = req.Policy
			writeJSON(w, model.StatusResponse{Status: "ok"})
			return
		}
	}
	http.Error(w, "resource not found", http.StatusNotFound)
}

func (s *Server) setTracking(w http.ResponseWriter, r *http.Request) {
	var req model.TrackingUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Resources {
		res := &s.Resources[i]
		if res.Identifier != req.Identifier {
			continue
		}
		if res.Annotations == nil {
			res.Annotations = map[string]string{}
		}
		res.Annotations[model.KeelTriggerKey] = req.Trigger
		if req.Schedule != "" {
			res.Annotations[model.KeelPollSchedKey] = req.Schedule
		}
		writeJSON(w, model.StatusResponse{Status: "ok"})
		return
	}
	http.Error(w, "resource not found", http.StatusNotFound)
}

func (s *Server) updateApproval(w http.ResponseWriter, r *http.Request) {
	var req model.ApprovalDecision
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Approvals {
		a := &s.Approvals[i]
		if a.ID != req.ID && a.Identifier != req.Identifier {
			continue
		}
		switch req.Action {
		case model.ApprovalActionApprove:
			a.VotesReceived++
		case model.ApprovalActionReject:
			a.Rejected = true
		case model.ApprovalActionArchive:
			a.Archived = true
		case model.ApprovalActionDelete:
			s.Approvals = append(s.Approvals[:i], s.Approvals[i+1:]...)
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
			return
		}
		writeJSON(w, model.StatusResponse{Status: "ok"})
		return
	}
	http.Error(w, "approval not found", http.StatusNotFound)
}

func (s *Server) setApproval(w http.ResponseWriter, r *http.Request) {
	var req model.ApprovalRequirement
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.Resources {
		res := &s.Resources[i]
		if res.Identifier != req.Identifier {
			continue
		}
		if res.Annotations == nil {
			res.Annotations = map[string]string{}
		}
		res.Annotations[model.KeelApprovalsKey] = strconv.Itoa(req.VotesRequired)
		writeJSON(w, model.StatusResponse{Status: "ok"})
		return
	}
	http.Error(w, "resource not found", http.StatusNotFound)
}

func (s *Server) audit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	kinds := map[string]bool{}
	for _, k := range strings.Split(q.Get("filter"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds[k] = true
		}
	}
	email := q.Get("email")

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.AuditLogEntry
	for _, e := range s.Audit {
		if len(kinds) > 0 && !kinds[e.ResourceKind] {
			continue
		}
		if email != "" && e.Email != email {
			continue
		}
		matched = append(matched, e)
	}
	page := model.AuditPage{Data: []model.AuditLogEntry{}, Limit: limit, Offset: offset, Total: len(matched)}
	if offset < len(matched) {
		end := len(matched)
		if limit > 0 && offset+limit < end {
			end = offset + limit
		}
		page.Data = matched[offset:end]
	}
	writeJSON(w, page)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
