// Package server exposes the session store and agent runs over HTTP.
//
// The API is JSON in, JSON out:
//
//	POST   /session/create        create a session
//	GET    /session/{id}          session snapshot
//	GET    /session/{id}/history  messages only
//	POST   /session/{id}/clear    empty the history, keep the session
//	DELETE /session/{id}          delete the session
//	GET    /sessions              list live sessions
//	GET    /health                liveness probe
//	POST   /task                  run a role's agent loop
//
// The task endpoint accepts the session id in the body ("session_id") or
// the X-Session-ID header; the body wins when both are present.
package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rickchristie/crew"
	"github.com/rickchristie/crew/agent"
	"github.com/rickchristie/crew/roles"
	"github.com/rickchristie/crew/session"
)

// Server wires the HTTP surface over a model, a session store, role
// profiles and a tool catalog.
type Server struct {
	model    crew.Model
	store    *session.Store
	profiles map[string]roles.Profile
	tools    *crew.Registry

	reviewer      crew.Reviewer
	budget        time.Duration
	maxIterations int
	logger        *zap.Logger
}

// New creates a Server. The tools registry is the full catalog; each role
// runs with the subset its profile allows.
func New(model crew.Model, store *session.Store, profiles map[string]roles.Profile, tools *crew.Registry) *Server {
	return &Server{
		model:         model,
		store:         store,
		profiles:      profiles,
		tools:         tools,
		budget:        agent.DefaultBudget,
		maxIterations: agent.DefaultMaxIterations,
		logger:        zap.NewNop(),
	}
}

// WithReviewer sets the reviewer used for roles with review enabled.
func (s *Server) WithReviewer(r crew.Reviewer) *Server {
	s.reviewer = r
	return s
}

// WithBudget sets the default per-run budget. A profile budget overrides it.
func (s *Server) WithBudget(d time.Duration) *Server {
	if d > 0 {
		s.budget = d
	}
	return s
}

// WithMaxIterations sets the default iteration cap. A profile cap
// overrides it.
func (s *Server) WithMaxIterations(n int) *Server {
	if n >= 1 {
		s.maxIterations = n
	}
	return s
}

// WithLogger sets the logger. Default is a nop logger.
func (s *Server) WithLogger(logger *zap.Logger) *Server {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Handler returns the route mux wrapped with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /session/create", s.handleSessionCreate)
	mux.HandleFunc("GET /session/{id}", s.handleSessionGet)
	mux.HandleFunc("GET /session/{id}/history", s.handleSessionHistory)
	mux.HandleFunc("POST /session/{id}/clear", s.handleSessionClear)
	mux.HandleFunc("DELETE /session/{id}", s.handleSessionDelete)
	mux.HandleFunc("GET /sessions", s.handleSessionList)
	mux.HandleFunc("POST /task", s.handleTask)
	return s.logRequests(mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	id := s.store.Create()
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess := s.store.Get(r.PathValue("id"))
	if sess == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	msgs, ok := s.store.History(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	if !s.store.Clear(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleSessionList(w http.ResponseWriter, r *http.Request) {
	list := s.store.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": list,
		"count":    len(list),
	})
}

type taskRequest struct {
	Role      string `json:"role"`
	Task      string `json:"task"`
	SessionID string `json:"session_id"`
}

type stepDTO struct {
	Thought     string `json:"thought,omitempty"`
	Action      string `json:"action,omitempty"`
	Input       string `json:"input,omitempty"`
	Observation string `json:"observation"`
}

type taskResponse struct {
	Answer     string        `json:"answer"`
	Stopped    bool          `json:"stopped"`
	Iterations int           `json:"iterations"`
	Steps      []stepDTO     `json:"steps"`
	Verdict    *crew.Verdict `json:"verdict,omitempty"`
	SessionID  string        `json:"session_id,omitempty"`
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Session-ID")
	}
	if strings.TrimSpace(req.Task) == "" {
		writeError(w, http.StatusBadRequest, "task is required")
		return
	}

	profile, ok := s.profiles[req.Role]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown role: "+req.Role)
		return
	}

	var history []crew.Message
	if req.SessionID != "" {
		history, ok = s.store.History(req.SessionID)
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
	}

	loop := s.loopFor(profile)
	result, err := loop.Run(r.Context(), req.Task, history)
	if err != nil {
		s.logger.Error("task run failed",
			zap.String("role", req.Role), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.SessionID != "" {
		s.store.Append(req.SessionID, crew.RoleUser, req.Task)
		s.store.Append(req.SessionID, crew.RoleAssistant, result.Answer)
	}

	steps := make([]stepDTO, len(result.Steps))
	for i, st := range result.Steps {
		steps[i] = stepDTO{
			Thought:     st.Thought,
			Action:      st.Action,
			Input:       st.Input,
			Observation: st.Observation,
		}
	}
	writeJSON(w, http.StatusOK, taskResponse{
		Answer:     result.Answer,
		Stopped:    result.Stopped,
		Iterations: result.Iterations,
		Steps:      steps,
		Verdict:    result.Verdict,
		SessionID:  req.SessionID,
	})
}

// loopFor builds the agent loop for one profile. Profile budgets and caps
// override the server defaults when set.
func (s *Server) loopFor(p roles.Profile) *agent.Loop {
	loop := agent.New(s.model).
		WithName(p.Name).
		WithInstructions(p.Instructions).
		WithTools(s.toolsFor(p.Tools)).
		WithBudget(s.budget).
		WithMaxIterations(s.maxIterations)

	if p.MaxIterations > 0 {
		loop.WithMaxIterations(p.MaxIterations)
	}
	if p.Budget > 0 {
		loop.WithBudget(p.Budget.Std())
	}
	if p.Review && s.reviewer != nil {
		loop.WithReviewer(s.reviewer)
	}
	return loop
}

// toolsFor selects the allowed subset of the catalog. Names the catalog
// does not carry are skipped with a warning; a profile typo should not take
// the whole role down.
func (s *Server) toolsFor(allowed []string) *crew.Registry {
	reg := crew.NewRegistry()
	for _, name := range allowed {
		t, ok := s.tools.Get(name)
		if !ok {
			s.logger.Warn("profile references unknown tool", zap.String("tool", name))
			continue
		}
		reg.Register(t)
	}
	return reg
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
