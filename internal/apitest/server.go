// Package apitest serves an in-memory todos API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/model"
)

// Server is an in-memory implementation of the todos API.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	todos        []model.Todo
	hits         map[string]int
	failNext     int
	informations bool
	now          func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithInformations makes list responses carry informations.total and status.
func WithInformations() Option {
	return func(s *Server) { s.informations = true }
}

// New starts a server; it is closed when the test ends.
func New(t interface {
	Helper()
	Cleanup(func())
}, opts ...Option) *Server {
	t.Helper()
	s := &Server{hits: make(map[string]int), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.Server = httptest.NewServer(s.Handler())
	t.Cleanup(s.Close)
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/todos", s.list)
	mux.HandleFunc("POST /api/todos", s.create)
	mux.HandleFunc("GET /api/todos/count", s.count)
	mux.HandleFunc("PATCH /api/todos/{id}/mark_as_done", s.mark(true))
	mux.HandleFunc("PATCH /api/todos/{id}/mark_as_undone", s.mark(false))
	mux.HandleFunc("DELETE /api/todos/{id}", s.remove)
	return s.track(mux)
}

// Seed inserts todos directly, oldest first, and returns them newest first.
func (s *Server) Seed(descriptions ...string) []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range descriptions {
		s.todos = append(s.todos, s.newTodo(d))
	}
	return s.sorted(model.StatusAll, "")
}

// Todos returns the stored todos newest first.
func (s *Server) Todos(status model.Status) []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(status, "")
}

// Hits returns how many requests hit "METHOD /path".
func (s *Server) Hits(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[route]
}

// FailNext makes the next n requests answer 500.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.failNext = n
	s.mu.Unlock()
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.Method+" "+r.URL.Path]++
		fail := s.failNext > 0
		if fail {
			s.failNext--
		}
		s.mu.Unlock()
		if fail {
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) newTodo(description string) model.Todo {
	now := s.now().UTC()
	return model.Todo{
		ID:          uuid.NewString(),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// sorted must be called with mu held.
func (s *Server) sorted(status model.Status, term string) []model.Todo {
	out := make([]model.Todo, 0, len(s.todos))
	term = strings.ToLower(term)
	for i := len(s.todos) - 1; i >= 0; i-- {
		t := s.todos[i]
		if !status.Matches(t) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(t.Description), term) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	status, err := model.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	todos := s.sorted(status, r.URL.Query().Get("search_term"))
	s.mu.Unlock()

	body := map[string]any{"data": todos}
	if s.informations {
		body["informations"] = map[string]int{"total": len(todos)}
		body["status"] = "200 OK"
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) count(w http.ResponseWriter, r *http.Request) {
	status, err := model.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	n := len(s.sorted(status, ""))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"data": n})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	if strings.TrimSpace(in.Description) == "" {
		writeError(w, http.StatusBadRequest, "Description is required")
		return
	}
	s.mu.Lock()
	for _, t := range s.todos {
		if t.Description == in.Description {
			s.mu.Unlock()
			writeError(w, http.StatusConflict, "Todo already exists")
			return
		}
	}
	t := s.newTodo(in.Description)
	s.todos = append(s.todos, t)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, map[string]any{"data": t, "status": "201 Created"})
}

func (s *Server) mark(done bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.todos {
			if s.todos[i].ID != id {
				continue
			}
			now := s.now().UTC()
			s.todos[i].Done = done
			s.todos[i].UpdatedAt = now
			if done {
				s.todos[i].DoneAt = &now
			} else {
				s.todos[i].DoneAt = nil
			}
			writeJSON(w, http.StatusOK, map[string]any{"data": s.todos[i], "status": "200 OK"})
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "Todo not exists")
	}
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Todo not found")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{
		"status": http.StatusText(code),
		"error":  msg,
	})
}
