// Package api serves the tracker over HTTP with JSON bodies.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/biswalmanoj310/mytimemanager-sub007/internal/period"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/store"
	"github.com/biswalmanoj310/mytimemanager-sub007/internal/tracker"
)

type Server struct {
	svc *tracker.Service
	log hclog.Logger
	mux *http.ServeMux
}

// New builds the HTTP handler. A nil logger discards output.
func New(svc *tracker.Service, log hclog.Logger) *Server {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	s := &Server{svc: svc, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	m := s.mux
	m.HandleFunc("GET /healthz", s.health)

	m.HandleFunc("GET /api/pillars", s.listPillars)
	m.HandleFunc("GET /api/categories", s.listCategories)
	m.HandleFunc("POST /api/categories", s.createCategory)

	m.HandleFunc("GET /api/tasks", s.listTasks)
	m.HandleFunc("POST /api/tasks", s.createTask)
	m.HandleFunc("GET /api/tasks/{id}", s.getTask)
	m.HandleFunc("PUT /api/tasks/{id}", s.updateTask)
	m.HandleFunc("DELETE /api/tasks/{id}", s.deleteTask)
	m.HandleFunc("POST /api/tasks/{id}/complete", s.completeTask)
	m.HandleFunc("POST /api/tasks/{id}/na", s.markTaskNA)
	m.HandleFunc("POST /api/tasks/{id}/restore", s.restoreTask)

	m.HandleFunc("GET /api/periods/{kind}/tab/{start}", s.tab)
	m.HandleFunc("GET /api/periods/{kind}/aggregate/{taskId}/{start}", s.aggregate)
	m.HandleFunc("GET /api/periods/{kind}/status/{taskId}/{start}", s.getStatus)
	m.HandleFunc("POST /api/periods/{kind}/status/{taskId}/{start}", s.setStatus)
	m.HandleFunc("POST /api/periods/{kind}/status/{taskId}/{start}/restore", s.restoreStatus)
	m.HandleFunc("POST /api/periods/{kind}/track/{taskId}/{start}", s.track)

	m.HandleFunc("GET /api/entries", s.listEntries)
	m.HandleFunc("PUT /api/entries", s.putEntry)

	m.HandleFunc("GET /api/habits", s.listHabits)
	m.HandleFunc("POST /api/habits", s.createHabit)
	m.HandleFunc("GET /api/habits/{id}", s.getHabit)
	m.HandleFunc("PUT /api/habits/{id}/entries", s.putHabitEntry)
	m.HandleFunc("PUT /api/habits/{id}/sessions", s.putHabitSession)
	m.HandleFunc("GET /api/habits/{id}/periods/{start}", s.habitPeriod)

	m.HandleFunc("GET /api/challenges", s.listChallenges)
	m.HandleFunc("POST /api/challenges", s.createChallenge)
	m.HandleFunc("GET /api/challenges/{id}", s.getChallenge)
	m.HandleFunc("PUT /api/challenges/{id}/entries", s.putChallengeEntry)
	m.HandleFunc("POST /api/challenges/{id}/status", s.setChallengeStatus)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// ServeHTTP logs every request after it is handled.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(started))
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// apiError is an error with a chosen HTTP status.
type apiError struct {
	status int
	msg    string
	err    error
}

func (e *apiError) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *apiError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &apiError{status: http.StatusBadRequest, msg: msg, err: err}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps err to a status code: validation 400, not found 404, a
// partial home write 500 with the applied flags, anything else 500.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	var partial *tracker.PartialError
	switch {
	case errors.As(err, &ae):
		writeJSON(w, ae.status, map[string]any{"error": ae.Error()})
	case errors.As(err, &partial):
		s.log.Error("partial home write", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":          partial.Error(),
			"global_applied": partial.GlobalApplied,
			"status_applied": partial.StatusApplied,
		})
	case errors.Is(err, store.ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("invalid JSON body", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(fmt.Sprintf("invalid %s %q", name, r.PathValue(name)), nil)
	}
	return id, nil
}

func pathKind(r *http.Request) (period.Kind, error) {
	k, err := period.ParseKind(r.PathValue("kind"))
	if err != nil {
		return k, badRequest("invalid period kind", err)
	}
	return k, nil
}

func parseDate(s, field string) (time.Time, error) {
	d, err := period.ParseDate(s)
	if err != nil {
		return d, badRequest(fmt.Sprintf("%s must be YYYY-MM-DD", field), err)
	}
	return d, nil
}

func queryInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, badRequest(fmt.Sprintf("invalid %s %q", name, raw), err)
	}
	return &v, nil
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}
