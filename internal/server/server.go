// Package server exposes a session over HTTP. Each request is translated
// into one session command; requests are serialized so the session sees one
// command at a time.
package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"labelflow/internal/logger"
	"labelflow/internal/session"
)

// Server owns the session shared by all requests.
type Server struct {
	mu   sync.Mutex
	sess *session.Session
	log  logger.Logger

	// onChange runs after every successful mutating command, under the lock.
	onChange func(*session.Session) error
}

// Option customises a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithOnChange registers a hook run after every successful mutating
// command, for instance to persist a snapshot. A hook error fails the
// request with 500 but does not undo the command.
func WithOnChange(fn func(*session.Session) error) Option {
	return func(s *Server) { s.onChange = fn }
}

// New returns a server over sess.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{sess: sess, log: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/session", s.handleSession)
	r.Get("/record", s.handleRecord)
	r.Post("/navigate", s.handleNavigate)
	r.Post("/submit", s.handleSubmit)
	r.Post("/rename", s.handleRename)
	r.Post("/select", s.handleSelect)
	r.Post("/questions", s.handleAddQuestion)
	r.Post("/begin", s.handleBegin)
	r.Get("/export", s.handleExport)
	r.Get("/export.csv", s.handleExportCSV)

	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", sw.status,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}
