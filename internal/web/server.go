// Package web serves the scheduler's status page and schedule over HTTP.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/sweeney/setpoint-scheduler/internal/profile"
	"github.com/sweeney/setpoint-scheduler/internal/schedule"
	"github.com/sweeney/setpoint-scheduler/internal/status"
)

// ScheduleSource provides the persisted schedule. *schedule.Manager
// implements it.
type ScheduleSource interface {
	Table() schedule.Table
	Profiles() ([]profile.Profile, error)
}

// Server serves the status page.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	schedule   ScheduleSource
}

// New returns a server reading state from tracker and sched.
func New(addr string, tracker *status.Tracker, sched ScheduleSource) *Server {
	s := &Server{tracker: tracker, schedule: sched}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	mux.HandleFunc("/schedule.json", s.handleSchedule)

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	return s
}

// ListenAndServe blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Handler returns the router, for mounting in tests or another server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, s.tracker.Snapshot()); err != nil {
		log.Warn().Err(err).Msg("render status page")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(s.tracker.Snapshot()))
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if s.schedule == nil {
		http.NotFound(w, r)
		return
	}
	profiles, err := s.schedule.Profiles()
	if err != nil {
		log.Error().Err(err).Msg("read profiles")
		http.Error(w, "profile store unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(formatSchedule(s.schedule.Table(), profiles))
}
