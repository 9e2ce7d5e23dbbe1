// Package web provides a read-only HTTP status server for the interlock daemon.
// Nothing served here can start, stop or clear the conveyor.
package web

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/sweeney/conveyor-interlock/internal/alarm"
	"github.com/sweeney/conveyor-interlock/internal/status"
)

// AlarmLister reads recent alarms.
type AlarmLister interface {
	List(ctx context.Context, limit int) ([]alarm.Alarm, error)
}

// Server serves the status page and API over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	alarms     AlarmLister
}

// New creates a Server that reads state from the given tracker.
// alarms may be nil, in which case /api/alarms returns an empty list.
func New(addr string, tracker *status.Tracker, alarms AlarmLister) *Server {
	s := &Server{tracker: tracker, alarms: alarms}

	router := chi.NewRouter()
	router.Get("/", s.handleIndex)
	router.Get("/index.html", s.handleIndex)
	router.Get("/index.json", s.handleJSON)

	api := humachi.New(router, huma.DefaultConfig("Conveyor Interlock", "1.0.0"))
	s.registerStatus(api)
	s.registerAlarms(api)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the root handler. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
