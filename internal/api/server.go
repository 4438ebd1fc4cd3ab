// Package api serves the trajectory-planning HTTP surface: CRUD over
// stored trajectories, planning on create, robot upload, path stats,
// and a live event stream for the web UI.
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/mural-robotics/wallsweep/internal/db"
	"github.com/mural-robotics/wallsweep/internal/events"
	"github.com/mural-robotics/wallsweep/internal/httputil"
	"github.com/mural-robotics/wallsweep/internal/planner"
	"github.com/mural-robotics/wallsweep/internal/robotlink"
	"github.com/mural-robotics/wallsweep/internal/timeutil"
	"github.com/mural-robotics/wallsweep/internal/version"
)

// ANSI color codes for terminal output
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// Server holds the collaborators the handlers need. Everything is
// injected: handlers never reach for globals, so tests can swap in a
// mock clock or a scripted robot link.
type Server struct {
	db      *db.DB
	planner *planner.Planner
	bus     *events.Bus
	link    robotlink.LinkInterface
	units   string
	clock   timeutil.Clock
}

func NewServer(database *db.DB, p *planner.Planner, bus *events.Bus, link robotlink.LinkInterface, units string, clock timeutil.Clock) *Server {
	return &Server{
		db:      database,
		planner: p,
		bus:     bus,
		link:    link,
		units:   units,
		clock:   clock,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher so the SSE handler keeps working behind
// the logging wrapper.
func (lrw *loggingResponseWriter) Flush() {
	if f, ok := lrw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func statusCodeColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorBoldGreen
	case code >= 300 && code < 400:
		return colorYellow
	default:
		return colorBoldRed
	}
}

// LoggingMiddleware logs each request with its method, path, status and
// elapsed milliseconds.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		log.Printf("[%s%d%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), lrw.statusCode, colorReset,
			r.Method, colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6)
	})
}

// ServeMux returns the API routes. The caller mounts this (plus static
// assets and admin routes) on whatever listener it owns.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/trajectories", s.handleTrajectories)
	mux.HandleFunc("/api/trajectories/", s.handleTrajectoryByID)
	mux.HandleFunc("/api/updates", s.streamUpdates)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

// showConfig reports the effective server configuration so the UI and
// operators can see what a deployment is running.
func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	httputil.WriteJSONOK(w, map[string]interface{}{
		"units":      s.units,
		"resolution": s.planner.Resolution(),
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}
