// Package server runs the metrics/debug HTTP surface for the serve
// subcommand: Prometheus scrape endpoint, pprof, health check, and the
// most recently published validation report.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"sync/atomic"

	"github.com/opennoise/raypath/internal/logging"
	"github.com/opennoise/raypath/pkg/metrics"
	"github.com/opennoise/raypath/pkg/validation"
)

// Server is the local metrics/debug server for a long-running pathfinder
// process.
type Server struct {
	addr   string
	report atomic.Pointer[validation.Report]
}

// New creates a server bound to addr (e.g. ":9090").
func New(addr string) *Server {
	return &Server{addr: addr}
}

// SetReport publishes the most recent validation report so
// /api/validation serves it.
func (s *Server) SetReport(r *validation.Report) {
	s.report.Store(r)
}

// Start launches the HTTP server. It blocks until the listener fails.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /api/validation", s.handleValidation)
	mux.Handle("GET /debug/pprof/", http.DefaultServeMux)

	logging.L().Info("raypath server starting", "addr", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *Server) handleValidation(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	r := s.report.Load()
	if r == nil {
		r = validation.NewReport()
	}
	json.NewEncoder(w).Encode(r)
}
