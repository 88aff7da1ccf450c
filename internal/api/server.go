// Package api provides the node's read-only introspection HTTP server:
// liveness, Prometheus metrics, and snapshots of the ring and
// directory state a human or monitoring system can poll.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ringmesh/ringchat/internal/domain"
)

// StatusSource is the minimal read-only view of a running node the
// status API needs. ServerNode implements it; nothing in this package
// holds a direct reference to node.ServerNode, so api never imports
// app/node.
type StatusSource interface {
	Self() domain.NodeID
	Addr() domain.Endpoint
	State() domain.ServerState
	LeaderID() domain.NodeID
	RingView() []domain.NodeID
	DirectorySnapshot() (map[string]domain.NodeID, uint64)
}

// Server is the node's status HTTP server.
type Server struct {
	node StatusSource
}

// NewServer creates a status API server backed by node.
func NewServer(node StatusSource) *Server {
	return &Server{node: node}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/directory", s.handleDirectory)
	r.Get("/ring", s.handleRing)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"self":  string(s.node.Self()),
		"state": s.node.State().String(),
	})
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	snapshot, generation := s.node.DirectorySnapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rooms":      snapshot,
		"generation": generation,
		"leader":     s.node.LeaderID(),
	})
}

func (s *Server) handleRing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"self":   s.node.Self(),
		"view":   s.node.RingView(),
		"leader": s.node.LeaderID(),
		"state":  s.node.State().String(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
