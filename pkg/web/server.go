// Package web exposes the workflow graph engine over HTTP: REST endpoints
// for mutations, Server-Sent Events for live updates, and an embedded static
// viewer. The engine serializes its own entry points; the server mutex only
// keeps multi-call handler sequences (read graph, then undo flags) coherent.
package web

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"github.com/tasklab/workgraph/pkg/engine"
	"github.com/tasklab/workgraph/pkg/logging"
	"github.com/tasklab/workgraph/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// Server serves the engine's API and the viewer page
type Server struct {
	router *mux.Router
	broker pubsub.Publisher

	mu     sync.Mutex
	engine *engine.Engine
}

// NewServer creates a server over an engine and the broker the engine
// publishes to. Subscriptions stream straight from the broker.
func NewServer(eng *engine.Engine, broker pubsub.Publisher) *Server {
	s := &Server{
		router: mux.NewRouter(),
		broker: broker,
		engine: eng,
	}
	s.setupRoutes()
	return s
}

// Start runs the HTTP server on the given port, blocking
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logging.Info("web server listening", "addr", addr)
	return http.ListenAndServe(addr, logging.RequestIDMiddleware(s.router))
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/graph", s.handleSubscribe(pubsub.TopicGraph)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/status", s.handleSubscribe(pubsub.TopicStatus)).Methods("GET")

	// Graph reads
	s.router.HandleFunc("/api/graph", s.handleGetGraph).Methods("GET")
	s.router.HandleFunc("/api/layout", s.handleGetLayout).Methods("GET")

	// Mutations
	s.router.HandleFunc("/api/nodes", s.handleAddNode).Methods("POST")
	s.router.HandleFunc("/api/nodes/{id}", s.handleRemoveNode).Methods("DELETE")
	s.router.HandleFunc("/api/nodes/{id}/position", s.handleMoveNode).Methods("POST")
	s.router.HandleFunc("/api/edges", s.handleAddEdge).Methods("POST")
	s.router.HandleFunc("/api/edges/{source}/{target}", s.handleRemoveEdge).Methods("DELETE")
	s.router.HandleFunc("/api/layout/commit", s.handleCommitLayout).Methods("POST")
	s.router.HandleFunc("/api/undo", s.handleUndo).Methods("POST")
	s.router.HandleFunc("/api/redo", s.handleRedo).Methods("POST")

	// Static viewer
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("embedded static files missing", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// handleSubscribe streams a pubsub topic as Server-Sent Events
func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		// Initial comment establishes the stream (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		sub, err := s.broker.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.ErrorContext(r.Context(), "writing SSE event failed", "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}
