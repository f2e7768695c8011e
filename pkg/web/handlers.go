package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tasklab/workgraph/pkg/cycles"
	"github.com/tasklab/workgraph/pkg/engine"
	"github.com/tasklab/workgraph/pkg/model"
)

// graphResponse is the full read model handed to the renderer
type graphResponse struct {
	Graph   *model.Graph `json:"graph"`
	CanUndo bool         `json:"can_undo"`
	CanRedo bool         `json:"can_redo"`
	Cycles  [][]string   `json:"cycles,omitempty"` // residual cycles, normally empty
}

type addNodeRequest struct {
	ID     string         `json:"id,omitempty"` // generated when empty
	Kind   model.NodeKind `json:"kind"`
	Label  string         `json:"label"`
	Parent string         `json:"parent,omitempty"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
}

type addEdgeRequest struct {
	Source string         `json:"source"`
	Target string         `json:"target"`
	Kind   model.EdgeKind `json:"kind,omitempty"` // defaults to dependency
}

type moveNodeRequest struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Dragging bool    `json:"dragging"`
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	g := s.engine.Graph()
	resp := graphResponse{
		Graph:   g,
		CanUndo: s.engine.CanUndo(),
		CanRedo: s.engine.CanRedo(),
		Cycles:  cycles.FindCycles(g),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result := s.engine.ComputeLayout()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}

	node := &model.Node{
		ID:       req.ID,
		Kind:     req.Kind,
		Label:    req.Label,
		Parent:   req.Parent,
		Position: model.Position{X: req.X, Y: req.Y},
	}

	s.mu.Lock()
	err := s.engine.AddNode(node)
	s.mu.Unlock()

	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, node)
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	err := s.engine.RemoveNode(id)
	s.mu.Unlock()

	if err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req moveNodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err := s.engine.MoveNode(id, model.Position{X: req.X, Y: req.Y}, req.Dragging)
	s.mu.Unlock()

	if err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddEdge(w http.ResponseWriter, r *http.Request) {
	var req addEdgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Kind == "" {
		req.Kind = model.EdgeDependency
	}

	s.mu.Lock()
	err := s.engine.AddEdge(req.Source, req.Target, req.Kind)
	s.mu.Unlock()

	if err != nil {
		writeRejection(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.Edge{Source: req.Source, Target: req.Target, Kind: req.Kind})
}

func (s *Server) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	s.mu.Lock()
	err := s.engine.RemoveEdge(vars["source"], vars["target"])
	s.mu.Unlock()

	if err != nil {
		writeRejection(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommitLayout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	result := s.engine.AutoLayout()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.engine.Undo()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"applied": ok})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ok := s.engine.Redo()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"applied": ok})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRejection maps engine rejections to HTTP statuses: unknown IDs to 404,
// policy refusals to 409. Anything that is not a rejection is a server bug.
func writeRejection(w http.ResponseWriter, err error) {
	if !errors.Is(err, engine.ErrRejected) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	reason, _ := engine.ReasonOf(err)
	status := http.StatusConflict
	if reason == engine.ReasonUnknownNode || reason == engine.ReasonUnknownEdge {
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"reason": string(reason),
		"error":  err.Error(),
	})
}
