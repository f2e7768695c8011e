// Package store is the persistence collaborator for the workflow graph. The
// engine never calls it: the store listens on the engine's event sink and
// saves on its own debounced schedule, keeping the engine side-effect-free.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tasklab/workgraph/pkg/model"
)

// Store reads and writes the workflow graph as a JSON file
type Store struct {
	path string

	mu       sync.Mutex
	lastSave time.Time
}

// New creates a store over the given file path
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the graph file. A missing file yields an empty graph, not an
// error, so a fresh workspace starts clean.
func (s *Store) Load() (*model.Graph, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewGraph(), nil
		}
		return nil, fmt.Errorf("reading graph file: %w", err)
	}

	g := model.NewGraph()
	if err := json.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("parsing graph file %s: %w", s.path, err)
	}
	if g.Nodes == nil {
		g.Nodes = make(map[string]*model.Node)
	}
	g.RebuildDependsOn()
	return g, nil
}

// Save writes the graph to the backing file. Writes go through a temp file
// and rename so a crash never leaves a half-written graph behind.
func (s *Store) Save(g *model.Graph) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding graph: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing graph file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing graph file: %w", err)
	}

	s.mu.Lock()
	s.lastSave = time.Now()
	s.mu.Unlock()
	return nil
}

// SavedWithin reports whether the store wrote the file within the given
// window. The file watcher uses it to drop echoes of our own saves.
func (s *Store) SavedWithin(window time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.lastSave.IsZero() && time.Since(s.lastSave) < window
}
