package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tasklab/workgraph/pkg/logging"
	"github.com/tasklab/workgraph/pkg/pubsub"
)

// echoWindow is how long after our own save a file event is treated as an
// echo rather than an external edit
const echoWindow = 2 * time.Second

// Watcher detects external modification of the graph file and announces it
// on the status topic. Editors and sync tools replace files rather than write
// in place, so the watch covers the containing directory.
type Watcher struct {
	store    *Store
	broker   pubsub.Publisher
	watcher  *fsnotify.Watcher
	onChange func() // invoked after announcing an external change, may be nil
}

// NewWatcher creates a watcher for the store's backing file
func NewWatcher(store *Store, broker pubsub.Publisher, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		store:    store,
		broker:   broker,
		watcher:  fsw,
		onChange: onChange,
	}, nil
}

// Start begins watching until the context is canceled
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logging.Info("watching graph file", "path", w.store.Path())

	go w.run(ctx)
	return nil
}

func (w *Watcher) run(ctx context.Context) {
	defer w.watcher.Close()

	target, _ := filepath.Abs(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			path, _ := filepath.Abs(event.Name)
			if path != target {
				continue
			}
			if w.store.SavedWithin(echoWindow) {
				// Our own save coming back around
				continue
			}

			logging.Info("graph file changed externally", "path", w.store.Path())
			w.broker.Publish(pubsub.TopicStatus, "reload", pubsub.Status{
				State: "reload",
				Path:  w.store.Path(),
			})
			if w.onChange != nil {
				w.onChange()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("file watcher error", "error", err)
		}
	}
}
