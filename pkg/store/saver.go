package store

import (
	"context"
	"time"

	"github.com/tasklab/workgraph/pkg/logging"
	"github.com/tasklab/workgraph/pkg/model"
	"github.com/tasklab/workgraph/pkg/pubsub"
)

// GraphSource supplies the current committed graph; the engine satisfies it.
// Graph is called from the saver's goroutine, so implementations must be safe
// for concurrent use.
type GraphSource interface {
	Graph() *model.Graph
}

// DebouncedSaver batches rapid mutation events into a single save. It waits
// for a quiet period after the last event, with a max-wait cap so a long
// editing streak still hits disk periodically. The debounce is purely a
// persistence policy and is independent of undo snapshots.
type DebouncedSaver struct {
	store       *Store
	source      GraphSource
	broker      pubsub.Publisher
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncedSaver creates a saver listening for graph mutation events.
// Non-positive durations fall back to 500ms quiet period and 5s max wait.
func NewDebouncedSaver(store *Store, source GraphSource, broker pubsub.Publisher, quietPeriod, maxWait time.Duration) *DebouncedSaver {
	if quietPeriod <= 0 {
		quietPeriod = 500 * time.Millisecond
	}
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}
	return &DebouncedSaver{
		store:       store,
		source:      source,
		broker:      broker,
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins listening and saving in a background goroutine
func (d *DebouncedSaver) Start(ctx context.Context) error {
	sub, err := d.broker.Subscribe(ctx, pubsub.TopicGraph)
	if err != nil {
		return err
	}
	go d.run(ctx, sub)
	return nil
}

func (d *DebouncedSaver) run(ctx context.Context, sub pubsub.Subscription) {
	var (
		timer        *time.Timer
		maxWaitTimer *time.Timer
		pending      int
	)

	timerC := func(t *time.Timer) <-chan time.Time {
		if t == nil {
			return nil
		}
		return t.C
	}

	flush := func() {
		if pending == 0 {
			return
		}
		logging.Debug("flushing pending mutations to disk", "count", pending)
		d.save()
		pending = 0
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		if maxWaitTimer != nil {
			maxWaitTimer.Stop()
			maxWaitTimer = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case _, ok := <-sub.Events():
			if !ok {
				flush()
				return
			}
			pending++

			if timer == nil {
				timer = time.NewTimer(d.quietPeriod)
			} else {
				timer.Reset(d.quietPeriod)
			}
			if maxWaitTimer == nil {
				maxWaitTimer = time.NewTimer(d.maxWait)
			}

		case <-timerC(timer):
			flush()

		case <-timerC(maxWaitTimer):
			flush()
		}
	}
}

func (d *DebouncedSaver) save() {
	if err := d.store.Save(d.source.Graph()); err != nil {
		logging.Error("saving graph failed", "path", d.store.Path(), "error", err)
		d.broker.Publish(pubsub.TopicStatus, "save_failed", pubsub.Status{
			State:   "save_failed",
			Message: err.Error(),
			Path:    d.store.Path(),
		})
		return
	}
	logging.Debug("graph saved", "path", d.store.Path())
	d.broker.Publish(pubsub.TopicStatus, "saved", pubsub.Status{
		State: "saved",
		Path:  d.store.Path(),
	})
}
