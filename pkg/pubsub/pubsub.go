package pubsub

import (
	"context"
	"encoding/json"
)

// Topic names used across the engine and its collaborators
const (
	TopicGraph  = "graph"  // committed graph mutations
	TopicStatus = "status" // load/save/reload lifecycle
)

// Event represents a published event on a topic
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"` // e.g. "edge_added", "undo", "saved"
	Data    json.RawMessage `json:"data"`
	Version int             `json:"version"` // per-topic version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher is the message sink handed to the engine and its collaborators.
// It is always passed explicitly, never held as a process-wide singleton, so
// tests can supply their own capture implementation.
type Publisher interface {
	// Subscribe creates a new subscription to a topic.
	// Context cancellation closes the subscription.
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// GraphChange is the payload for TopicGraph events
type GraphChange struct {
	NodeCount int      `json:"node_count"`
	EdgeCount int      `json:"edge_count"`
	Changed   []string `json:"changed,omitempty"` // IDs touched by the mutation
}

// Status is the payload for TopicStatus events
type Status struct {
	State   string `json:"state"` // loading, ready, saving, saved, reload
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
}
