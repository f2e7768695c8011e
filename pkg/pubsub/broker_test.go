package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestPublishReachesSubscriber(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := broker.Subscribe(ctx, TopicGraph)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Close()

	change := GraphChange{NodeCount: 3, EdgeCount: 2, Changed: []string{"a"}}
	if err := broker.Publish(TopicGraph, "edge_added", change); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Type != "edge_added" {
			t.Errorf("expected type edge_added, got %s", event.Type)
		}
		var got GraphChange
		if err := json.Unmarshal(event.Data, &got); err != nil {
			t.Fatalf("payload unmarshal failed: %v", err)
		}
		if got.NodeCount != 3 || got.EdgeCount != 2 {
			t.Errorf("unexpected payload %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestReplayLastEvent(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	broker.ConfigureTopic(TopicStatus, TopicConfig{BufferSize: 5, ReplayAll: false})

	for _, state := range []string{"loading", "ready", "saved"} {
		if err := broker.Publish(TopicStatus, state, Status{State: state}); err != nil {
			t.Fatalf("publish %s failed: %v", state, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := broker.Subscribe(ctx, TopicStatus)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	defer sub.Close()

	select {
	case event := <-sub.Events():
		if event.Type != "saved" {
			t.Errorf("expected only the last event replayed, got %s", event.Type)
		}
		if event.Version != 3 {
			t.Errorf("expected version 3, got %d", event.Version)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for replayed event")
	}

	select {
	case event := <-sub.Events():
		t.Errorf("expected a single replayed event, also got %s", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestVersionsIncreasePerTopic(t *testing.T) {
	broker := NewBroker()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, _ := broker.Subscribe(ctx, TopicGraph)
	defer sub.Close()

	for i := 0; i < 3; i++ {
		broker.Publish(TopicGraph, "node_added", GraphChange{NodeCount: i})
	}
	// Other topics do not share the counter
	broker.Publish(TopicStatus, "ready", Status{State: "ready"})

	for want := 1; want <= 3; want++ {
		select {
		case event := <-sub.Events():
			if event.Version != want {
				t.Errorf("expected version %d, got %d", want, event.Version)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
	}
}

func TestClosedBrokerRejectsPublish(t *testing.T) {
	broker := NewBroker()
	broker.Close()

	if err := broker.Publish(TopicGraph, "node_added", GraphChange{}); err == nil {
		t.Error("publish on closed broker must fail")
	}
	if _, err := broker.Subscribe(context.Background(), TopicGraph); err == nil {
		t.Error("subscribe on closed broker must fail")
	}
}
