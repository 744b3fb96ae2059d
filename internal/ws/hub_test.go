package ws

import (
	"encoding/json"
	"testing"
	"time"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, buffer int, topics ...string) *Client {
	return &Client{
		hub:    hub,
		topics: topics,
		send:   make(chan []byte, buffer),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 256, TopicEvents, TopicKitchen)
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if !hub.rooms[TopicEvents][client] {
		t.Fatal("client not registered in events room")
	}
	if !hub.rooms[TopicKitchen][client] {
		t.Fatal("client not registered in kitchen room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 256, TopicEvents)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[TopicEvents] != nil {
		t.Fatal("events room not cleaned up after last client unregistered")
	}

	// The hub closed the send channel on drop.
	select {
	case _, ok := <-client.send:
		if ok {
			t.Fatal("unexpected message on dropped client")
		}
	default:
		t.Fatal("send channel not closed")
	}
}

func TestPublishScopedToTopic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	floor := mockClient(hub, 256, TopicEvents)
	kitchen := mockClient(hub, 256, TopicEvents, TopicKitchen)
	hub.register <- floor
	hub.register <- kitchen
	time.Sleep(10 * time.Millisecond)

	event := Event{
		Type:    "kot.created",
		Payload: json.RawMessage(`{"number":"KOT2503100001"}`),
	}
	hub.Publish(TopicKitchen, event)

	select {
	case msg := <-kitchen.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if received.Type != "kot.created" {
			t.Errorf("type = %s, want kot.created", received.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("kitchen client got nothing")
	}

	select {
	case msg := <-floor.send:
		t.Fatalf("floor client received kitchen-topic event: %s", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	a := mockClient(hub, 256, TopicEvents)
	b := mockClient(hub, 256, TopicEvents)
	hub.register <- a
	hub.register <- b
	time.Sleep(10 * time.Millisecond)

	hub.Publish(TopicEvents, Event{Type: "order.updated", Payload: json.RawMessage(`{}`)})

	for name, c := range map[string]*Client{"a": a, "b": b} {
		select {
		case <-c.send:
		case <-time.After(time.Second):
			t.Fatalf("client %s got nothing", name)
		}
	}
}

func TestSlowClientDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// A buffer of one fills on the first event; the second drops the
	// client instead of blocking the hub.
	slow := mockClient(hub, 1, TopicEvents)
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.Publish(TopicEvents, Event{Type: "order.created", Payload: json.RawMessage(`{}`)})
	hub.Publish(TopicEvents, Event{Type: "order.updated", Payload: json.RawMessage(`{}`)})
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	if hub.rooms[TopicEvents][slow] {
		t.Fatal("slow client still registered")
	}
}

func TestDeliveryOrderPreserved(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, 256, TopicEvents)
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	types := []string{"order.created", "order.updated", "kot.created"}
	for _, typ := range types {
		hub.Publish(TopicEvents, Event{Type: typ, Payload: json.RawMessage(`{}`)})
	}

	for _, want := range types {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if received.Type != want {
				t.Errorf("got %s, want %s", received.Type, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %s", want)
		}
	}
}
