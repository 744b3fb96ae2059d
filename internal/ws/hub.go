package ws

import (
	"encoding/json"
	"sync"
)

// Topic names. Every connection is subscribed to TopicEvents; kitchen
// displays additionally subscribe to TopicKitchen, which receives the
// kot-prefixed events a kitchen screen cares about.
const (
	TopicEvents  = "events"
	TopicKitchen = "kitchen"
)

// Event represents a state-change notification to be broadcast. The
// payload is the full updated entity snapshot; a disconnected observer
// reconciles by re-fetching current state, missed events are not
// replayed.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// topicEvent routes an event to the subscribers of one topic.
type topicEvent struct {
	Topic string
	Event Event
}

// Hub maintains the set of active clients and broadcasts events to
// topic-scoped rooms. The registry is process-local and rebuilt from
// scratch on restart.
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *topicEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			for _, topic := range client.topics {
				if h.rooms[topic] == nil {
					h.rooms[topic] = make(map[*Client]bool)
				}
				h.rooms[topic][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()

			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			// A single connection receives one topic's events in
			// publish order; delivery is best-effort.
			for client := range h.rooms[event.Topic] {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, drop it
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client from every room it is subscribed to and closes
// its send channel. Caller holds h.mu.
func (h *Hub) drop(client *Client) {
	dropped := false
	for _, topic := range client.topics {
		clients, ok := h.rooms[topic]
		if !ok {
			continue
		}
		if _, exists := clients[client]; exists {
			delete(clients, client)
			dropped = true
			// Clean up empty rooms
			if len(clients) == 0 {
				delete(h.rooms, topic)
			}
		}
	}
	if dropped {
		close(client.send)
	}
}

// Publish sends an event to all clients subscribed to the given topic.
// This is the API every state-changing operation calls after its write
// has committed, never before.
func (h *Hub) Publish(topic string, event Event) {
	h.broadcast <- &topicEvent{Topic: topic, Event: event}
}
