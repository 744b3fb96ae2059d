// Package service implements the coordination rules between tables,
// orders and kitchen tickets: lifecycle state machines, ticket
// derivation, hold expiry and the event fan-out that follows every
// committed write.
package service

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/dinepos/api/internal/model"
	"github.com/dinepos/api/internal/ws"
)

// Event types published to observers.
const (
	EventOrderCreated          = "order.created"
	EventOrderUpdated          = "order.updated"
	EventTicketCreated         = "kot.created"
	EventTicketUpdated         = "kot.updated"
	EventTicketPriorityUpdated = "kot.priority.updated"
	EventTableUpdated          = "table.updated"
)

// Broadcaster is the publish capability every service receives at
// construction. Satisfied by *ws.Hub. It is an explicit dependency,
// never reached through ambient application state.
type Broadcaster interface {
	Publish(topic string, event ws.Event)
}

// publish marshals the entity snapshot once and fans it out to the
// given topics. Called only after the corresponding write has
// committed, so observers can always read back the state they were
// notified about.
func publish(hub Broadcaster, eventType string, payload any, topics ...string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("publish %s: marshal: %v", eventType, err)
		return
	}
	event := ws.Event{Type: eventType, Payload: data}
	for _, topic := range topics {
		hub.Publish(topic, event)
	}
}

// retryConflict runs fn and, if the write lost an optimistic-
// concurrency race, runs it once more. fn must re-read its entities on
// every attempt.
func retryConflict(fn func() error) error {
	err := fn()
	if errors.Is(err, model.ErrConflict) {
		return fn()
	}
	return err
}
