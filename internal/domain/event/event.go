package event

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Event represents a domain event emitted by the chain engine. Subscribers
// (UI push, audit log, downstream automations) consume these instead of
// polling the store.
type Event struct {
	ID             string                 `json:"id"`
	Type           Type                   `json:"type"`
	AggregateID    string                 `json:"aggregate_id"`
	BusinessUnitID string                 `json:"business_unit_id,omitempty"`
	Payload        map[string]interface{} `json:"payload"`
	Timestamp      time.Time              `json:"timestamp"`
	CorrelationID  string                 `json:"correlation_id"`
}

// NewEvent creates a new domain event with auto-generated ID and timestamp.
// AggregateID is the id of the workflow, transition or request the event is
// about.
func NewEvent(eventType Type, aggregateID, businessUnitID string, payload map[string]interface{}) *Event {
	return &Event{
		ID:             generateID(),
		Type:           eventType,
		AggregateID:    aggregateID,
		BusinessUnitID: businessUnitID,
		Payload:        payload,
		Timestamp:      time.Now(),
		CorrelationID:  generateID(),
	}
}

// NewEventWithCorrelation creates an event linked to a correlation chain
func NewEventWithCorrelation(eventType Type, aggregateID, businessUnitID string, payload map[string]interface{}, correlationID string) *Event {
	e := NewEvent(eventType, aggregateID, businessUnitID, payload)
	e.CorrelationID = correlationID
	return e
}

// WithPayload returns a new Event with an added payload key-value pair (immutable operation)
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	clone := *e
	clone.Payload = newPayload
	return &clone
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadBool retrieves a bool value from the payload
func (e *Event) GetPayloadBool(key string) bool {
	if val, ok := e.Payload[key]; ok {
		if b, ok := val.(bool); ok {
			return b
		}
	}
	return false
}

// generateID creates a unique ID using timestamp and random bytes
func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(b))
}
