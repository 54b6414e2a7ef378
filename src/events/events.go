// Package events defines the broadcast event model: a fixed set of
// named domain events, each carrying a typed payload.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Known event names. The adapter's routing table and the wire decoder
// both key off these.
const (
	OrderCreated     = "order.created"
	OrderUpdated     = "order.updated"
	InventoryUpdated = "inventory.updated"
	InventoryLow     = "inventory.low"
	UserRegistered   = "user.registered"
	PaymentProcessed = "payment.processed"
)

// ErrMalformedEvent is returned when an event is missing required
// fields. This is a programming error in the caller, surfaced
// synchronously.
var ErrMalformedEvent = errors.New("malformed event: missing type")

// Payload is the tagged variant carried by an Event. Implementations
// are the concrete payload structs below; the interface is sealed.
type Payload interface {
	isPayload()
}

// OrderPayload accompanies order lifecycle events.
type OrderPayload struct {
	OrderID  string  `json:"order_id"`
	Status   string  `json:"status"`
	Total    float64 `json:"total"`
	Currency string  `json:"currency,omitempty"`
}

// InventoryPayload accompanies stock-level events.
type InventoryPayload struct {
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	Warehouse string `json:"warehouse,omitempty"`
}

// UserPayload accompanies account events.
type UserPayload struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// PaymentPayload accompanies payment events.
type PaymentPayload struct {
	OrderID string  `json:"order_id"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
}

// GenericPayload is the fallback for event types relayed from another
// instance that this build does not know a schema for.
type GenericPayload map[string]any

func (OrderPayload) isPayload()     {}
func (InventoryPayload) isPayload() {}
func (UserPayload) isPayload()      {}
func (PaymentPayload) isPayload()   {}
func (GenericPayload) isPayload()   {}

// Event is an immutable fire-and-forget value delivered to
// connections. The ID exists for diagnostics only; nothing about
// delivery keys off it.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Payload   Payload   `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Optional delivery scope. Empty means the caller decides
	// (broadcast to all, or whatever target it names explicitly).
	TargetUserID string `json:"target_user_id,omitempty"`
	TargetRoom   string `json:"target_room,omitempty"`
}

// New constructs an event with a fresh ID and the current time.
func New(eventType string, payload Payload) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Validate reports whether the event carries the fields every
// dispatch path requires.
func (e Event) Validate() error {
	if e.Type == "" {
		return ErrMalformedEvent
	}
	return nil
}

// wireEvent mirrors Event with the payload left raw so UnmarshalJSON
// can pick the concrete type from the event name.
type wireEvent struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Payload      json.RawMessage `json:"payload,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
	TargetUserID string          `json:"target_user_id,omitempty"`
	TargetRoom   string          `json:"target_room,omitempty"`
}

// UnmarshalJSON decodes the payload into the variant matching the
// event type. Unknown types fall back to GenericPayload.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.ID = w.ID
	e.Type = w.Type
	e.Timestamp = w.Timestamp
	e.TargetUserID = w.TargetUserID
	e.TargetRoom = w.TargetRoom
	e.Payload = nil

	if len(w.Payload) == 0 {
		return nil
	}
	payload, err := decodePayload(w.Type, w.Payload)
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", w.Type, err)
	}
	e.Payload = payload
	return nil
}

func decodePayload(eventType string, raw json.RawMessage) (Payload, error) {
	switch eventType {
	case OrderCreated, OrderUpdated:
		var p OrderPayload
		return p, json.Unmarshal(raw, &p)
	case InventoryUpdated, InventoryLow:
		var p InventoryPayload
		return p, json.Unmarshal(raw, &p)
	case UserRegistered:
		var p UserPayload
		return p, json.Unmarshal(raw, &p)
	case PaymentProcessed:
		var p PaymentPayload
		return p, json.Unmarshal(raw, &p)
	default:
		var p GenericPayload
		return p, json.Unmarshal(raw, &p)
	}
}
