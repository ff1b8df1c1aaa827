package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Event is the webhook envelope delivered by the processor. Data
// carries the affected object verbatim; consumers unmarshal it into
// the shape matching the event type.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// IntentObject is the payload of payment_intent.* events.
type IntentObject struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ChargeObject is the payload of charge.* events; only the intent
// back-reference matters to reconciliation.
type ChargeObject struct {
	PaymentIntent string `json:"payment_intent"`
}

// ParseEvent decodes a raw webhook body. The id and type are required;
// everything else is event-specific.
func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("gateway: decode event: %w", err)
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, fmt.Errorf("gateway: event missing id or type")
	}
	return &ev, nil
}

// IntentID extracts the payment intent id an event refers to, or ""
// when the event carries none.
func (ev *Event) IntentID() string {
	if strings.HasPrefix(ev.Type, "payment_intent.") {
		var obj IntentObject
		if err := json.Unmarshal(ev.Data.Object, &obj); err == nil {
			return obj.ID
		}
		return ""
	}
	if strings.HasPrefix(ev.Type, "charge.") {
		var obj ChargeObject
		if err := json.Unmarshal(ev.Data.Object, &obj); err == nil {
			return obj.PaymentIntent
		}
	}
	return ""
}
