package payment

import (
	"encoding/json"
	"errors"
	"fmt"
)

type EventType string

const (
	EventPaymentSucceeded EventType = "payment.succeeded"
	EventPaymentFailed    EventType = "payment.failed"
	EventCheckoutCreated  EventType = "checkout.created"
)

var (
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrUnsupportedEvent = errors.New("unsupported webhook event")
)

type Event struct {
	ID   string          `json:"id"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

type EventData struct {
	BookingID int64  `json:"booking_id"`
	ChargeID  string `json:"charge_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// ParseEvent decodes a webhook body and checks the fields each event type
// needs.
func ParseEvent(body []byte) (*Event, *EventData, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.ID == "" || len(ev.Data) == 0 {
		return nil, nil, ErrMalformedEvent
	}

	var data EventData
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if data.BookingID <= 0 {
		return nil, nil, fmt.Errorf("%w: booking_id is required", ErrMalformedEvent)
	}

	switch ev.Type {
	case EventPaymentSucceeded:
		if data.ChargeID == "" {
			return nil, nil, fmt.Errorf("%w: charge_id is required", ErrMalformedEvent)
		}
	case EventPaymentFailed:
	case EventCheckoutCreated:
		if data.SessionID == "" {
			return nil, nil, fmt.Errorf("%w: session_id is required", ErrMalformedEvent)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.Type)
	}

	return &ev, &data, nil
}
