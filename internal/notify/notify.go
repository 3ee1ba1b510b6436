// Package notify delivers domain events to the notification backend.
// Delivery is fire-and-forget: the ledger and transaction services publish
// after their own state transition has committed, log failures and never
// roll back because a notification could not be sent.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event kinds published by the core.
const (
	KindPaymentRecorded    = "payment_recorded"
	KindLoanPaidOff        = "loan_paid_off"
	KindTransactionCreated = "transaction_created"
	KindTransactionDeleted = "transaction_deleted"
	KindBillDue            = "bill_due"
)

// Event is the wire shape for a notification.
type Event struct {
	Kind      string          `json:"kind"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEvent builds an event with the payload marshaled in place.
func NewEvent(kind string, payload any) (Event, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Event{Kind: kind, Timestamp: time.Now(), Payload: body}, nil
}

// ToJSON converts the event to its wire bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON parses an event from wire bytes.
func EventFromJSON(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Notifier is the collaborator interface consumed by the services.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Noop discards every event. Used when AMQP is not configured.
type Noop struct{}

func (Noop) Notify(context.Context, Event) error { return nil }
