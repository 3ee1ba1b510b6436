package notify

import (
	"context"
	"testing"
)

func TestNewEventCarriesPayload(t *testing.T) {
	e, err := NewEvent(KindPaymentRecorded, map[string]any{"loan_id": "abc", "amount": "16184.10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Kind != KindPaymentRecorded {
		t.Fatalf("unexpected kind %q", e.Kind)
	}
	if e.Timestamp.IsZero() {
		t.Fatalf("timestamp not set")
	}

	data, err := e.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back, err := EventFromJSON(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back.Kind != e.Kind || string(back.Payload) != string(e.Payload) {
		t.Fatalf("round trip changed event: %+v vs %+v", e, back)
	}
}

func TestNewEventRejectsUnmarshalablePayload(t *testing.T) {
	if _, err := NewEvent(KindBillDue, make(chan int)); err == nil {
		t.Fatalf("expected error for unmarshalable payload")
	}
}

func TestNoopAcceptsEverything(t *testing.T) {
	e, _ := NewEvent(KindTransactionCreated, nil)
	if err := (Noop{}).Notify(context.Background(), e); err != nil {
		t.Fatalf("noop must not fail: %v", err)
	}
}
