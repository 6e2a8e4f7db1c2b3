package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewKey_DefaultsToInsert(t *testing.T) {
	t.Parallel()

	k := NewKey(SourceFeedPurchase, "tx-123")

	if k.EventType != EventTypeInsert {
		t.Errorf("event type: got %s, want %s", k.EventType, EventTypeInsert)
	}
	if k.SourceFeed != SourceFeedPurchase {
		t.Errorf("source feed: got %s, want %s", k.SourceFeed, SourceFeedPurchase)
	}
}

func TestKey_String(t *testing.T) {
	t.Parallel()

	k := NewKey(SourceFeedSale, "tx-9")
	want := "SALE:tx-9:INSERT"
	if got := k.String(); got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestKey_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        Key
		wantFields []string
	}{
		{
			name: "valid",
			key:  NewKey(SourceFeedPurchase, "tx-1"),
		},
		{
			name:       "unknown feed",
			key:        Key{SourceFeed: "SHIPMENT", TransactionID: "tx-1", EventType: EventTypeInsert},
			wantFields: []string{"source_feed"},
		},
		{
			name:       "missing transaction id",
			key:        Key{SourceFeed: SourceFeedSale, EventType: EventTypeInsert},
			wantFields: []string{"transaction_id"},
		},
		{
			name:       "everything wrong",
			key:        Key{},
			wantFields: []string{"source_feed", "transaction_id", "event_type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.key.Validate()
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if len(ve.Errors) != len(tt.wantFields) {
				t.Fatalf("field errors: got %d, want %d (%v)", len(ve.Errors), len(tt.wantFields), ve.Errors)
			}
			for i, f := range tt.wantFields {
				if ve.Errors[i].Field != f {
					t.Errorf("field[%d]: got %q, want %q", i, ve.Errors[i].Field, f)
				}
			}
		})
	}
}

func TestNewNotification_ExpiryAnchoredToTransactionTime(t *testing.T) {
	t.Parallel()

	txTime := time.Date(2025, 3, 10, 8, 30, 0, 0, time.UTC)
	tx := Transaction{
		ID:        "tx-42",
		CreatedAt: txTime,
		Payload:   json.RawMessage(`{"amount": 120}`),
	}

	n := NewNotification(SourceFeedPurchase, tx, 24*time.Hour)

	if !n.CreatedAt.Equal(txTime) {
		t.Errorf("CreatedAt: got %v, want transaction time %v", n.CreatedAt, txTime)
	}
	if want := txTime.Add(24 * time.Hour); !n.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt: got %v, want %v", n.ExpiresAt, want)
	}
	if n.IsTerminal() {
		t.Error("fresh notification must not be terminal")
	}
	if n.Key != NewKey(SourceFeedPurchase, "tx-42") {
		t.Errorf("key: got %v", n.Key)
	}
	if n.HandledAt != nil || n.HandledBy != nil {
		t.Error("HandledAt/HandledBy must be unset on creation")
	}
}

func TestNotificationState_IsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		handled   bool
		dismissed bool
		want      bool
	}{
		{"pending", false, false, false},
		{"handled", true, false, true},
		{"dismissed", false, true, true},
		{"both", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := NotificationState{IsHandled: tt.handled, IsDismissed: tt.dismissed}
			if got := n.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnums_IsValid(t *testing.T) {
	t.Parallel()

	if !SourceFeedPurchase.IsValid() || !SourceFeedSale.IsValid() {
		t.Error("known feeds must be valid")
	}
	if SourceFeed("REFUND").IsValid() {
		t.Error("unknown feed must be invalid")
	}
	if !EventTypeInsert.IsValid() || EventType("UPDATE").IsValid() {
		t.Error("only INSERT is a valid event type")
	}
	for _, a := range []AuditAction{AuditActionCreated, AuditActionHandled, AuditActionDismissed, AuditActionExpired, AuditActionPurged} {
		if !a.IsValid() {
			t.Errorf("action %s must be valid", a)
		}
	}
	if AuditAction("RESURRECTED").IsValid() {
		t.Error("unknown action must be invalid")
	}
}
