package model

import (
	"errors"
	"testing"
	"time"
)

func TestSyncStatusValid(t *testing.T) {
	valid := []SyncStatus{StatusPendingSync, StatusTransmitted, StatusSynced, StatusError, StatusDeleted}
	for _, s := range valid {
		if !s.Valid() {
			t.Errorf("expected %q to be valid", s)
		}
	}

	invalid := []SyncStatus{"", "pending", "SYNCED", "unknown"}
	for _, s := range invalid {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	if got := NormalizeStatus(""); got != StatusPendingSync {
		t.Errorf("empty status: got %q, want %q", got, StatusPendingSync)
	}
	if got := NormalizeStatus(StatusSynced); got != StatusSynced {
		t.Errorf("synced status: got %q, want %q", got, StatusSynced)
	}
}

func baseOrder() Order {
	return Order{
		SyncMeta: SyncMeta{ID: "o1", SyncStatus: StatusPendingSync},
		ClientID: "c1",
		Status:   OrderPending,
		Items: []OrderItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: 10, Total: 20},
		},
		PaymentTableID: "pt1",
		Total:          20,
		CreatedAt:      time.Now(),
	}
}

func TestValidateForUpload(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Order)
		wantField string
	}{
		{
			name:   "valid order",
			modify: func(o *Order) {},
		},
		{
			name:      "missing id",
			modify:    func(o *Order) { o.ID = "" },
			wantField: "id",
		},
		{
			name:      "missing client",
			modify:    func(o *Order) { o.ClientID = "" },
			wantField: "client_id",
		},
		{
			name:      "no items",
			modify:    func(o *Order) { o.Items = nil },
			wantField: "items",
		},
		{
			name:      "no payment table",
			modify:    func(o *Order) { o.PaymentTableID = "" },
			wantField: "payment_table_id",
		},
		{
			name: "cancelled with reason needs no items",
			modify: func(o *Order) {
				o.Status = OrderCancelled
				o.Reason = "customer closed"
				o.Items = nil
				o.PaymentTableID = ""
			},
		},
		{
			name: "cancelled without reason",
			modify: func(o *Order) {
				o.Status = OrderCancelled
				o.Items = nil
			},
			wantField: "reason",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := baseOrder()
			tt.modify(&o)

			err := o.ValidateForUpload()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("got field %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}
