// Package model defines the syncable record types shared by the local store,
// the remote API client, and the sync engine.
//
// Every syncable entity embeds SyncMeta, which carries the record identity and
// synchronization lifecycle state. The sync engine treats the domain payload
// fields as opaque; only the seed guard inspects names and codes.
package model

import (
	"fmt"
	"time"
)

// SyncStatus tracks where a record is in the local-remote sync lifecycle.
//
// The state machine is:
//
//	pending_sync -> transmitted -> synced
//	pending_sync -> error -> pending_sync (external retry)
//	any -> deleted (soft delete, orders only)
//
// A transmitted record moves back to pending_sync only through a fresh local
// edit; the engine never does this on its own.
type SyncStatus string

const (
	// StatusPendingSync marks a local-only change awaiting transmission.
	StatusPendingSync SyncStatus = "pending_sync"

	// StatusTransmitted marks a record accepted by the remote API but not yet
	// confirmed back through an authoritative download.
	StatusTransmitted SyncStatus = "transmitted"

	// StatusSynced marks a record confirmed present in the remote dataset.
	StatusSynced SyncStatus = "synced"

	// StatusError marks a record whose last upload attempt failed.
	StatusError SyncStatus = "error"

	// StatusDeleted marks a soft-deleted record kept for audit.
	StatusDeleted SyncStatus = "deleted"
)

// Valid reports whether s is a member of the sync status enum.
func (s SyncStatus) Valid() bool {
	switch s {
	case StatusPendingSync, StatusTransmitted, StatusSynced, StatusError, StatusDeleted:
		return true
	}
	return false
}

// NormalizeStatus maps the empty status of legacy records to pending_sync.
// The engine's own write paths never persist an empty status.
func NormalizeStatus(s SyncStatus) SyncStatus {
	if s == "" {
		return StatusPendingSync
	}
	return s
}

// Table names used by the local store and the lifecycle tracker.
const (
	TableClients       = "clients"
	TableProducts      = "products"
	TablePaymentTables = "payment_tables"
	TableOrders        = "orders"
	TableSalesReps     = "sales_reps"
)

// SyncMeta is embedded in every syncable record.
type SyncMeta struct {
	// ID is globally unique. Client-generated (UUID) for records created
	// offline, server-assigned for records that only ever exist remotely.
	ID string `json:"id"`

	// SyncStatus is the record's position in the sync lifecycle.
	SyncStatus SyncStatus `json:"sync_status"`

	// UpdatedAt is stamped on every local mutation. Observability only; it is
	// never compared for conflict resolution.
	UpdatedAt time.Time `json:"updated_at"`
}

// Client is a customer record. Reference data: read-only on the device.
type Client struct {
	SyncMeta

	Name       string `json:"name"`
	Company    string `json:"company,omitempty"`
	Document   string `json:"document,omitempty"` // CNPJ/CPF
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	SalesRepID string `json:"sales_rep_id,omitempty"`
}

// Product is a sellable item. Reference data: read-only on the device.
type Product struct {
	SyncMeta

	Code     string  `json:"code"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit,omitempty"`
	Category string  `json:"category,omitempty"`
	Active   bool    `json:"active"`
}

// PaymentTable describes an accepted payment arrangement (installments,
// discounts). Reference data: read-only on the device.
type PaymentTable struct {
	SyncMeta

	Code         string  `json:"code"`
	Description  string  `json:"description"`
	Installments int     `json:"installments"`
	Discount     float64 `json:"discount,omitempty"`
}

// SalesRep identifies a field sales representative. Downloaded on request for
// device login scoping.
type SalesRep struct {
	SyncMeta

	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Code  string `json:"code,omitempty"`
}

// OrderStatus is the business status of an order, distinct from SyncStatus.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderProcessed OrderStatus = "processed"
	OrderCancelled OrderStatus = "cancelled"
	OrderDelivered OrderStatus = "delivered"
)

// OrderItem is a denormalized line item embedded in an order. Items are not a
// separate syncable entity locally, though the backend normalizes them.
type OrderItem struct {
	ProductID   string  `json:"product_id"`
	ProductCode string  `json:"product_code,omitempty"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	Total       float64 `json:"total"`
}

// Order is the only user-authored syncable entity. A cancelled order records
// a negative sale: a client visit with no purchase.
type Order struct {
	SyncMeta

	Code           string      `json:"code,omitempty"` // server-assigned on upload
	ClientID       string      `json:"client_id"`
	SalesRepID     string      `json:"sales_rep_id,omitempty"`
	Status         OrderStatus `json:"status"`
	Items          []OrderItem `json:"items,omitempty"`
	PaymentTableID string      `json:"payment_table_id,omitempty"`
	Total          float64     `json:"total"`
	Reason         string      `json:"reason,omitempty"` // required when cancelled
	Notes          string      `json:"notes,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ValidationError reports a record that cannot be transmitted as-is. It is
// raised before any network call so the record is marked error without a
// wasted round-trip.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// ValidateForUpload checks that an order is transmittable.
//
// Cancelled orders (negative sales) take the relaxed path: a reason is
// required, items and payment table are not. Every other order needs at least
// one item and a resolved payment table.
func (o *Order) ValidateForUpload() error {
	if o.ID == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if o.ClientID == "" {
		return &ValidationError{Field: "client_id", Reason: "is required"}
	}

	if o.Status == OrderCancelled {
		if o.Reason == "" {
			return &ValidationError{Field: "reason", Reason: "is required for cancelled orders"}
		}
		return nil
	}

	if len(o.Items) == 0 {
		return &ValidationError{Field: "items", Reason: "must not be empty"}
	}
	if o.PaymentTableID == "" {
		return &ValidationError{Field: "payment_table_id", Reason: "is required"}
	}
	return nil
}
