package model

import "time"

// Audit actions emitted by the inventory service, one per mutating operation.
const (
	AuditActionCreate          = "ticket_type.create"
	AuditActionUpdateGlobal    = "ticket_type.update"
	AuditActionUpdateStock     = "ticket_type.stock_update"
	AuditActionTransfer        = "ticket_type.transfer"
	AuditActionAddPackages     = "ticket_type.add_packages"
	AuditActionSetOpened       = "ticket_type.set_opened"
	AuditActionRemoveInventory = "ticket_type.remove_inventory"
	AuditActionDelete          = "ticket_type.delete"
)

// AuditEvent is the append-only trail record. Events are published to the
// audit queue fire-and-forget and persisted by the audit worker.
type AuditEvent struct {
	ID         int       `json:"id,omitempty" db:"id"`
	Action     string    `json:"action" db:"action"`
	ActorID    string    `json:"actor_id" db:"actor_id"`
	ActorName  string    `json:"actor_name" db:"actor_name"`
	TargetID   string    `json:"target_id" db:"target_id"`
	TargetType string    `json:"target_type" db:"target_type"`
	Details    string    `json:"details" db:"details"`
	KioskID    string    `json:"kiosk_id" db:"kiosk_id"`
	Timestamp  time.Time `json:"timestamp" db:"created_at"`
}
