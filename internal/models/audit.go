package models

import "time"

// Audit actions recorded for every mutating call.
const (
	AuditActionCreate = "CREATE"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
)

// Audited entity types.
const (
	AuditEntityStudent   = "student"
	AuditEntityProcedure = "procedure"
	AuditEntityInvoice   = "invoice"
	AuditEntityProgram   = "program"
	AuditEntityUser      = "user"
	AuditEntityParent    = "parent_link"
	AuditEntitySession   = "session"
)

// AuditLog is an append-only audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	Action     string    `db:"action" json:"action"`
	UserID     *int64    `db:"user_id" json:"user_id,omitempty"`
	UserName   *string   `db:"user_name" json:"user_name,omitempty"`
	Details    string    `db:"details" json:"details"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditLogFilter constrains audit log listing.
type AuditLogFilter struct {
	EntityType string
	Action     string
	Limit      int
}
