package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionCreate  AuditAction = "create"
	AuditActionUpdate  AuditAction = "update"
	AuditActionApprove AuditAction = "approve"
	AuditActionReject  AuditAction = "reject"
	AuditActionVerify  AuditAction = "verify"
	AuditActionAssign  AuditAction = "assign"
)

// AuditLog is an append-only record of a state-changing operation. Rows are
// never updated or deleted.
type AuditLog struct {
	ID         uuid.UUID              `json:"id" db:"id"`
	ActorID    uuid.NullUUID          `json:"actor_id,omitempty" db:"actor_id"`
	Action     AuditAction            `json:"action" db:"action"`
	EntityType string                 `json:"entity_type" db:"entity_type"`
	EntityID   string                 `json:"entity_id" db:"entity_id"`
	Details    map[string]interface{} `json:"details" db:"-"`
	Timestamp  time.Time              `json:"timestamp" db:"timestamp"`
	IPAddress  string                 `json:"ip_address" db:"ip_address"`
}
