package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionConfirmOrder  = "CONFIRM_ORDER"
	ActionDeductStock   = "DEDUCT_STOCK"
	ActionIssueInvoice  = "ISSUE_INVOICE"
	ActionResetSequence = "RESET_SEQUENCE"
)

// AuditFilter narrows an audit listing. Empty fields match everything.
type AuditFilter struct {
	Action   string
	EntityID string
}

// AuditLog tracks Who, What, and When for order finalization steps
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable when triggered by checkout
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
