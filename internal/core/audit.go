package core

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited.
type AuditAction string

const (
	ActionImport        AuditAction = "import"
	ActionBatchImport   AuditAction = "batch_import"
	ActionAdminTransfer AuditAction = "admin_transfer"
	ActionAdminClear    AuditAction = "admin_clear"
	ActionWithdraw      AuditAction = "withdraw"
)

// AuditEntry records one mutating engine operation.
type AuditEntry struct {
	ID        string      `json:"id"`
	Action    AuditAction `json:"action"`
	Actor     Address     `json:"actor"`
	Registry  Address     `json:"registry"`
	OriginTag string      `json:"originTag,omitempty"`
	BatchID   string      `json:"batchId,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Affected  int         `json:"affected,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// newAuditEntry builds an entry with a fresh id and timestamp.
func newAuditEntry(action AuditAction, actor, registry Address, at time.Time) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Registry:  registry,
		CreatedAt: at,
	}
}
