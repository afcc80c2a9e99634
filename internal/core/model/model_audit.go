package model

import "time"

/**
 * @file: model_audit.go
 * @description: append-only audit trail for token and alert lifecycle events
 */

// Audit actions.
const (
	AuditTokenIssue       = "token.issue"
	AuditTokenRedeem      = "token.redeem"
	AuditAlertOpen        = "alert.open"
	AuditAlertUpgrade     = "alert.upgrade"
	AuditAlertAcknowledge = "alert.acknowledge"
	AuditAlertResolve     = "alert.resolve"
)

type AuditRecord struct {
	BaseModel
	AuditID  string    `gorm:"column:audit_id;uniqueIndex" json:"auditId"`
	OrgID    string    `gorm:"column:org_id;index" json:"orgId"`
	Action   string    `gorm:"column:action;index" json:"action"`
	EntityID string    `gorm:"column:entity_id;index" json:"entityId"`
	Actor    string    `gorm:"column:actor" json:"actor"` // "system" for evaluator/intake paths
	Detail   string    `gorm:"column:detail;type:text" json:"detail"`
	At       time.Time `gorm:"column:at" json:"at"`
}

func (AuditRecord) TableName() string {
	return "t_audit_record"
}
