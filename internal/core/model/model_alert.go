package model

import "time"

/**
 * @file: model_alert.go
 * @description: threshold alert with human lifecycle
 */

// Alert types.
const (
	AlertLowScore          = "LOW_SCORE"
	AlertBigDropAbs        = "BIG_DROP_ABS"
	AlertBigDropRel        = "BIG_DROP_REL"
	AlertEnpsNeg           = "ENPS_NEG"
	AlertLowParticipation  = "LOW_PARTICIPATION"
	AlertParticipationDrop = "PARTICIPATION_DROP"
	AlertNegSentSpike      = "NEG_SENT_SPIKE"
	AlertRecurring         = "RECURRING"
)

// Alert severities, ordered.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// SeverityRank orders severities for in-place upgrades.
func SeverityRank(s string) int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Alert statuses.
const (
	AlertStatusOpen         = "open"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// Alert is opened by the evaluator, mutated by human acknowledgement and
// resolution, never deleted.
type Alert struct {
	BaseModel
	AlertID         string     `gorm:"column:alert_id;uniqueIndex" json:"alertId"`
	OrgID           string     `gorm:"column:org_id;index" json:"orgId"`
	TeamID          string     `gorm:"column:team_id;index:idx_alert_scope" json:"teamId"`
	SurveyID        string     `gorm:"column:survey_id;index:idx_alert_scope" json:"surveyId"`
	DriverID        *string    `gorm:"column:driver_id" json:"driverId"`
	Type            string     `gorm:"column:type;index:idx_alert_scope" json:"type"`
	Severity        string     `gorm:"column:severity" json:"severity"`
	Status          string     `gorm:"column:status;index" json:"status"`
	Reason          string     `gorm:"column:reason" json:"reason"`
	CurrentValue    float64    `gorm:"column:current_value" json:"currentValue"`
	DeltaPrev       float64    `gorm:"column:delta_prev" json:"deltaPrev"`
	AcknowledgedAt  *time.Time `gorm:"column:acknowledged_at" json:"acknowledgedAt"`
	AcknowledgedBy  string     `gorm:"column:acknowledged_by" json:"acknowledgedBy"`
	ResolvedAt      *time.Time `gorm:"column:resolved_at" json:"resolvedAt"`
	ResolverID      string     `gorm:"column:resolver_id" json:"resolverId"`
	ResolutionNotes string     `gorm:"column:resolution_notes" json:"resolutionNotes"`
}

func (Alert) TableName() string {
	return "t_alert"
}

// Active reports whether the alert still demands attention.
func (a *Alert) Active() bool {
	return a.Status == AlertStatusOpen || a.Status == AlertStatusAcknowledged
}

// AlertEvent is the payload published on the alerts.<org_id> topic.
type AlertEvent struct {
	AlertID      string    `json:"alert_id"`
	Type         string    `json:"type"`
	Severity     string    `json:"severity"`
	TeamID       string    `json:"team_id"`
	SurveyID     string    `json:"survey_id"`
	Reason       string    `json:"reason"`
	CurrentValue float64   `json:"current_value"`
	DeltaPrev    float64   `json:"delta_prev"`
	CreatedAt    time.Time `json:"created_at"`
}
