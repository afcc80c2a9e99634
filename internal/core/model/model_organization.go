package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

/**
 * @file: model_organization.go
 * @description: organization table model
 */

// DefaultMinN is the minimum respondent count revealing aggregates
// when an organization has not configured its own threshold.
const DefaultMinN = 4

// DefaultSafeFallbackMessage is returned in place of suppressed aggregates
// when an organization has not configured its own message.
const DefaultSafeFallbackMessage = "Not enough responses to show results"

// Organization is the tenant owning teams, surveys, and settings.
type Organization struct {
	BaseModel
	OrgID               string         `gorm:"column:org_id;uniqueIndex" json:"orgId"`
	Name                string         `gorm:"column:name" json:"name"`
	MinN                int            `gorm:"column:min_n;default:4" json:"minN"`
	PiiMaskingEnabled   bool           `gorm:"column:pii_masking_enabled" json:"piiMaskingEnabled"`
	SafeFallbackMessage string         `gorm:"column:safe_fallback_message" json:"safeFallbackMessage"`
	Thresholds          datatypes.JSON `gorm:"column:thresholds;type:json" json:"thresholds"` // partial AlertThresholdOverrides
}

func (Organization) TableName() string {
	return "t_organization"
}

// EffectiveMinN returns the configured min-n, never below 1.
func (o *Organization) EffectiveMinN() int {
	if o.MinN < 1 {
		return DefaultMinN
	}
	return o.MinN
}

// FallbackMessage returns the configured safe-fallback message or the default.
func (o *Organization) FallbackMessage() string {
	if o.SafeFallbackMessage == "" {
		return DefaultSafeFallbackMessage
	}
	return o.SafeFallbackMessage
}

// AlertThresholds holds the resolved alert trigger levels for an org.
// Percentage fields are in [0,100]; BigDropRel is a fraction of the prior
// average (0.85 means a 15% relative drop triggers).
type AlertThresholds struct {
	LowScore          float64 `json:"low_score"`
	BigDropAbs        float64 `json:"big_drop_abs"`
	BigDropRel        float64 `json:"big_drop_rel"`
	EnpsNegative      float64 `json:"enps_negative"`
	LowParticipation  float64 `json:"low_participation"`
	ParticipationDrop float64 `json:"participation_drop"`
	NegSentimentSpike float64 `json:"neg_sentiment_spike"`
	RecurringCount    int     `json:"recurring_count"`
}

// DefaultAlertThresholds returns the platform defaults.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		LowScore:          6.0,
		BigDropAbs:        1.0,
		BigDropRel:        0.85,
		EnpsNegative:      0,
		LowParticipation:  60.0,
		ParticipationDrop: 20.0,
		NegSentimentSpike: 30.0,
		RecurringCount:    3,
	}
}

// AlertThresholdOverrides is the partial form stored on the org row.
type AlertThresholdOverrides struct {
	LowScore          *float64 `json:"low_score,omitempty"`
	BigDropAbs        *float64 `json:"big_drop_abs,omitempty"`
	BigDropRel        *float64 `json:"big_drop_rel,omitempty"`
	EnpsNegative      *float64 `json:"enps_negative,omitempty"`
	LowParticipation  *float64 `json:"low_participation,omitempty"`
	ParticipationDrop *float64 `json:"participation_drop,omitempty"`
	NegSentimentSpike *float64 `json:"neg_sentiment_spike,omitempty"`
	RecurringCount    *int     `json:"recurring_count,omitempty"`
}

// EffectiveThresholds overlays the org overrides on the defaults.
// Malformed override JSON falls back to the defaults.
func (o *Organization) EffectiveThresholds() AlertThresholds {
	t := DefaultAlertThresholds()
	if len(o.Thresholds) == 0 {
		return t
	}
	var ov AlertThresholdOverrides
	if err := json.Unmarshal(o.Thresholds, &ov); err != nil {
		return t
	}
	if ov.LowScore != nil {
		t.LowScore = *ov.LowScore
	}
	if ov.BigDropAbs != nil {
		t.BigDropAbs = *ov.BigDropAbs
	}
	if ov.BigDropRel != nil {
		t.BigDropRel = *ov.BigDropRel
	}
	if ov.EnpsNegative != nil {
		t.EnpsNegative = *ov.EnpsNegative
	}
	if ov.LowParticipation != nil {
		t.LowParticipation = *ov.LowParticipation
	}
	if ov.ParticipationDrop != nil {
		t.ParticipationDrop = *ov.ParticipationDrop
	}
	if ov.NegSentimentSpike != nil {
		t.NegSentimentSpike = *ov.NegSentimentSpike
	}
	if ov.RecurringCount != nil && *ov.RecurringCount > 0 {
		t.RecurringCount = *ov.RecurringCount
	}
	return t
}
