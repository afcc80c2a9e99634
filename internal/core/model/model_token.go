package model

import "time"

/**
 * @file: model_token.go
 * @description: one-time anonymous survey token
 */

// SurveyToken is the single-use redemption record for one invitation.
// Only the peppered hash is ever stored; the plaintext exists once,
// in the issuance response.
type SurveyToken struct {
	BaseModel
	TokenHash         string     `gorm:"column:token_hash;uniqueIndex" json:"-"`
	SurveyID          string     `gorm:"column:survey_id;index:idx_token_survey_team" json:"surveyId"`
	TeamID            string     `gorm:"column:team_id;index:idx_token_survey_team" json:"teamId"`
	EmployeeID        string     `gorm:"column:employee_id" json:"-"` // optional binding, never joined to responses
	IssuedAt          time.Time  `gorm:"column:issued_at" json:"issuedAt"`
	ExpiresAt         time.Time  `gorm:"column:expires_at" json:"expiresAt"`
	Used              bool       `gorm:"column:used" json:"used"`
	UsedAt            *time.Time `gorm:"column:used_at" json:"usedAt"`
	DeviceFingerprint string     `gorm:"column:device_fingerprint" json:"-"`
	IP                string     `gorm:"column:ip" json:"-"`
	UA                string     `gorm:"column:ua" json:"-"`
}

func (SurveyToken) TableName() string {
	return "t_survey_token"
}

// Expired reports whether the token itself has lapsed at now.
func (t *SurveyToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// RedemptionMeta is the client metadata recorded on the token row on use.
// It is never copied onto response rows.
type RedemptionMeta struct {
	DeviceFingerprint string
	IP                string
	UA                string
}
