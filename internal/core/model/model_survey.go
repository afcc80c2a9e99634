package model

import "time"

/**
 * @file: model_survey.go
 * @description: survey, driver and question table models
 */

// Survey status values.
const (
	SurveyStatusDraft  = "draft"
	SurveyStatusActive = "active"
	SurveyStatusClosed = "closed"
)

type Survey struct {
	BaseModel
	SurveyID string    `gorm:"column:survey_id;uniqueIndex" json:"surveyId"`
	OrgID    string    `gorm:"column:org_id;index" json:"orgId"`
	Title    string    `gorm:"column:title" json:"title"`
	Status   string    `gorm:"column:status" json:"status"`
	OpensAt  time.Time `gorm:"column:opens_at" json:"opensAt"`
	ClosesAt time.Time `gorm:"column:closes_at" json:"closesAt"`
}

func (Survey) TableName() string {
	return "t_survey"
}

// AcceptsSubmissions reports whether the survey window is open at now.
// Both the status and the closes_at bound must pass.
func (s *Survey) AcceptsSubmissions(now time.Time) bool {
	if s.Status != SurveyStatusActive {
		return false
	}
	if !s.OpensAt.IsZero() && now.Before(s.OpensAt) {
		return false
	}
	if !s.ClosesAt.IsZero() && now.After(s.ClosesAt) {
		return false
	}
	return true
}

// PeriodMonth returns the first day of the month the survey opened in (UTC).
func (s *Survey) PeriodMonth() time.Time {
	t := s.OpensAt.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Driver is a named dimension (e.g. "recognition") questions score against.
type Driver struct {
	BaseModel
	DriverID string `gorm:"column:driver_id;uniqueIndex" json:"driverId"`
	OrgID    string `gorm:"column:org_id;index:idx_driver_org_key,unique" json:"orgId"`
	Key      string `gorm:"column:key;index:idx_driver_org_key,unique" json:"key"` // lowercase snake_case
	Label    string `gorm:"column:label" json:"label"`
}

func (Driver) TableName() string {
	return "t_driver"
}

// Question types.
const (
	QuestionTypeNumeric = "numeric" // score 0..10
	QuestionTypeChoice  = "choice"
	QuestionTypeText    = "text"
)

type Question struct {
	BaseModel
	QuestionID string `gorm:"column:question_id;uniqueIndex" json:"questionId"`
	SurveyID   string `gorm:"column:survey_id;index" json:"surveyId"`
	DriverID   string `gorm:"column:driver_id;index" json:"driverId"`
	Text       string `gorm:"column:text" json:"text"`
	Type       string `gorm:"column:type" json:"type"`
	Required   bool   `gorm:"column:required" json:"required"`
}

func (Question) TableName() string {
	return "t_question"
}
