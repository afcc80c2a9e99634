package model

import "time"

/**
 * @file: model_response.go
 * @description: anonymous numeric response and comment rows
 */

// NumericResponse is one score for one driver. Append-only; carries no
// identifier tying it to an employee.
type NumericResponse struct {
	BaseModel
	ResponseID string    `gorm:"column:response_id;uniqueIndex" json:"responseId"`
	SurveyID   string    `gorm:"column:survey_id;index:idx_resp_survey_team" json:"surveyId"`
	TeamID     string    `gorm:"column:team_id;index:idx_resp_survey_team" json:"teamId"`
	DriverID   string    `gorm:"column:driver_id;index" json:"driverId"`
	Score      int       `gorm:"column:score" json:"score"` // integer in [0,10]
	Ts         time.Time `gorm:"column:ts" json:"ts"`
}

func (NumericResponse) TableName() string {
	return "t_numeric_response"
}

// Comment is a free-text response. Text is replaced by its masked form at
// ingest when the org enables PII masking.
type Comment struct {
	BaseModel
	CommentID string    `gorm:"column:comment_id;uniqueIndex" json:"commentId"`
	SurveyID  string    `gorm:"column:survey_id;index:idx_comment_survey_team" json:"surveyId"`
	TeamID    string    `gorm:"column:team_id;index:idx_comment_survey_team" json:"teamId"`
	DriverID  *string   `gorm:"column:driver_id" json:"driverId"`
	Text      string    `gorm:"column:text;type:text" json:"text"`
	Ts        time.Time `gorm:"column:ts" json:"ts"`
}

func (Comment) TableName() string {
	return "t_comment"
}

// Sentiment labels produced by the tagger.
const (
	SentimentPositive = "+"
	SentimentNeutral  = "0"
	SentimentNegative = "-"
)

// CommentNLP is the tagger output for one comment. A comment without this
// row is not counted by sentiment aggregation.
type CommentNLP struct {
	CommentID   string    `gorm:"column:comment_id;primaryKey" json:"commentId"`
	Sentiment   string    `gorm:"column:sentiment" json:"sentiment"`
	Themes      string    `gorm:"column:themes;type:text" json:"themes"` // JSON array of strings
	PiiMasked   bool      `gorm:"column:pii_masked" json:"piiMasked"`
	ProcessedAt time.Time `gorm:"column:processed_at" json:"processedAt"`
}

func (CommentNLP) TableName() string {
	return "t_comment_nlp"
}
