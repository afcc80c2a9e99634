package model

import "time"

/**
 * @file: model_summary.go
 * @description: rebuilt aggregation rows (participation, driver, sentiment, trend)
 */

// ParticipationSummary is keyed by (survey, team) and idempotently rebuilt
// by job A. DeltaPct compares against the most recent prior survey of the
// same org with responses for this team.
type ParticipationSummary struct {
	BaseModel
	SurveyID         string  `gorm:"column:survey_id;index:idx_part_key,unique" json:"surveyId"`
	TeamID           string  `gorm:"column:team_id;index:idx_part_key,unique" json:"teamId"`
	Respondents      int     `gorm:"column:respondents" json:"respondents"`
	TeamSize         int     `gorm:"column:team_size" json:"teamSize"`
	ParticipationPct float64 `gorm:"column:participation_pct" json:"participationPct"`
	DeltaPct         float64 `gorm:"column:delta_pct" json:"deltaPct"`
}

func (ParticipationSummary) TableName() string {
	return "t_participation_summary"
}

// DriverSummary is keyed by (survey, team, driver) and rebuilt by job B.
// Percentages sum to 100 within rounding.
type DriverSummary struct {
	BaseModel
	SurveyID      string  `gorm:"column:survey_id;index:idx_driver_sum_key,unique" json:"surveyId"`
	TeamID        string  `gorm:"column:team_id;index:idx_driver_sum_key,unique" json:"teamId"`
	DriverID      string  `gorm:"column:driver_id;index:idx_driver_sum_key,unique" json:"driverId"`
	AvgScore      float64 `gorm:"column:avg_score" json:"avgScore"`
	DetractorsPct float64 `gorm:"column:detractors_pct" json:"detractorsPct"`
	PassivesPct   float64 `gorm:"column:passives_pct" json:"passivesPct"`
	PromotersPct  float64 `gorm:"column:promoters_pct" json:"promotersPct"`
	DeltaVsPrev   float64 `gorm:"column:delta_vs_prev" json:"deltaVsPrev"`
}

func (DriverSummary) TableName() string {
	return "t_driver_summary"
}

// ENPS returns promoters minus detractors for this row.
func (d *DriverSummary) ENPS() float64 {
	return d.PromotersPct - d.DetractorsPct
}

// SentimentSummary is keyed by (survey, team) and rebuilt by job C over
// comments that have a CommentNLP row. DeltaVsPrev tracks negative share.
type SentimentSummary struct {
	BaseModel
	SurveyID    string  `gorm:"column:survey_id;index:idx_sent_key,unique" json:"surveyId"`
	TeamID      string  `gorm:"column:team_id;index:idx_sent_key,unique" json:"teamId"`
	PosPct      float64 `gorm:"column:pos_pct" json:"posPct"`
	NeuPct      float64 `gorm:"column:neu_pct" json:"neuPct"`
	NegPct      float64 `gorm:"column:neg_pct" json:"negPct"`
	DeltaVsPrev float64 `gorm:"column:delta_vs_prev" json:"deltaVsPrev"`
}

func (SentimentSummary) TableName() string {
	return "t_sentiment_summary"
}

// OrgDriverTrend folds driver summaries into one point per
// (team, driver, month). The last survey of the month wins.
type OrgDriverTrend struct {
	BaseModel
	TeamID      string    `gorm:"column:team_id;index:idx_trend_key,unique" json:"teamId"`
	DriverID    string    `gorm:"column:driver_id;index:idx_trend_key,unique" json:"driverId"`
	PeriodMonth time.Time `gorm:"column:period_month;index:idx_trend_key,unique" json:"periodMonth"`
	AvgScore    float64   `gorm:"column:avg_score" json:"avgScore"`
}

func (OrgDriverTrend) TableName() string {
	return "t_org_driver_trend"
}
