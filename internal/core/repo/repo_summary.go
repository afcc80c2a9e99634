// Copyright 2025 Pulse Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package repo

import (
	"time"

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ISummaryRepository owns the rebuilt aggregate rows. Upserts target the
// composite unique keys so duplicate job runs converge on the same row.
type ISummaryRepository interface {
	UpsertParticipation(s *model.ParticipationSummary) error
	GetParticipation(surveyID, teamID string) (*model.ParticipationSummary, error)
	ListParticipationBySurvey(surveyID string) ([]*model.ParticipationSummary, error)

	UpsertDriverSummary(s *model.DriverSummary) error
	GetDriverSummary(surveyID, teamID, driverID string) (*model.DriverSummary, error)
	ListDriverSummaries(surveyID, teamID string) ([]*model.DriverSummary, error)
	ListDriverSummariesBySurvey(surveyID string) ([]*model.DriverSummary, error)

	UpsertSentiment(s *model.SentimentSummary) error
	GetSentiment(surveyID, teamID string) (*model.SentimentSummary, error)

	UpsertTrend(t *model.OrgDriverTrend) error
	// TrendSeries returns points for the teams, newest month last.
	TrendSeries(teamIDs []string, fromMonth time.Time) ([]*model.OrgDriverTrend, error)
}

type SummaryRepo struct {
	database.IDatabase
}

func NewSummaryRepo(db database.IDatabase) ISummaryRepository {
	return &SummaryRepo{IDatabase: db}
}

func (r *SummaryRepo) UpsertParticipation(s *model.ParticipationSummary) error {
	return r.Database().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "survey_id"}, {Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"respondents", "team_size", "participation_pct", "delta_pct", "updated_at"}),
	}).Create(s).Error
}

func (r *SummaryRepo) GetParticipation(surveyID, teamID string) (*model.ParticipationSummary, error) {
	var s model.ParticipationSummary
	err := r.Database().
		Where("survey_id = ? AND team_id = ?", surveyID, teamID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SummaryRepo) ListParticipationBySurvey(surveyID string) ([]*model.ParticipationSummary, error) {
	var rows []*model.ParticipationSummary
	err := r.Database().
		Where("survey_id = ?", surveyID).
		Order("team_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *SummaryRepo) UpsertDriverSummary(s *model.DriverSummary) error {
	return r.Database().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "survey_id"}, {Name: "team_id"}, {Name: "driver_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"avg_score", "detractors_pct", "passives_pct", "promoters_pct", "delta_vs_prev", "updated_at"}),
	}).Create(s).Error
}

func (r *SummaryRepo) GetDriverSummary(surveyID, teamID, driverID string) (*model.DriverSummary, error) {
	var s model.DriverSummary
	err := r.Database().
		Where("survey_id = ? AND team_id = ? AND driver_id = ?", surveyID, teamID, driverID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SummaryRepo) ListDriverSummaries(surveyID, teamID string) ([]*model.DriverSummary, error) {
	var rows []*model.DriverSummary
	err := r.Database().
		Where("survey_id = ? AND team_id = ?", surveyID, teamID).
		Order("driver_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *SummaryRepo) ListDriverSummariesBySurvey(surveyID string) ([]*model.DriverSummary, error) {
	var rows []*model.DriverSummary
	err := r.Database().
		Where("survey_id = ?", surveyID).
		Order("team_id ASC, driver_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *SummaryRepo) UpsertSentiment(s *model.SentimentSummary) error {
	return r.Database().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "survey_id"}, {Name: "team_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pos_pct", "neu_pct", "neg_pct", "delta_vs_prev", "updated_at"}),
	}).Create(s).Error
}

func (r *SummaryRepo) GetSentiment(surveyID, teamID string) (*model.SentimentSummary, error) {
	var s model.SentimentSummary
	err := r.Database().
		Where("survey_id = ? AND team_id = ?", surveyID, teamID).
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SummaryRepo) UpsertTrend(t *model.OrgDriverTrend) error {
	return r.Database().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "driver_id"}, {Name: "period_month"}},
		DoUpdates: clause.AssignmentColumns([]string{"avg_score", "updated_at"}),
	}).Create(t).Error
}

func (r *SummaryRepo) TrendSeries(teamIDs []string, fromMonth time.Time) ([]*model.OrgDriverTrend, error) {
	if len(teamIDs) == 0 {
		return nil, nil
	}
	var rows []*model.OrgDriverTrend
	err := r.Database().
		Where("team_id IN ? AND period_month >= ?", teamIDs, fromMonth).
		Order("period_month ASC, team_id ASC, driver_id ASC").
		Find(&rows).Error
	return rows, err
}
