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
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type ISurveyRepository interface {
	CreateSurvey(s *model.Survey) error
	UpdateSurveyStatus(surveyID, status string) error
	GetSurveyByID(surveyID string) (*model.Survey, error)
	ListActiveSurveys() ([]*model.Survey, error)
	ListSurveysByOrg(orgID string) ([]*model.Survey, error)
	// PriorSurveyWithResponses returns the most recent survey of the same
	// org that opened before the given one and has responses for the team.
	PriorSurveyWithResponses(current *model.Survey, teamID string) (*model.Survey, error)
	// LatestSurvey returns the newest survey of the org by opens_at.
	LatestSurvey(orgID string) (*model.Survey, error)
	// LatestSurveyWithResponses returns the newest survey of the org with
	// responses for the team.
	LatestSurveyWithResponses(orgID, teamID string) (*model.Survey, error)
	// RecentSurveysWithResponses lists up to n org surveys with responses
	// for the team, newest first.
	RecentSurveysWithResponses(orgID, teamID string, n int) ([]*model.Survey, error)

	CreateDriver(d *model.Driver) error
	ListDriversByOrg(orgID string) ([]*model.Driver, error)
	CreateQuestion(q *model.Question) error
	ListQuestions(surveyID string) ([]*model.Question, error)
	// SurveyDriverIDs returns the set of driver ids bound to the survey
	// through its questions.
	SurveyDriverIDs(surveyID string) (map[string]struct{}, error)
}

type SurveyRepo struct {
	database.IDatabase
}

func NewSurveyRepo(db database.IDatabase) ISurveyRepository {
	return &SurveyRepo{IDatabase: db}
}

func (r *SurveyRepo) CreateSurvey(s *model.Survey) error {
	return r.Database().Create(s).Error
}

func (r *SurveyRepo) UpdateSurveyStatus(surveyID, status string) error {
	return r.Database().Model(&model.Survey{}).
		Where("survey_id = ?", surveyID).
		Update("status", status).Error
}

func (r *SurveyRepo) GetSurveyByID(surveyID string) (*model.Survey, error) {
	var s model.Survey
	err := r.Database().Where("survey_id = ?", surveyID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SurveyRepo) ListActiveSurveys() ([]*model.Survey, error) {
	var surveys []*model.Survey
	err := r.Database().
		Where("status = ?", model.SurveyStatusActive).
		Order("opens_at ASC").
		Find(&surveys).Error
	return surveys, err
}

func (r *SurveyRepo) ListSurveysByOrg(orgID string) ([]*model.Survey, error) {
	var surveys []*model.Survey
	err := r.Database().
		Where("org_id = ?", orgID).
		Order("opens_at DESC").
		Find(&surveys).Error
	return surveys, err
}

func (r *SurveyRepo) PriorSurveyWithResponses(current *model.Survey, teamID string) (*model.Survey, error) {
	var s model.Survey
	err := r.Database().
		Where("org_id = ? AND opens_at < ?", current.OrgID, current.OpensAt).
		Where("survey_id <> ?", current.SurveyID).
		Where("EXISTS (SELECT 1 FROM t_numeric_response nr WHERE nr.survey_id = t_survey.survey_id AND nr.team_id = ?)", teamID).
		Order("opens_at DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SurveyRepo) LatestSurvey(orgID string) (*model.Survey, error) {
	var s model.Survey
	err := r.Database().
		Where("org_id = ?", orgID).
		Order("opens_at DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SurveyRepo) LatestSurveyWithResponses(orgID, teamID string) (*model.Survey, error) {
	var s model.Survey
	err := r.Database().
		Where("org_id = ?", orgID).
		Where("EXISTS (SELECT 1 FROM t_numeric_response nr WHERE nr.survey_id = t_survey.survey_id AND nr.team_id = ?)", teamID).
		Order("opens_at DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SurveyRepo) RecentSurveysWithResponses(orgID, teamID string, n int) ([]*model.Survey, error) {
	var surveys []*model.Survey
	err := r.Database().
		Where("org_id = ?", orgID).
		Where("EXISTS (SELECT 1 FROM t_numeric_response nr WHERE nr.survey_id = t_survey.survey_id AND nr.team_id = ?)", teamID).
		Order("opens_at DESC").
		Limit(n).
		Find(&surveys).Error
	return surveys, err
}

func (r *SurveyRepo) CreateDriver(d *model.Driver) error {
	return r.Database().Create(d).Error
}

func (r *SurveyRepo) ListDriversByOrg(orgID string) ([]*model.Driver, error) {
	var drivers []*model.Driver
	err := r.Database().
		Where("org_id = ?", orgID).
		Order("`key` ASC").
		Find(&drivers).Error
	return drivers, err
}

func (r *SurveyRepo) CreateQuestion(q *model.Question) error {
	return r.Database().Create(q).Error
}

func (r *SurveyRepo) ListQuestions(surveyID string) ([]*model.Question, error) {
	var questions []*model.Question
	err := r.Database().
		Where("survey_id = ?", surveyID).
		Order("question_id ASC").
		Find(&questions).Error
	return questions, err
}

func (r *SurveyRepo) SurveyDriverIDs(surveyID string) (map[string]struct{}, error) {
	var ids []string
	err := r.Database().Model(&model.Question{}).
		Where("survey_id = ? AND driver_id <> ''", surveyID).
		Distinct("driver_id").
		Pluck("driver_id", &ids).Error
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
