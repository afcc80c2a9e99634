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
	"gorm.io/gorm"
)

type IResponseRepository interface {
	CreateResponsesTx(tx *gorm.DB, rows []*model.NumericResponse) error
	// TeamsWithResponses lists team ids having at least one numeric
	// response for the survey.
	TeamsWithResponses(surveyID string) ([]string, error)
	// DriversWithResponses lists driver ids having at least one numeric
	// response for (survey, team).
	DriversWithResponses(surveyID, teamID string) ([]string, error)
	// Scores returns all scores for (survey, team, driver).
	Scores(surveyID, teamID, driverID string) ([]int, error)
	CountResponses(surveyID, teamID string) (int, error)
}

type ResponseRepo struct {
	database.IDatabase
}

func NewResponseRepo(db database.IDatabase) IResponseRepository {
	return &ResponseRepo{IDatabase: db}
}

func (r *ResponseRepo) CreateResponsesTx(tx *gorm.DB, rows []*model.NumericResponse) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 100).Error
}

func (r *ResponseRepo) TeamsWithResponses(surveyID string) ([]string, error) {
	var ids []string
	err := r.Database().Model(&model.NumericResponse{}).
		Where("survey_id = ?", surveyID).
		Distinct("team_id").
		Pluck("team_id", &ids).Error
	return ids, err
}

func (r *ResponseRepo) DriversWithResponses(surveyID, teamID string) ([]string, error) {
	var ids []string
	err := r.Database().Model(&model.NumericResponse{}).
		Where("survey_id = ? AND team_id = ?", surveyID, teamID).
		Distinct("driver_id").
		Pluck("driver_id", &ids).Error
	return ids, err
}

func (r *ResponseRepo) Scores(surveyID, teamID, driverID string) ([]int, error) {
	var scores []int
	err := r.Database().Model(&model.NumericResponse{}).
		Where("survey_id = ? AND team_id = ? AND driver_id = ?", surveyID, teamID, driverID).
		Pluck("score", &scores).Error
	return scores, err
}

func (r *ResponseRepo) CountResponses(surveyID, teamID string) (int, error) {
	var count int64
	err := r.Database().Model(&model.NumericResponse{}).
		Where("survey_id = ? AND team_id = ?", surveyID, teamID).
		Count(&count).Error
	return int(count), err
}
