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
)

type IAlertRepository interface {
	CreateAlert(a *model.Alert) error
	GetAlertByID(alertID string) (*model.Alert, error)
	// FindActive returns the open or acknowledged alert for
	// (team, survey, type), if any. Used for deduplication.
	FindActive(teamID, surveyID, alertType string) (*model.Alert, error)
	ListActiveByScope(teamID, surveyID string) ([]*model.Alert, error)
	ListActiveByOrg(orgID string) ([]*model.Alert, error)
	CountActiveByOrg(orgID string) (int, error)
	UpdateAlert(alertID string, updates map[string]interface{}) error
}

type AlertRepo struct {
	database.IDatabase
}

func NewAlertRepo(db database.IDatabase) IAlertRepository {
	return &AlertRepo{IDatabase: db}
}

func (r *AlertRepo) CreateAlert(a *model.Alert) error {
	return r.Database().Create(a).Error
}

func (r *AlertRepo) GetAlertByID(alertID string) (*model.Alert, error) {
	var a model.Alert
	err := r.Database().Where("alert_id = ?", alertID).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepo) FindActive(teamID, surveyID, alertType string) (*model.Alert, error) {
	var a model.Alert
	err := r.Database().
		Where("team_id = ? AND survey_id = ? AND type = ?", teamID, surveyID, alertType).
		Where("status IN ?", []string{model.AlertStatusOpen, model.AlertStatusAcknowledged}).
		First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepo) ListActiveByScope(teamID, surveyID string) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := r.Database().
		Where("team_id = ? AND survey_id = ?", teamID, surveyID).
		Where("status IN ?", []string{model.AlertStatusOpen, model.AlertStatusAcknowledged}).
		Find(&alerts).Error
	return alerts, err
}

func (r *AlertRepo) ListActiveByOrg(orgID string) ([]*model.Alert, error) {
	var alerts []*model.Alert
	err := r.Database().
		Where("org_id = ?", orgID).
		Where("status IN ?", []string{model.AlertStatusOpen, model.AlertStatusAcknowledged}).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

func (r *AlertRepo) CountActiveByOrg(orgID string) (int, error) {
	var count int64
	err := r.Database().Model(&model.Alert{}).
		Where("org_id = ?", orgID).
		Where("status IN ?", []string{model.AlertStatusOpen, model.AlertStatusAcknowledged}).
		Count(&count).Error
	return int(count), err
}

func (r *AlertRepo) UpdateAlert(alertID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return r.Database().Model(&model.Alert{}).
		Where("alert_id = ?", alertID).
		Updates(updates).Error
}
