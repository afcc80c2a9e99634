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
	"gorm.io/gorm/clause"
)

type IReportsCacheRepository interface {
	GetDigest(orgID, scope string, period model.Period) (*model.ReportsCache, error)
	// PutDigest replaces the digest row whole; partial updates are never
	// performed on cache payloads.
	PutDigest(row *model.ReportsCache) error
	DeleteDigest(orgID, scope string, period model.Period) error
}

type ReportsCacheRepo struct {
	database.IDatabase
}

func NewReportsCacheRepo(db database.IDatabase) IReportsCacheRepository {
	return &ReportsCacheRepo{IDatabase: db}
}

func (r *ReportsCacheRepo) GetDigest(orgID, scope string, period model.Period) (*model.ReportsCache, error) {
	var row model.ReportsCache
	err := r.Database().
		Where("org_id = ? AND scope = ? AND period_start = ? AND period_end = ?",
			orgID, scope, period.Start, period.End).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *ReportsCacheRepo) PutDigest(row *model.ReportsCache) error {
	return r.Database().Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "org_id"}, {Name: "scope"},
			{Name: "period_start"}, {Name: "period_end"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(row).Error
}

func (r *ReportsCacheRepo) DeleteDigest(orgID, scope string, period model.Period) error {
	return r.Database().
		Where("org_id = ? AND scope = ? AND period_start = ? AND period_end = ?",
			orgID, scope, period.Start, period.End).
		Delete(&model.ReportsCache{}).Error
}
