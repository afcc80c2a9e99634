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

type IAuditRepository interface {
	Append(rec *model.AuditRecord) error
	AppendTx(tx *gorm.DB, rec *model.AuditRecord) error
	ListByEntity(entityID string) ([]*model.AuditRecord, error)
}

type AuditRepo struct {
	database.IDatabase
}

func NewAuditRepo(db database.IDatabase) IAuditRepository {
	return &AuditRepo{IDatabase: db}
}

func (r *AuditRepo) Append(rec *model.AuditRecord) error {
	return r.AppendTx(r.Database(), rec)
}

func (r *AuditRepo) AppendTx(tx *gorm.DB, rec *model.AuditRecord) error {
	return tx.Create(rec).Error
}

func (r *AuditRepo) ListByEntity(entityID string) ([]*model.AuditRecord, error) {
	var recs []*model.AuditRecord
	err := r.Database().
		Where("entity_id = ?", entityID).
		Order("at ASC").
		Find(&recs).Error
	return recs, err
}
