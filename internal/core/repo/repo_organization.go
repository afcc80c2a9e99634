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

type IOrganizationRepository interface {
	CreateOrganization(o *model.Organization) error
	GetOrganizationByID(orgID string) (*model.Organization, error)
	ListOrganizations() ([]*model.Organization, error)
	UpdateSettings(orgID string, updates map[string]interface{}) error
}

type OrganizationRepo struct {
	database.IDatabase
}

func NewOrganizationRepo(db database.IDatabase) IOrganizationRepository {
	return &OrganizationRepo{IDatabase: db}
}

func (r *OrganizationRepo) CreateOrganization(o *model.Organization) error {
	return r.Database().Create(o).Error
}

func (r *OrganizationRepo) GetOrganizationByID(orgID string) (*model.Organization, error) {
	var o model.Organization
	err := r.Database().Where("org_id = ?", orgID).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(err, "organization %s", orgID)
		}
		return nil, err
	}
	return &o, nil
}

func (r *OrganizationRepo) ListOrganizations() ([]*model.Organization, error) {
	var orgs []*model.Organization
	err := r.Database().Order("org_id ASC").Find(&orgs).Error
	return orgs, err
}

// UpdateSettings mutates org-scoped settings (min_n, masking, fallback,
// thresholds). Callers reload the settings snapshot afterwards.
func (r *OrganizationRepo) UpdateSettings(orgID string, updates map[string]interface{}) error {
	return r.Database().Model(&model.Organization{}).
		Where("org_id = ?", orgID).
		Updates(updates).Error
}
