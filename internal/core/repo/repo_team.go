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

type ITeamRepository interface {
	CreateTeam(t *model.Team) error
	GetTeamByID(teamID string) (*model.Team, error)
	ListTeamsByOrg(orgID string) ([]*model.Team, error)
	// TeamsByID returns a lookup map; missing ids are simply absent
	// (deleted teams stay recognizable as dangling references).
	TeamsByID(teamIDs []string) (map[string]*model.Team, error)
}

type TeamRepo struct {
	database.IDatabase
}

func NewTeamRepo(db database.IDatabase) ITeamRepository {
	return &TeamRepo{IDatabase: db}
}

func (r *TeamRepo) CreateTeam(t *model.Team) error {
	return r.Database().Create(t).Error
}

func (r *TeamRepo) GetTeamByID(teamID string) (*model.Team, error) {
	var t model.Team
	err := r.Database().Where("team_id = ?", teamID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepo) ListTeamsByOrg(orgID string) ([]*model.Team, error) {
	var teams []*model.Team
	err := r.Database().
		Where("org_id = ?", orgID).
		Order("team_id ASC").
		Find(&teams).Error
	return teams, err
}

func (r *TeamRepo) TeamsByID(teamIDs []string) (map[string]*model.Team, error) {
	if len(teamIDs) == 0 {
		return map[string]*model.Team{}, nil
	}
	var teams []*model.Team
	err := r.Database().Where("team_id IN ?", teamIDs).Find(&teams).Error
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Team, len(teams))
	for _, t := range teams {
		byID[t.TeamID] = t
	}
	return byID, nil
}
