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

// ErrTokenTaken is returned by MarkUsedTx when the conditional transition
// used=false→true affected no row because another redemption won.
var ErrTokenTaken = errors.New("token already marked used")

type ITokenRepository interface {
	CreateToken(t *model.SurveyToken) error
	GetByHash(hash string) (*model.SurveyToken, error)
	GetByHashTx(tx *gorm.DB, hash string) (*model.SurveyToken, error)
	// MarkUsedTx performs the atomic used=false→true transition inside tx.
	// Exactly one concurrent caller succeeds; the rest get ErrTokenTaken.
	MarkUsedTx(tx *gorm.DB, hash string, meta model.RedemptionMeta, now time.Time) error
	// CountUsed is the canonical respondent count for (survey, team).
	CountUsed(surveyID, teamID string) (int, error)
}

type TokenRepo struct {
	database.IDatabase
}

func NewTokenRepo(db database.IDatabase) ITokenRepository {
	return &TokenRepo{IDatabase: db}
}

func (r *TokenRepo) CreateToken(t *model.SurveyToken) error {
	return r.Database().Create(t).Error
}

func (r *TokenRepo) GetByHash(hash string) (*model.SurveyToken, error) {
	return r.GetByHashTx(r.Database(), hash)
}

func (r *TokenRepo) GetByHashTx(tx *gorm.DB, hash string) (*model.SurveyToken, error) {
	var t model.SurveyToken
	err := tx.Where("token_hash = ?", hash).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepo) MarkUsedTx(tx *gorm.DB, hash string, meta model.RedemptionMeta, now time.Time) error {
	res := tx.Model(&model.SurveyToken{}).
		Where("token_hash = ? AND used = ?", hash, false).
		Updates(map[string]interface{}{
			"used":               true,
			"used_at":            now,
			"device_fingerprint": meta.DeviceFingerprint,
			"ip":                 meta.IP,
			"ua":                 meta.UA,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTokenTaken
	}
	return nil
}

func (r *TokenRepo) CountUsed(surveyID, teamID string) (int, error) {
	var count int64
	err := r.Database().Model(&model.SurveyToken{}).
		Where("survey_id = ? AND team_id = ? AND used = ?", surveyID, teamID, true).
		Count(&count).Error
	return int(count), err
}
