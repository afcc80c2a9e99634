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

package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDigestExcludesUnsafeTeams(t *testing.T) {
	f := newAggFixture(t)
	reportsRepo := repo.NewReportsCacheRepo(f.db)
	reports := NewReports(f.orgRepo, f.teamRepo, f.surveyRepo, f.summaryRepo, reportsRepo, nil)

	require.NoError(t, f.teamRepo.CreateTeam(&model.Team{
		TeamID: "team2", OrgID: "org1", Name: "Beta", Size: 5,
	}))
	opensAt := time.Now().Add(-24 * time.Hour)
	f.addSurvey(t, "s1", model.SurveyStatusActive, opensAt)
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team1", Respondents: 4, TeamSize: 5, ParticipationPct: 80,
	}))
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team2", Respondents: 2, TeamSize: 5, ParticipationPct: 40,
	}))
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team1", DriverID: "d1",
		AvgScore: 7.0, PromotersPct: 40, PassivesPct: 40, DetractorsPct: 20,
	}))

	period := model.MonthPeriod(opensAt)
	require.NoError(t, reports.BuildDigest(context.Background(), "org1", period))

	orgRow, err := reportsRepo.GetDigest("org1", model.ScopeOrg, period)
	require.NoError(t, err)
	require.NotNil(t, orgRow)

	var digest OrgDigest
	require.NoError(t, sonic.Unmarshal(orgRow.Payload, &digest))
	assert.Equal(t, 1, digest.SafeTeamsCount)
	assert.Equal(t, 1, digest.UnsafeTeamsCount)
	require.Len(t, digest.Teams, 1, "suppressed teams are counted, never listed")
	assert.Equal(t, "team1", digest.Teams[0].TeamID)
	assert.InDelta(t, 20.0, digest.ENPS, 1e-9)
	assert.InDelta(t, 7.0, digest.AvgScore, 1e-9)

	// Safe teams additionally get their own scoped digest; unsafe teams
	// must not.
	teamRow, err := reportsRepo.GetDigest("org1", model.TeamScope("team1"), period)
	require.NoError(t, err)
	assert.NotNil(t, teamRow)
	hiddenRow, err := reportsRepo.GetDigest("org1", model.TeamScope("team2"), period)
	require.NoError(t, err)
	assert.Nil(t, hiddenRow)
}

func TestBuildDigestIdempotent(t *testing.T) {
	f := newAggFixture(t)
	reportsRepo := repo.NewReportsCacheRepo(f.db)
	reports := NewReports(f.orgRepo, f.teamRepo, f.surveyRepo, f.summaryRepo, reportsRepo, nil)

	opensAt := time.Now().Add(-24 * time.Hour)
	f.addSurvey(t, "s1", model.SurveyStatusActive, opensAt)
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team1", Respondents: 4, TeamSize: 5, ParticipationPct: 80,
	}))

	period := model.MonthPeriod(opensAt)
	require.NoError(t, reports.BuildDigest(context.Background(), "org1", period))
	require.NoError(t, reports.BuildDigest(context.Background(), "org1", period))

	var count int64
	require.NoError(t, f.db.Database().Model(&model.ReportsCache{}).
		Where("scope = ?", model.ScopeOrg).Count(&count).Error)
	assert.EqualValues(t, 1, count, "rebuild replaces the row, never duplicates it")
}
