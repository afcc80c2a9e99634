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

package logic

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-pulse/pulse/internal/core/aggregate"
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/internal/pkg/dbtest"
	"github.com/go-pulse/pulse/pkg/cache"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type readFixture struct {
	db          database.IDatabase
	read        *ReadLogic
	orgRepo     repo.IOrganizationRepository
	teamRepo    repo.ITeamRepository
	tokenRepo   repo.ITokenRepository
	summaryRepo repo.ISummaryRepository
	commentRepo repo.ICommentRepository
	alertRepo   repo.IAlertRepository
	reportsRepo repo.IReportsCacheRepository
	surveyRepo  repo.ISurveyRepository
	builder     *aggregate.Reports
	opensAt     time.Time
}

func newReadFixture(t *testing.T) *readFixture {
	db := dbtest.New(t)
	orgRepo := repo.NewOrganizationRepo(db)
	teamRepo := repo.NewTeamRepo(db)
	surveyRepo := repo.NewSurveyRepo(db)
	tokenRepo := repo.NewTokenRepo(db)
	summaryRepo := repo.NewSummaryRepo(db)
	commentRepo := repo.NewCommentRepo(db)
	alertRepo := repo.NewAlertRepo(db)
	reportsRepo := repo.NewReportsCacheRepo(db)

	require.NoError(t, orgRepo.CreateOrganization(&model.Organization{
		OrgID: "org1", Name: "Org One", MinN: 4,
	}))
	require.NoError(t, teamRepo.CreateTeam(&model.Team{TeamID: "team-a", OrgID: "org1", Name: "Alpha", Size: 5}))
	require.NoError(t, teamRepo.CreateTeam(&model.Team{TeamID: "team-b", OrgID: "org1", Name: "Beta", Size: 5}))

	opensAt := time.Now().Add(-24 * time.Hour)
	require.NoError(t, surveyRepo.CreateSurvey(&model.Survey{
		SurveyID: "s1",
		OrgID:    "org1",
		Status:   model.SurveyStatusActive,
		OpensAt:  opensAt,
		ClosesAt: time.Now().Add(24 * time.Hour),
	}))

	builder := aggregate.NewReports(orgRepo, teamRepo, surveyRepo, summaryRepo, reportsRepo, nil)
	read := NewReadLogic(orgRepo, teamRepo, surveyRepo, tokenRepo,
		summaryRepo, commentRepo, alertRepo, reportsRepo, builder, nil)
	return &readFixture{
		db:          db,
		read:        read,
		orgRepo:     orgRepo,
		teamRepo:    teamRepo,
		tokenRepo:   tokenRepo,
		summaryRepo: summaryRepo,
		commentRepo: commentRepo,
		alertRepo:   alertRepo,
		reportsRepo: reportsRepo,
		surveyRepo:  surveyRepo,
		builder:     builder,
		opensAt:     opensAt,
	}
}

// readWithCache rebuilds the adapter over the same repositories with a
// cache attached.
func (f *readFixture) readWithCache(rdb cache.ICache) *ReadLogic {
	return NewReadLogic(f.orgRepo, f.teamRepo, f.surveyRepo, f.tokenRepo,
		f.summaryRepo, f.commentRepo, f.alertRepo, f.reportsRepo, f.builder, rdb)
}

// fakeCache is an in-memory ICache double for the mirror paths.
type fakeCache struct {
	values  map[string]string
	expired []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := c.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	c.values[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (c *fakeCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(c.values, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (c *fakeCache) Scan(_ context.Context, _ uint64, _ string, _ int64) *redis.ScanCmd {
	return redis.NewScanCmdResult(nil, 0, nil)
}

func (c *fakeCache) Expire(_ context.Context, key string, _ time.Duration) *redis.BoolCmd {
	c.expired = append(c.expired, key)
	return redis.NewBoolResult(true, nil)
}

// respond stores n used tokens and n scores for (s1, teamID, d1), the
// state one submission per respondent leaves behind.
func (f *readFixture) respond(t *testing.T, teamID string, n int, score int) {
	now := time.Now()
	for i := 0; i < n; i++ {
		usedAt := now
		require.NoError(t, f.tokenRepo.CreateToken(&model.SurveyToken{
			TokenHash: fmt.Sprintf("hash-%s-%d", teamID, i),
			SurveyID:  "s1",
			TeamID:    teamID,
			IssuedAt:  now,
			ExpiresAt: now.Add(time.Hour),
			Used:      true,
			UsedAt:    &usedAt,
		}))
		err := f.db.Database().Create(&model.NumericResponse{
			ResponseID: fmt.Sprintf("r-%s-%d", teamID, i),
			SurveyID:   "s1",
			TeamID:     teamID,
			DriverID:   "d1",
			Score:      score,
			Ts:         now,
		}).Error
		require.NoError(t, err)
	}
}

func TestGetTeamKPIsMinNFlip(t *testing.T) {
	f := newReadFixture(t)
	f.respond(t, "team-a", 3, 8)
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-a", DriverID: "d1",
		AvgScore: 8.0, PromotersPct: 60, PassivesPct: 30, DetractorsPct: 10,
	}))

	// Three respondents: below min_n, the payload is withheld.
	v, err := f.read.GetTeamKPIs(context.Background(), "org1", "team-a")
	require.NoError(t, err)
	assert.False(t, v.Safe)
	assert.Equal(t, model.DefaultSafeFallbackMessage, v.Message)
	assert.Nil(t, v.Data)

	// The fourth respondent flips the team to safe.
	now := time.Now()
	usedAt := now
	require.NoError(t, f.tokenRepo.CreateToken(&model.SurveyToken{
		TokenHash: "hash-team-a-flip",
		SurveyID:  "s1",
		TeamID:    "team-a",
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Hour),
		Used:      true,
		UsedAt:    &usedAt,
	}))

	v, err = f.read.GetTeamKPIs(context.Background(), "org1", "team-a")
	require.NoError(t, err)
	assert.True(t, v.Safe)
	kpis, ok := v.Data.(*TeamKPIs)
	require.True(t, ok)
	assert.Equal(t, "Alpha", kpis.TeamName)
	require.Len(t, kpis.Drivers, 1)
	assert.InDelta(t, 8.0, kpis.Drivers[0].AvgScore, 1e-9)
	assert.InDelta(t, 50.0, kpis.ENPS, 1e-9) // 60 promoters - 10 detractors
}

func TestGetOverviewAveragesSafeTeamsOnly(t *testing.T) {
	f := newReadFixture(t)
	f.respond(t, "team-a", 4, 8)
	f.respond(t, "team-b", 2, 3)
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-a", DriverID: "d1",
		AvgScore: 8.0, PromotersPct: 50, PassivesPct: 40, DetractorsPct: 10,
	}))
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-b", DriverID: "d1",
		AvgScore: 3.0, PromotersPct: 0, PassivesPct: 0, DetractorsPct: 100,
	}))
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-a", Respondents: 4, TeamSize: 5, ParticipationPct: 80,
	}))

	v, err := f.read.GetOverview(context.Background(), "org1")
	require.NoError(t, err)
	require.True(t, v.Safe)
	ov, ok := v.Data.(*Overview)
	require.True(t, ok)

	assert.Equal(t, 1, ov.SafeTeamsCount)
	assert.Equal(t, 1, ov.UnsafeTeamsCount)
	// The unsafe team's numbers must not bleed into the company KPIs.
	assert.InDelta(t, 40.0, ov.ENPS, 1e-9)
	assert.InDelta(t, 8.0, ov.AvgScore, 1e-9)
	assert.InDelta(t, 80.0, ov.ParticipationPct, 1e-9)
	assert.Zero(t, ov.ActiveAlerts)
}

func TestGetOverviewNoSafeTeams(t *testing.T) {
	f := newReadFixture(t)
	f.respond(t, "team-a", 2, 5)

	v, err := f.read.GetOverview(context.Background(), "org1")
	require.NoError(t, err)
	assert.False(t, v.Safe)
	assert.Equal(t, model.DefaultSafeFallbackMessage, v.Message)
}

func TestGetHeatmapKeepsHiddenRowSlots(t *testing.T) {
	f := newReadFixture(t)
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-a", Respondents: 5, TeamSize: 5, ParticipationPct: 100,
	}))
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-b", Respondents: 2, TeamSize: 5, ParticipationPct: 40,
	}))
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-a", DriverID: "d1", AvgScore: 7.5,
	}))
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-b", DriverID: "d1", AvgScore: 2.0,
	}))

	v, err := f.read.GetHeatmap(context.Background(), "org1", "s1")
	require.NoError(t, err)
	require.True(t, v.Safe)
	hm, ok := v.Data.(*Heatmap)
	require.True(t, ok)

	assert.Equal(t, []string{"d1"}, hm.Drivers)
	assert.Equal(t, 1, hm.HiddenRowsCount)
	require.Len(t, hm.Rows, 2, "hidden rows keep their slot")

	// team-a first (participation rows are ordered by team id).
	row, ok := hm.Rows[0].(*HeatmapRow)
	require.True(t, ok)
	assert.Equal(t, "Alpha", row.TeamName)
	assert.InDelta(t, 7.5, row.Scores["d1"], 1e-9)

	// team-b's scores are replaced by the fallback text, never exposed.
	assert.Equal(t, model.DefaultSafeFallbackMessage, hm.Rows[1])
}

func TestGetFeedbackThemes(t *testing.T) {
	f := newReadFixture(t)
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-a", Respondents: 5, TeamSize: 5, ParticipationPct: 100,
	}))
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-b", Respondents: 1, TeamSize: 5, ParticipationPct: 20,
	}))

	tx := f.db.Database()
	now := time.Now()
	comments := []*model.Comment{
		{CommentID: "c1", SurveyID: "s1", TeamID: "team-a", Text: "workload", Ts: now},
		{CommentID: "c2", SurveyID: "s1", TeamID: "team-a", Text: "workload again", Ts: now},
		{CommentID: "c3", SurveyID: "s1", TeamID: "team-b", Text: "hidden team", Ts: now},
	}
	require.NoError(t, f.commentRepo.CreateCommentsTx(tx, comments))
	require.NoError(t, f.commentRepo.UpsertNLP(&model.CommentNLP{
		CommentID: "c1", Sentiment: model.SentimentNegative, Themes: `["workload"]`, ProcessedAt: now,
	}))
	require.NoError(t, f.commentRepo.UpsertNLP(&model.CommentNLP{
		CommentID: "c2", Sentiment: model.SentimentPositive, Themes: `["workload"]`, ProcessedAt: now,
	}))
	require.NoError(t, f.commentRepo.UpsertNLP(&model.CommentNLP{
		CommentID: "c3", Sentiment: model.SentimentNegative, Themes: `["workload"]`, ProcessedAt: now,
	}))

	v, err := f.read.GetFeedbackThemes(context.Background(), "org1", "s1")
	require.NoError(t, err)
	require.True(t, v.Safe)
	stats, ok := v.Data.([]ThemeStat)
	require.True(t, ok)
	require.Len(t, stats, 1)

	// Only the safe team's two comments count.
	assert.Equal(t, "workload", stats[0].Theme)
	assert.Equal(t, 2, stats[0].Count)
	assert.InDelta(t, 50.0, stats[0].Sentiment[model.SentimentNegative], 1e-9)
	assert.InDelta(t, 50.0, stats[0].Sentiment[model.SentimentPositive], 1e-9)
}

func TestGetOverviewTrend(t *testing.T) {
	f := newReadFixture(t)
	f.respond(t, "team-a", 4, 8)

	month := model.MonthPeriod(time.Now()).Start
	require.NoError(t, f.summaryRepo.UpsertTrend(&model.OrgDriverTrend{
		TeamID: "team-a", DriverID: "d1", PeriodMonth: month, AvgScore: 7.0,
	}))

	v, err := f.read.GetOverviewTrend(context.Background(), "org1", 6)
	require.NoError(t, err)
	require.True(t, v.Safe)
	payload, ok := v.Data.(map[string]interface{})
	require.True(t, ok)
	points, ok := payload["points"].([]TrendPoint)
	require.True(t, ok)
	require.Len(t, points, 1)
	assert.Equal(t, "d1", points[0].DriverID)
	assert.InDelta(t, 7.0, points[0].AvgScore, 1e-9)
}

func TestGetReportDigestBuildsOnMiss(t *testing.T) {
	f := newReadFixture(t)
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-a", Respondents: 4, TeamSize: 5, ParticipationPct: 80,
	}))
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-a", DriverID: "d1",
		AvgScore: 7.5, PromotersPct: 40, PassivesPct: 40, DetractorsPct: 20,
	}))

	period := model.MonthPeriod(f.opensAt)
	v, err := f.read.GetReportDigest(context.Background(), "org1", model.ScopeOrg, period)
	require.NoError(t, err)
	require.True(t, v.Safe)

	payload, ok := v.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 20, payload["enps"])
	assert.EqualValues(t, 7.5, payload["avg_score"])

	// The miss materialized both the org digest and the team digest.
	orgRow, err := f.reportsRepo.GetDigest("org1", model.ScopeOrg, period)
	require.NoError(t, err)
	assert.NotNil(t, orgRow)
	teamRow, err := f.reportsRepo.GetDigest("org1", model.TeamScope("team-a"), period)
	require.NoError(t, err)
	assert.NotNil(t, teamRow)
}

func TestGetReportDigestEmptyScope(t *testing.T) {
	f := newReadFixture(t)

	period := model.MonthPeriod(f.opensAt)
	v, err := f.read.GetReportDigest(context.Background(), "org1", model.TeamScope("ghost"), period)
	require.NoError(t, err)
	assert.False(t, v.Safe, "a scope with nothing to report degrades to the fallback")
}

func TestGetReportDigestServedFromMirror(t *testing.T) {
	f := newReadFixture(t)
	rdb := newFakeCache()
	read := f.readWithCache(rdb)

	period := model.MonthPeriod(f.opensAt)
	key := model.ReportsCacheKey("org1", model.ScopeOrg, period)
	rdb.values[key] = `{"enps":12.5}`

	v, err := read.GetReportDigest(context.Background(), "org1", model.ScopeOrg, period)
	require.NoError(t, err)
	require.True(t, v.Safe)
	payload, ok := v.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 12.5, payload["enps"])
	assert.Contains(t, rdb.expired, key, "a served mirror gets its TTL refreshed")

	// The hit path never touches the durable table.
	row, err := f.reportsRepo.GetDigest("org1", model.ScopeOrg, period)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestHeatmapAndThemesDefaultToLatestSurvey(t *testing.T) {
	f := newReadFixture(t)
	// An older survey that must not win the default.
	require.NoError(t, f.surveyRepo.CreateSurvey(&model.Survey{
		SurveyID: "s0",
		OrgID:    "org1",
		Status:   model.SurveyStatusClosed,
		OpensAt:  f.opensAt.Add(-30 * 24 * time.Hour),
		ClosesAt: f.opensAt.Add(-23 * 24 * time.Hour),
	}))
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-a", Respondents: 5, TeamSize: 5, ParticipationPct: 100,
	}))
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-a", DriverID: "d1", AvgScore: 7.5,
	}))
	now := time.Now()
	require.NoError(t, f.commentRepo.CreateCommentsTx(f.db.Database(), []*model.Comment{
		{CommentID: "c1", SurveyID: "s1", TeamID: "team-a", Text: "workload", Ts: now},
	}))
	require.NoError(t, f.commentRepo.UpsertNLP(&model.CommentNLP{
		CommentID: "c1", Sentiment: model.SentimentNegative, Themes: `["workload"]`, ProcessedAt: now,
	}))

	v, err := f.read.GetHeatmap(context.Background(), "org1", "")
	require.NoError(t, err)
	require.True(t, v.Safe)
	hm, ok := v.Data.(*Heatmap)
	require.True(t, ok)
	assert.Equal(t, "s1", hm.SurveyID, "empty survey id resolves to the newest survey")
	require.Len(t, hm.Rows, 1)

	v, err = f.read.GetFeedbackThemes(context.Background(), "org1", "")
	require.NoError(t, err)
	require.True(t, v.Safe)
	stats, ok := v.Data.([]ThemeStat)
	require.True(t, ok)
	require.Len(t, stats, 1)
	assert.Equal(t, "workload", stats[0].Theme)
}

func TestGetOverviewRoundsAverages(t *testing.T) {
	f := newReadFixture(t)
	f.respond(t, "team-a", 4, 8)
	f.respond(t, "team-b", 4, 7)
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-a", DriverID: "d1",
		AvgScore: 7.94, PromotersPct: 50, PassivesPct: 40, DetractorsPct: 10,
	}))
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: "s1", TeamID: "team-b", DriverID: "d1",
		AvgScore: 7.23, PromotersPct: 30, PassivesPct: 50, DetractorsPct: 20,
	}))
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-a", Respondents: 4, TeamSize: 6, ParticipationPct: 66.7,
	}))
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID: "s1", TeamID: "team-b", Respondents: 4, TeamSize: 6, ParticipationPct: 66.7,
	}))

	v, err := f.read.GetOverview(context.Background(), "org1")
	require.NoError(t, err)
	require.True(t, v.Safe)
	ov, ok := v.Data.(*Overview)
	require.True(t, ok)

	// (7.94 + 7.23) / 2 = 7.585, surfaced at one decimal.
	assert.InDelta(t, 7.6, ov.AvgScore, 1e-9)
	// (40 + 10) / 2 = 25 eNPS, already one decimal.
	assert.InDelta(t, 25.0, ov.ENPS, 1e-9)
	assert.InDelta(t, 66.7, ov.ParticipationPct, 1e-9)
}
