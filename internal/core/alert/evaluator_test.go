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

package alert

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/internal/pkg/dbtest"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capturePublisher records published events instead of hitting a broker.
type capturePublisher struct {
	mu     sync.Mutex
	orgIDs []string
	events []*model.AlertEvent
}

func (c *capturePublisher) Publish(_ context.Context, orgID string, event *model.AlertEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orgIDs = append(c.orgIDs, orgID)
	c.events = append(c.events, event)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

type evalFixture struct {
	db          database.IDatabase
	eval        *Evaluator
	surveyRepo  repo.ISurveyRepository
	summaryRepo repo.ISummaryRepository
	alertRepo   repo.IAlertRepository
	publisher   *capturePublisher
	seq         int
}

func newEvalFixture(t *testing.T) *evalFixture {
	db := dbtest.New(t)
	orgRepo := repo.NewOrganizationRepo(db)
	f := &evalFixture{
		db:          db,
		surveyRepo:  repo.NewSurveyRepo(db),
		summaryRepo: repo.NewSummaryRepo(db),
		alertRepo:   repo.NewAlertRepo(db),
		publisher:   &capturePublisher{},
	}
	f.eval = NewEvaluator(orgRepo, f.surveyRepo, f.summaryRepo,
		f.alertRepo, repo.NewAuditRepo(db), f.publisher)

	require.NoError(t, orgRepo.CreateOrganization(&model.Organization{
		OrgID: "org1", Name: "Org One", MinN: 4,
	}))
	return f
}

func (f *evalFixture) addSurvey(t *testing.T, surveyID, status string, opensAt time.Time) {
	require.NoError(t, f.surveyRepo.CreateSurvey(&model.Survey{
		SurveyID: surveyID,
		OrgID:    "org1",
		Status:   status,
		OpensAt:  opensAt,
		ClosesAt: opensAt.Add(7 * 24 * time.Hour),
	}))
}

// addResponses leaves numeric response rows so the survey counts as
// "with responses" for history lookups.
func (f *evalFixture) addResponses(t *testing.T, surveyID, teamID string, n int) {
	now := time.Now()
	for i := 0; i < n; i++ {
		f.seq++
		err := f.db.Database().Create(&model.NumericResponse{
			ResponseID: fmt.Sprintf("resp-%d", f.seq),
			SurveyID:   surveyID,
			TeamID:     teamID,
			DriverID:   "d1",
			Score:      5,
			Ts:         now,
		}).Error
		require.NoError(t, err)
	}
}

func (f *evalFixture) setParticipation(t *testing.T, surveyID string, respondents int, pct float64) {
	require.NoError(t, f.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID:         surveyID,
		TeamID:           "team1",
		Respondents:      respondents,
		TeamSize:         respondents,
		ParticipationPct: pct,
	}))
}

func (f *evalFixture) setDriverAvg(t *testing.T, surveyID string, avg float64) {
	require.NoError(t, f.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
		SurveyID: surveyID, TeamID: "team1", DriverID: "d1",
		AvgScore: avg, PromotersPct: 30, PassivesPct: 40, DetractorsPct: 30,
	}))
}

func TestEvaluatorLowScoreHighSeverity(t *testing.T) {
	f := newEvalFixture(t)
	f.addSurvey(t, "s1", model.SurveyStatusActive, time.Now().Add(-24*time.Hour))
	f.setParticipation(t, "s1", 5, 100)
	f.setDriverAvg(t, "s1", 5.5)

	require.NoError(t, f.eval.RunOnce(context.Background()))

	a, err := f.alertRepo.FindActive("team1", "s1", model.AlertLowScore)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, model.SeverityHigh, a.Severity)
	assert.Equal(t, model.AlertStatusOpen, a.Status)
	require.NotNil(t, a.DriverID)
	assert.Equal(t, "d1", *a.DriverID)
	assert.Contains(t, a.Reason, "5.5")
	assert.Contains(t, a.Reason, "6.0")
	assert.InDelta(t, 5.5, a.CurrentValue, 1e-9)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "org1", f.publisher.orgIDs[0])
	assert.Equal(t, model.AlertLowScore, f.publisher.events[0].Type)
	assert.Equal(t, a.AlertID, f.publisher.events[0].AlertID)
}

func TestEvaluatorDeduplicates(t *testing.T) {
	f := newEvalFixture(t)
	f.addSurvey(t, "s1", model.SurveyStatusActive, time.Now().Add(-24*time.Hour))
	f.setParticipation(t, "s1", 5, 100)
	f.setDriverAvg(t, "s1", 5.5)

	require.NoError(t, f.eval.RunOnce(context.Background()))
	require.NoError(t, f.eval.RunOnce(context.Background()))

	active, err := f.alertRepo.ListActiveByScope("team1", "s1")
	require.NoError(t, err)
	assert.Len(t, active, 1, "second sweep must not duplicate the alert")
	assert.Len(t, f.publisher.events, 1, "unchanged severity publishes nothing")
}

func TestEvaluatorUpgradesInPlace(t *testing.T) {
	f := newEvalFixture(t)
	f.addSurvey(t, "s1", model.SurveyStatusActive, time.Now().Add(-24*time.Hour))
	f.setParticipation(t, "s1", 5, 100)
	f.setDriverAvg(t, "s1", 5.9) // gap 0.1, low severity

	require.NoError(t, f.eval.RunOnce(context.Background()))
	opened, err := f.alertRepo.FindActive("team1", "s1", model.AlertLowScore)
	require.NoError(t, err)
	require.NotNil(t, opened)
	assert.Equal(t, model.SeverityLow, opened.Severity)

	f.setDriverAvg(t, "s1", 5.5) // gap 0.5, high severity
	require.NoError(t, f.eval.RunOnce(context.Background()))

	upgraded, err := f.alertRepo.FindActive("team1", "s1", model.AlertLowScore)
	require.NoError(t, err)
	require.NotNil(t, upgraded)
	assert.Equal(t, opened.AlertID, upgraded.AlertID, "upgrade mutates the existing alert")
	assert.Equal(t, model.SeverityHigh, upgraded.Severity)
	assert.Contains(t, upgraded.Reason, "5.5")

	active, err := f.alertRepo.ListActiveByScope("team1", "s1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Len(t, f.publisher.events, 2, "open and upgrade each publish once")
}

func TestEvaluatorAutoResolves(t *testing.T) {
	f := newEvalFixture(t)
	f.addSurvey(t, "s1", model.SurveyStatusActive, time.Now().Add(-24*time.Hour))
	f.setParticipation(t, "s1", 5, 100)
	f.setDriverAvg(t, "s1", 5.5)

	require.NoError(t, f.eval.RunOnce(context.Background()))
	opened, err := f.alertRepo.FindActive("team1", "s1", model.AlertLowScore)
	require.NoError(t, err)
	require.NotNil(t, opened)

	// The rebuilt summary no longer breaches; the alert resolves itself.
	f.setDriverAvg(t, "s1", 6.5)
	require.NoError(t, f.eval.RunOnce(context.Background()))

	resolved, err := f.alertRepo.GetAlertByID(opened.AlertID)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, model.AlertStatusResolved, resolved.Status)
	assert.Equal(t, "system", resolved.ResolverID)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestEvaluatorSkipsSuppressedScope(t *testing.T) {
	f := newEvalFixture(t)
	f.addSurvey(t, "s1", model.SurveyStatusActive, time.Now().Add(-24*time.Hour))
	// Two respondents is below min_n 4; nothing about this team may
	// surface, not even an alert.
	f.setParticipation(t, "s1", 2, 40)
	f.setDriverAvg(t, "s1", 2.0)

	require.NoError(t, f.eval.RunOnce(context.Background()))

	active, err := f.alertRepo.ListActiveByScope("team1", "s1")
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Empty(t, f.publisher.events)
}

func TestEvaluatorRecurring(t *testing.T) {
	f := newEvalFixture(t)
	now := time.Now()
	f.addSurvey(t, "s1", model.SurveyStatusClosed, now.Add(-90*24*time.Hour))
	f.addSurvey(t, "s2", model.SurveyStatusClosed, now.Add(-60*24*time.Hour))
	f.addSurvey(t, "s3", model.SurveyStatusActive, now.Add(-24*time.Hour))
	for _, surveyID := range []string{"s1", "s2", "s3"} {
		f.addResponses(t, surveyID, "team1", 5)
		f.setDriverAvg(t, surveyID, 5.5)
	}
	f.setParticipation(t, "s3", 5, 100)

	require.NoError(t, f.eval.RunOnce(context.Background()))

	a, err := f.alertRepo.FindActive("team1", "s3", model.AlertRecurring)
	require.NoError(t, err)
	require.NotNil(t, a, "three consecutive breaches open a recurring alert")
	assert.Equal(t, model.SeverityHigh, a.Severity)
	require.NotNil(t, a.DriverID)
	assert.Equal(t, "d1", *a.DriverID)
}

func TestEvaluatorRecurringNeedsFullHistory(t *testing.T) {
	f := newEvalFixture(t)
	now := time.Now()
	f.addSurvey(t, "s2", model.SurveyStatusClosed, now.Add(-60*24*time.Hour))
	f.addSurvey(t, "s3", model.SurveyStatusActive, now.Add(-24*time.Hour))
	for _, surveyID := range []string{"s2", "s3"} {
		f.addResponses(t, surveyID, "team1", 5)
		f.setDriverAvg(t, surveyID, 5.5)
	}
	f.setParticipation(t, "s3", 5, 100)

	require.NoError(t, f.eval.RunOnce(context.Background()))

	a, err := f.alertRepo.FindActive("team1", "s3", model.AlertRecurring)
	require.NoError(t, err)
	assert.Nil(t, a, "two of three required breaches is not recurring")
}
