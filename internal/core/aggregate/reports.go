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
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/privacy"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/pkg/cache"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
)

// TeamDigest is the per-team section of a report digest. Only min-n-safe
// teams appear.
type TeamDigest struct {
	TeamID        string                      `json:"team_id"`
	TeamName      string                      `json:"team_name"`
	SurveyID      string                      `json:"survey_id"`
	Participation *model.ParticipationSummary `json:"participation,omitempty"`
	Drivers       []*model.DriverSummary      `json:"drivers"`
	Sentiment     *model.SentimentSummary     `json:"sentiment,omitempty"`
	ENPS          float64                     `json:"enps"`
}

// OrgDigest is the org-wide digest payload. Fields may only be added,
// never renamed, so cached payloads stay readable across versions.
type OrgDigest struct {
	Period           string        `json:"period"`
	GeneratedAt      time.Time     `json:"generated_at"`
	SafeTeamsCount   int           `json:"safe_teams_count"`
	UnsafeTeamsCount int           `json:"unsafe_teams_count"`
	ENPS             float64       `json:"enps"`
	AvgScore         float64       `json:"avg_score"`
	ParticipationPct float64       `json:"participation_pct"`
	Teams            []*TeamDigest `json:"teams"`
}

// Reports builds and persists the per-period digests (job F) and backs
// the read adapter's synchronous build on cache miss.
type Reports struct {
	orgRepo     repo.IOrganizationRepository
	teamRepo    repo.ITeamRepository
	surveyRepo  repo.ISurveyRepository
	summaryRepo repo.ISummaryRepository
	reportsRepo repo.IReportsCacheRepository
	rdb         cache.ICache
}

func NewReports(orgRepo repo.IOrganizationRepository, teamRepo repo.ITeamRepository,
	surveyRepo repo.ISurveyRepository, summaryRepo repo.ISummaryRepository,
	reportsRepo repo.IReportsCacheRepository, rdb cache.ICache) *Reports {
	return &Reports{
		orgRepo:     orgRepo,
		teamRepo:    teamRepo,
		surveyRepo:  surveyRepo,
		summaryRepo: summaryRepo,
		reportsRepo: reportsRepo,
		rdb:         rdb,
	}
}

// RunDaily rebuilds the current month's digests for every org.
func (r *Reports) RunDaily(ctx context.Context) error {
	orgs, err := r.orgRepo.ListOrganizations()
	if err != nil {
		return err
	}
	period := model.MonthPeriod(time.Now())
	for _, org := range orgs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.BuildDigest(ctx, org.OrgID, period); err != nil {
			log.Errorw("digest build failed", "orgId", org.OrgID, "period", period.Key(), "err", err)
		}
	}
	return nil
}

// BuildDigest materializes the org digest and one digest per safe team
// for the period, then drops stale redis mirrors. The build is bounded
// to one period's rows.
func (r *Reports) BuildDigest(ctx context.Context, orgID string, period model.Period) error {
	org, err := r.orgRepo.GetOrganizationByID(orgID)
	if err != nil {
		return err
	}
	surveys, err := r.surveyRepo.ListSurveysByOrg(orgID)
	if err != nil {
		return err
	}

	// Newest survey first; the first summary row seen per team is the
	// team's latest state inside the period.
	latestByTeam := make(map[string]*model.ParticipationSummary)
	surveyByTeam := make(map[string]*model.Survey)
	for _, survey := range surveys {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		opened := survey.OpensAt.UTC()
		if opened.Before(period.Start) || opened.After(period.End.AddDate(0, 0, 1)) {
			continue
		}
		parts, err := r.summaryRepo.ListParticipationBySurvey(survey.SurveyID)
		if err != nil {
			return err
		}
		for _, p := range parts {
			if _, ok := latestByTeam[p.TeamID]; !ok {
				latestByTeam[p.TeamID] = p
				surveyByTeam[p.TeamID] = survey
			}
		}
	}

	teamIDs := make([]string, 0, len(latestByTeam))
	for teamID := range latestByTeam {
		teamIDs = append(teamIDs, teamID)
	}
	teams, err := r.teamRepo.TeamsByID(teamIDs)
	if err != nil {
		return err
	}

	digest := &OrgDigest{
		Period:      period.Key(),
		GeneratedAt: time.Now().UTC(),
		Teams:       []*TeamDigest{},
	}
	var enpsSum, scoreSum, partSum float64
	for _, teamID := range teamIDs {
		part := latestByTeam[teamID]
		if !privacy.Guard(org, part.Respondents).Safe {
			digest.UnsafeTeamsCount++
			continue
		}
		digest.SafeTeamsCount++
		survey := surveyByTeam[teamID]

		td := &TeamDigest{TeamID: teamID, SurveyID: survey.SurveyID, Participation: part}
		if t, ok := teams[teamID]; ok {
			td.TeamName = t.Name
		} else {
			td.TeamName = model.DeletedTeamLabel
		}
		if td.Drivers, err = r.summaryRepo.ListDriverSummaries(survey.SurveyID, teamID); err != nil {
			return err
		}
		if td.Sentiment, err = r.summaryRepo.GetSentiment(survey.SurveyID, teamID); err != nil {
			return err
		}
		var teamEnps, teamAvg float64
		for _, d := range td.Drivers {
			teamEnps += d.ENPS()
			teamAvg += d.AvgScore
		}
		if len(td.Drivers) > 0 {
			td.ENPS = Round1(teamEnps / float64(len(td.Drivers)))
			teamAvg /= float64(len(td.Drivers))
		}
		enpsSum += td.ENPS
		scoreSum += teamAvg
		partSum += part.ParticipationPct
		digest.Teams = append(digest.Teams, td)

		if err := r.putDigest(ctx, orgID, model.TeamScope(teamID), period, td); err != nil {
			return err
		}
	}
	if digest.SafeTeamsCount > 0 {
		n := float64(digest.SafeTeamsCount)
		digest.ENPS = Round1(enpsSum / n)
		digest.AvgScore = Round1(scoreSum / n)
		digest.ParticipationPct = Round1(partSum / n)
	}
	return r.putDigest(ctx, orgID, model.ScopeOrg, period, digest)
}

func (r *Reports) putDigest(ctx context.Context, orgID, scope string, period model.Period, payload interface{}) error {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal digest")
	}
	err = r.reportsRepo.PutDigest(&model.ReportsCache{
		OrgID:       orgID,
		Scope:       scope,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Payload:     datatypes.JSON(raw),
	})
	if err != nil {
		return errors.Wrapf(err, "store digest %s/%s", orgID, scope)
	}
	// Drop the redis mirror; the next read repopulates it.
	if r.rdb != nil {
		key := model.ReportsCacheKey(orgID, scope, period)
		if err := r.rdb.Del(ctx, key).Err(); err != nil {
			log.Warnw("digest mirror invalidation failed", "key", key, "err", err)
		}
	}
	return nil
}
