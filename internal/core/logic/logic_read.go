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
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-pulse/pulse/internal/core/aggregate"
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/privacy"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/pkg/cache"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/go-pulse/pulse/pkg/metrics"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const reportsCacheTTL = 6 * time.Hour

// View is the envelope every read surface returns. When Safe is false
// the payload is withheld and Message carries the org fallback text.
type View struct {
	Safe    bool        `json:"safe"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func safeView(data interface{}) *View {
	return &View{Safe: true, Data: data}
}

func unsafeView(org *model.Organization) *View {
	return &View{Safe: false, Message: org.FallbackMessage()}
}

// DigestBuilder materializes and persists the report digests for all
// scopes of (org, period). The aggregation layer provides the
// implementation.
type DigestBuilder interface {
	BuildDigest(ctx context.Context, orgID string, period model.Period) error
}

// Overview is the company-level KPI payload, computed over safe teams
// only.
type Overview struct {
	ENPS             float64 `json:"enps"`
	AvgScore         float64 `json:"avgScore"`
	ParticipationPct float64 `json:"participationPct"`
	ActiveAlerts     int     `json:"activeAlerts"`
	SafeTeamsCount   int     `json:"safeTeamsCount"`
	UnsafeTeamsCount int     `json:"unsafeTeamsCount"`
}

// TeamKPIs is the per-team dashboard payload.
type TeamKPIs struct {
	SurveyID      string                      `json:"surveyId"`
	TeamID        string                      `json:"teamId"`
	TeamName      string                      `json:"teamName"`
	Participation *model.ParticipationSummary `json:"participation,omitempty"`
	Drivers       []*model.DriverSummary      `json:"drivers"`
	Sentiment     *model.SentimentSummary     `json:"sentiment,omitempty"`
	ENPS          float64                     `json:"enps"`
}

// HeatmapRow is one team's driver averages.
type HeatmapRow struct {
	TeamID   string             `json:"teamId"`
	TeamName string             `json:"teamName"`
	Scores   map[string]float64 `json:"scores"` // driver id -> avg score
}

// Heatmap is the teams-by-drivers matrix. Unsafe team rows are replaced
// by the fallback marker, never dropped.
type Heatmap struct {
	SurveyID        string        `json:"surveyId"`
	Drivers         []string      `json:"drivers"`
	Rows            []interface{} `json:"rows"`
	HiddenRowsCount int           `json:"hiddenRowsCount"`
}

// ThemeStat is one theme with its mention count and sentiment split.
type ThemeStat struct {
	Theme     string             `json:"theme"`
	Count     int                `json:"count"`
	Sentiment map[string]float64 `json:"sentimentBreakdownPct"` // "+","0","-" -> pct
}

// TrendPoint is one (driver, month) value averaged over safe teams.
type TrendPoint struct {
	DriverID    string    `json:"driverId"`
	PeriodMonth time.Time `json:"periodMonth"`
	AvgScore    float64   `json:"avgScore"`
}

// teamSnapshot is the latest per-team state used by org-wide surfaces.
type teamSnapshot struct {
	team        *model.Team
	survey      *model.Survey
	respondents int
	safe        bool
}

// ReadLogic is the query side. Every surface passes the min-n guard
// before anything derived from responses leaves the core. All methods
// are read-only; they never mutate summaries or alerts.
type ReadLogic struct {
	orgRepo     repo.IOrganizationRepository
	teamRepo    repo.ITeamRepository
	surveyRepo  repo.ISurveyRepository
	tokenRepo   repo.ITokenRepository
	summaryRepo repo.ISummaryRepository
	commentRepo repo.ICommentRepository
	alertRepo   repo.IAlertRepository
	reportsRepo repo.IReportsCacheRepository
	builder     DigestBuilder
	rdb         cache.ICache
}

func NewReadLogic(orgRepo repo.IOrganizationRepository, teamRepo repo.ITeamRepository,
	surveyRepo repo.ISurveyRepository, tokenRepo repo.ITokenRepository,
	summaryRepo repo.ISummaryRepository, commentRepo repo.ICommentRepository,
	alertRepo repo.IAlertRepository, reportsRepo repo.IReportsCacheRepository,
	builder DigestBuilder, rdb cache.ICache) *ReadLogic {
	return &ReadLogic{
		orgRepo:     orgRepo,
		teamRepo:    teamRepo,
		surveyRepo:  surveyRepo,
		tokenRepo:   tokenRepo,
		summaryRepo: summaryRepo,
		commentRepo: commentRepo,
		alertRepo:   alertRepo,
		reportsRepo: reportsRepo,
		builder:     builder,
		rdb:         rdb,
	}
}

// snapshots resolves each org team to its latest surveyed state and
// min-n verdict.
func (l *ReadLogic) snapshots(org *model.Organization) ([]*teamSnapshot, error) {
	teams, err := l.teamRepo.ListTeamsByOrg(org.OrgID)
	if err != nil {
		return nil, err
	}
	out := make([]*teamSnapshot, 0, len(teams))
	for _, t := range teams {
		survey, err := l.surveyRepo.LatestSurveyWithResponses(org.OrgID, t.TeamID)
		if err != nil {
			return nil, err
		}
		if survey == nil {
			continue
		}
		respondents, err := l.tokenRepo.CountUsed(survey.SurveyID, t.TeamID)
		if err != nil {
			return nil, err
		}
		out = append(out, &teamSnapshot{
			team:        t,
			survey:      survey,
			respondents: respondents,
			safe:        privacy.Guard(org, respondents).Safe,
		})
	}
	return out, nil
}

// GetOverview returns company-level KPIs averaged over safe teams.
// With no safe teams the whole view falls back.
func (l *ReadLogic) GetOverview(ctx context.Context, orgID string) (*View, error) {
	org, err := l.orgRepo.GetOrganizationByID(orgID)
	if err != nil {
		return nil, err
	}
	snaps, err := l.snapshots(org)
	if err != nil {
		return nil, err
	}
	ov := &Overview{}
	var enpsSum, scoreSum, partSum float64
	for _, s := range snaps {
		if !s.safe {
			ov.UnsafeTeamsCount++
			continue
		}
		ov.SafeTeamsCount++
		drivers, err := l.summaryRepo.ListDriverSummaries(s.survey.SurveyID, s.team.TeamID)
		if err != nil {
			return nil, err
		}
		var teamEnps, teamAvg float64
		for _, d := range drivers {
			teamEnps += d.ENPS()
			teamAvg += d.AvgScore
		}
		if len(drivers) > 0 {
			enpsSum += teamEnps / float64(len(drivers))
			scoreSum += teamAvg / float64(len(drivers))
		}
		if part, err := l.summaryRepo.GetParticipation(s.survey.SurveyID, s.team.TeamID); err != nil {
			return nil, err
		} else if part != nil {
			partSum += part.ParticipationPct
		}
	}
	if ov.SafeTeamsCount == 0 {
		return unsafeView(org), nil
	}
	n := float64(ov.SafeTeamsCount)
	ov.ENPS = aggregate.Round1(enpsSum / n)
	ov.AvgScore = aggregate.Round1(scoreSum / n)
	ov.ParticipationPct = aggregate.Round1(partSum / n)
	if ov.ActiveAlerts, err = l.alertRepo.CountActiveByOrg(orgID); err != nil {
		return nil, err
	}
	return safeView(ov), nil
}

// GetTeamKPIs returns the latest survey KPIs for one team, or the
// fallback when the team is below min-n.
func (l *ReadLogic) GetTeamKPIs(ctx context.Context, orgID, teamID string) (*View, error) {
	org, err := l.orgRepo.GetOrganizationByID(orgID)
	if err != nil {
		return nil, err
	}
	survey, err := l.surveyRepo.LatestSurveyWithResponses(orgID, teamID)
	if err != nil {
		return nil, err
	}
	if survey == nil {
		return unsafeView(org), nil
	}
	respondents, err := l.tokenRepo.CountUsed(survey.SurveyID, teamID)
	if err != nil {
		return nil, err
	}
	if v := privacy.Guard(org, respondents); !v.Safe {
		return &View{Safe: false, Message: v.Message}, nil
	}

	kpis := &TeamKPIs{SurveyID: survey.SurveyID, TeamID: teamID}
	if team, err := l.teamRepo.GetTeamByID(teamID); err != nil {
		return nil, err
	} else if team != nil {
		kpis.TeamName = team.Name
	} else {
		kpis.TeamName = model.DeletedTeamLabel
	}
	if kpis.Participation, err = l.summaryRepo.GetParticipation(survey.SurveyID, teamID); err != nil {
		return nil, err
	}
	if kpis.Drivers, err = l.summaryRepo.ListDriverSummaries(survey.SurveyID, teamID); err != nil {
		return nil, err
	}
	if kpis.Sentiment, err = l.summaryRepo.GetSentiment(survey.SurveyID, teamID); err != nil {
		return nil, err
	}
	if len(kpis.Drivers) > 0 {
		var enps float64
		for _, d := range kpis.Drivers {
			enps += d.ENPS()
		}
		kpis.ENPS = aggregate.Round1(enps / float64(len(kpis.Drivers)))
	}
	return safeView(kpis), nil
}

// resolveSurveyID defaults an empty survey id to the org's latest
// survey. Returns empty when the org has no surveys at all.
func (l *ReadLogic) resolveSurveyID(orgID, surveyID string) (string, error) {
	if surveyID != "" {
		return surveyID, nil
	}
	latest, err := l.surveyRepo.LatestSurvey(orgID)
	if err != nil {
		return "", err
	}
	if latest == nil {
		return "", nil
	}
	return latest.SurveyID, nil
}

// GetHeatmap returns the teams-by-drivers matrix for a survey, the
// org's latest survey when none is given. Rows below min-n keep their
// slot with the fallback marker in place of the scores.
func (l *ReadLogic) GetHeatmap(ctx context.Context, orgID, surveyID string) (*View, error) {
	org, err := l.orgRepo.GetOrganizationByID(orgID)
	if err != nil {
		return nil, err
	}
	if surveyID, err = l.resolveSurveyID(orgID, surveyID); err != nil {
		return nil, err
	}
	if surveyID == "" {
		return unsafeView(org), nil
	}
	parts, err := l.summaryRepo.ListParticipationBySurvey(surveyID)
	if err != nil {
		return nil, err
	}
	sums, err := l.summaryRepo.ListDriverSummariesBySurvey(surveyID)
	if err != nil {
		return nil, err
	}
	teamIDs := make([]string, 0, len(parts))
	for _, p := range parts {
		teamIDs = append(teamIDs, p.TeamID)
	}
	teams, err := l.teamRepo.TeamsByID(teamIDs)
	if err != nil {
		return nil, err
	}

	scoresByTeam := make(map[string]map[string]float64)
	var drivers []string
	seenDriver := make(map[string]struct{})
	for _, s := range sums {
		if _, ok := seenDriver[s.DriverID]; !ok {
			seenDriver[s.DriverID] = struct{}{}
			drivers = append(drivers, s.DriverID)
		}
		if scoresByTeam[s.TeamID] == nil {
			scoresByTeam[s.TeamID] = make(map[string]float64)
		}
		scoresByTeam[s.TeamID][s.DriverID] = s.AvgScore
	}

	rows := make([]privacy.Row, 0, len(parts))
	for _, p := range parts {
		name := model.DeletedTeamLabel
		if t, ok := teams[p.TeamID]; ok {
			name = t.Name
		}
		rows = append(rows, privacy.Row{
			TeamID:      p.TeamID,
			Respondents: p.Respondents,
			Data: &HeatmapRow{
				TeamID:   p.TeamID,
				TeamName: name,
				Scores:   scoresByTeam[p.TeamID],
			},
		})
	}
	masked := privacy.MaskRows(org, rows)
	hm := &Heatmap{SurveyID: surveyID, Drivers: drivers, HiddenRowsCount: masked.HiddenRowsCount}
	for _, r := range masked.Rows {
		hm.Rows = append(hm.Rows, r.Data)
	}
	return safeView(hm), nil
}

// GetFeedbackThemes aggregates theme counts and sentiment splits over
// the survey's safe teams.
func (l *ReadLogic) GetFeedbackThemes(ctx context.Context, orgID, surveyID string) (*View, error) {
	org, err := l.orgRepo.GetOrganizationByID(orgID)
	if err != nil {
		return nil, err
	}
	if surveyID, err = l.resolveSurveyID(orgID, surveyID); err != nil {
		return nil, err
	}
	if surveyID == "" {
		return unsafeView(org), nil
	}
	parts, err := l.summaryRepo.ListParticipationBySurvey(surveyID)
	if err != nil {
		return nil, err
	}
	safeTeams := make(map[string]struct{})
	for _, p := range parts {
		if privacy.Guard(org, p.Respondents).Safe {
			safeTeams[p.TeamID] = struct{}{}
		}
	}
	if len(safeTeams) == 0 {
		return unsafeView(org), nil
	}
	tagged, err := l.commentRepo.ListTaggedBySurvey(surveyID)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	sentiments := make(map[string]map[string]int)
	var order []string
	for _, tc := range tagged {
		if _, ok := safeTeams[tc.TeamID]; !ok {
			continue
		}
		var themes []string
		if err := sonic.UnmarshalString(tc.Themes, &themes); err != nil {
			log.Warnw("malformed themes payload", "commentId", tc.CommentID, "err", err)
			continue
		}
		for _, th := range themes {
			if counts[th] == 0 {
				order = append(order, th)
				sentiments[th] = make(map[string]int)
			}
			counts[th]++
			sentiments[th][tc.Sentiment]++
		}
	}
	out := make([]ThemeStat, 0, len(order))
	for _, th := range order {
		stat := ThemeStat{Theme: th, Count: counts[th], Sentiment: make(map[string]float64, 3)}
		for _, s := range []string{model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative} {
			stat.Sentiment[s] = float64(sentiments[th][s]) / float64(counts[th]) * 100
		}
		out = append(out, stat)
	}
	return safeView(out), nil
}

// GetOverviewTrend returns monthly driver averages across safe teams
// for the trailing window.
func (l *ReadLogic) GetOverviewTrend(ctx context.Context, orgID string, months int) (*View, error) {
	org, err := l.orgRepo.GetOrganizationByID(orgID)
	if err != nil {
		return nil, err
	}
	if months <= 0 {
		months = 12
	}
	snaps, err := l.snapshots(org)
	if err != nil {
		return nil, err
	}
	var safeIDs []string
	hidden := 0
	for _, s := range snaps {
		if s.safe {
			safeIDs = append(safeIDs, s.team.TeamID)
		} else {
			hidden++
		}
	}
	if len(safeIDs) == 0 {
		return unsafeView(org), nil
	}
	from := model.MonthPeriod(time.Now().AddDate(0, -(months - 1), 0)).Start
	series, err := l.summaryRepo.TrendSeries(safeIDs, from)
	if err != nil {
		return nil, err
	}
	type key struct {
		driverID string
		month    time.Time
	}
	sumByKey := make(map[key]float64)
	cntByKey := make(map[key]int)
	var order []key
	for _, p := range series {
		k := key{driverID: p.DriverID, month: p.PeriodMonth}
		if cntByKey[k] == 0 {
			order = append(order, k)
		}
		sumByKey[k] += p.AvgScore
		cntByKey[k]++
	}
	points := make([]TrendPoint, 0, len(order))
	for _, k := range order {
		points = append(points, TrendPoint{
			DriverID:    k.driverID,
			PeriodMonth: k.month,
			AvgScore:    sumByKey[k] / float64(cntByKey[k]),
		})
	}
	return safeView(map[string]interface{}{
		"points":          points,
		"hiddenRowsCount": hidden,
	}), nil
}

// GetReportDigest serves the materialized digest for (org, scope,
// period). Lookup order is redis, then the durable cache table, then a
// synchronous build. A deadline hit during the build degrades to the
// safe fallback rather than an error.
func (l *ReadLogic) GetReportDigest(ctx context.Context, orgID, scope string, period model.Period) (*View, error) {
	org, err := l.orgRepo.GetOrganizationByID(orgID)
	if err != nil {
		return nil, err
	}
	cacheKey := model.ReportsCacheKey(orgID, scope, period)
	if l.rdb != nil {
		val, err := l.rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			metrics.ReportsCacheHitsTotal.Inc()
			var payload interface{}
			if err := sonic.UnmarshalString(val, &payload); err == nil {
				// A served mirror stays warm for another full TTL.
				l.rdb.Expire(ctx, cacheKey, reportsCacheTTL)
				return safeView(payload), nil
			}
			log.Warnw("corrupt cached digest dropped", "key", cacheKey)
			l.rdb.Del(ctx, cacheKey)
		} else if !errors.Is(err, redis.Nil) {
			log.Warnw("reports cache read failed", "key", cacheKey, "err", err)
		}
	}
	metrics.ReportsCacheMissesTotal.Inc()

	row, err := l.reportsRepo.GetDigest(orgID, scope, period)
	if err != nil {
		return nil, err
	}
	if row == nil {
		if err := l.builder.BuildDigest(ctx, orgID, period); err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return unsafeView(org), nil
			}
			return nil, err
		}
		row, err = l.reportsRepo.GetDigest(orgID, scope, period)
		if err != nil {
			return nil, err
		}
		if row == nil {
			// Scope had nothing to report this period.
			return unsafeView(org), nil
		}
	}
	if l.rdb != nil {
		if err := l.rdb.Set(ctx, cacheKey, string(row.Payload), reportsCacheTTL).Err(); err != nil {
			log.Warnw("reports cache write failed", "key", cacheKey, "err", err)
		}
	}
	var payload interface{}
	if err := sonic.Unmarshal(row.Payload, &payload); err != nil {
		return nil, errors.Wrap(err, "decode digest payload")
	}
	return safeView(payload), nil
}
