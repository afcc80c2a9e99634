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

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/go-pulse/pulse/pkg/metrics"
	"github.com/go-pulse/pulse/pkg/retry"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// Aggregator rebuilds participation, driver, sentiment, and trend rows.
// Units of work are (survey, team) pairs; a failed unit is logged and
// picked up again on the next tick, it never blocks other units.
type Aggregator struct {
	orgRepo      repo.IOrganizationRepository
	teamRepo     repo.ITeamRepository
	surveyRepo   repo.ISurveyRepository
	tokenRepo    repo.ITokenRepository
	responseRepo repo.IResponseRepository
	commentRepo  repo.ICommentRepository
	summaryRepo  repo.ISummaryRepository
	workers      int
}

func NewAggregator(orgRepo repo.IOrganizationRepository, teamRepo repo.ITeamRepository,
	surveyRepo repo.ISurveyRepository, tokenRepo repo.ITokenRepository,
	responseRepo repo.IResponseRepository, commentRepo repo.ICommentRepository,
	summaryRepo repo.ISummaryRepository) *Aggregator {
	return &Aggregator{
		orgRepo:      orgRepo,
		teamRepo:     teamRepo,
		surveyRepo:   surveyRepo,
		tokenRepo:    tokenRepo,
		responseRepo: responseRepo,
		commentRepo:  commentRepo,
		summaryRepo:  summaryRepo,
		workers:      defaultWorkers,
	}
}

// runUnit executes one (survey, team) rebuild with bounded retries.
// Errors are swallowed after logging so sibling units keep running.
func (a *Aggregator) runUnit(ctx context.Context, jobName, unitKey string, fn retry.Func) {
	err := retry.Do(ctx, fn,
		retry.WithMaxAttempts(3),
		retry.WithBackoff(retry.Exponential(200*time.Millisecond, 2*time.Second)),
		retry.WithJitter(retry.FullJitter),
	)
	if err != nil {
		metrics.JobUnitsFailedTotal.WithLabelValues(jobName).Inc()
		log.Errorw("aggregation unit failed", "job", jobName, "unit", unitKey, "err", err)
	}
}

// forEachTeamUnit fans one unit out per (active survey, team with
// responses), bounded by the worker limit. Cancellation stops new units
// between boundaries; completed upserts stay.
func (a *Aggregator) forEachTeamUnit(ctx context.Context, jobName string,
	fn func(ctx context.Context, survey *model.Survey, teamID string) error) error {
	surveys, err := a.surveyRepo.ListActiveSurveys()
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, survey := range surveys {
		teams, err := a.responseRepo.TeamsWithResponses(survey.SurveyID)
		if err != nil {
			return err
		}
		for _, teamID := range teams {
			survey, teamID := survey, teamID
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				a.runUnit(gctx, jobName, survey.SurveyID+"/"+teamID, func(ctx context.Context) error {
					return fn(ctx, survey, teamID)
				})
				return nil
			})
		}
	}
	return g.Wait()
}

// RunParticipation is job A. Respondents come from used tokens, the
// canonical per-team count.
func (a *Aggregator) RunParticipation(ctx context.Context) error {
	return a.forEachTeamUnit(ctx, "participation", a.buildParticipation)
}

func (a *Aggregator) buildParticipation(_ context.Context, survey *model.Survey, teamID string) error {
	respondents, err := a.tokenRepo.CountUsed(survey.SurveyID, teamID)
	if err != nil {
		return err
	}
	teamSize := 0
	if team, err := a.teamRepo.GetTeamByID(teamID); err != nil {
		return err
	} else if team != nil {
		teamSize = team.Size
	}
	pct := ParticipationPct(respondents, teamSize)

	var delta float64
	prior, err := a.surveyRepo.PriorSurveyWithResponses(survey, teamID)
	if err != nil {
		return err
	}
	if prior != nil {
		priorRespondents, err := a.tokenRepo.CountUsed(prior.SurveyID, teamID)
		if err != nil {
			return err
		}
		delta = Round1(pct - ParticipationPct(priorRespondents, teamSize))
	}
	return a.summaryRepo.UpsertParticipation(&model.ParticipationSummary{
		SurveyID:         survey.SurveyID,
		TeamID:           teamID,
		Respondents:      respondents,
		TeamSize:         teamSize,
		ParticipationPct: pct,
		DeltaPct:         delta,
	})
}

// RunDriverSummary is job B.
func (a *Aggregator) RunDriverSummary(ctx context.Context) error {
	return a.forEachTeamUnit(ctx, "driver_summary", a.buildDriverSummaries)
}

func (a *Aggregator) buildDriverSummaries(_ context.Context, survey *model.Survey, teamID string) error {
	drivers, err := a.responseRepo.DriversWithResponses(survey.SurveyID, teamID)
	if err != nil {
		return err
	}
	prior, err := a.surveyRepo.PriorSurveyWithResponses(survey, teamID)
	if err != nil {
		return err
	}
	for _, driverID := range drivers {
		scores, err := a.responseRepo.Scores(survey.SurveyID, teamID, driverID)
		if err != nil {
			return err
		}
		if len(scores) == 0 {
			continue
		}
		stats := ComputeDriverStats(scores)

		var delta float64
		if prior != nil {
			priorScores, err := a.responseRepo.Scores(prior.SurveyID, teamID, driverID)
			if err != nil {
				return err
			}
			if len(priorScores) > 0 {
				delta = Round1(stats.AvgScore - ComputeDriverStats(priorScores).AvgScore)
			}
		}
		err = a.summaryRepo.UpsertDriverSummary(&model.DriverSummary{
			SurveyID:      survey.SurveyID,
			TeamID:        teamID,
			DriverID:      driverID,
			AvgScore:      stats.AvgScore,
			DetractorsPct: stats.DetractorsPct,
			PassivesPct:   stats.PassivesPct,
			PromotersPct:  stats.PromotersPct,
			DeltaVsPrev:   delta,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RunSentiment is job C. Only comments with an NLP row count; a team
// whose comments are all untagged gets no sentiment row yet.
func (a *Aggregator) RunSentiment(ctx context.Context) error {
	return a.forEachTeamUnit(ctx, "sentiment", a.buildSentiment)
}

func (a *Aggregator) sentimentShares(surveyID, teamID string) (SentimentStats, int, error) {
	tagged, err := a.commentRepo.ListTagged(surveyID, teamID)
	if err != nil {
		return SentimentStats{}, 0, err
	}
	var pos, neu, neg int
	for _, tc := range tagged {
		switch tc.Sentiment {
		case model.SentimentPositive:
			pos++
		case model.SentimentNegative:
			neg++
		default:
			neu++
		}
	}
	return ComputeSentimentStats(pos, neu, neg), len(tagged), nil
}

func (a *Aggregator) buildSentiment(_ context.Context, survey *model.Survey, teamID string) error {
	stats, total, err := a.sentimentShares(survey.SurveyID, teamID)
	if err != nil {
		return err
	}
	if total == 0 {
		return nil
	}
	var delta float64
	prior, err := a.surveyRepo.PriorSurveyWithResponses(survey, teamID)
	if err != nil {
		return err
	}
	if prior != nil {
		priorStats, priorTotal, err := a.sentimentShares(prior.SurveyID, teamID)
		if err != nil {
			return err
		}
		if priorTotal > 0 {
			delta = Round1(stats.NegPct - priorStats.NegPct)
		}
	}
	return a.summaryRepo.UpsertSentiment(&model.SentimentSummary{
		SurveyID:    survey.SurveyID,
		TeamID:      teamID,
		PosPct:      stats.PosPct,
		NeuPct:      stats.NeuPct,
		NegPct:      stats.NegPct,
		DeltaVsPrev: delta,
	})
}

// RunTrends is job D. Surveys are folded oldest first so the last
// survey of a month deterministically wins its (team, driver, month)
// point on every run.
func (a *Aggregator) RunTrends(ctx context.Context) error {
	orgs, err := a.orgRepo.ListOrganizations()
	if err != nil {
		return err
	}
	for _, org := range orgs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		surveys, err := a.surveyRepo.ListSurveysByOrg(org.OrgID)
		if err != nil {
			return err
		}
		// ListSurveysByOrg is newest first; walk backwards for oldest first.
		for i := len(surveys) - 1; i >= 0; i-- {
			survey := surveys[i]
			a.runUnit(ctx, "trends", survey.SurveyID, func(context.Context) error {
				return a.foldTrend(survey)
			})
		}
	}
	return nil
}

func (a *Aggregator) foldTrend(survey *model.Survey) error {
	rows, err := a.summaryRepo.ListDriverSummariesBySurvey(survey.SurveyID)
	if err != nil {
		return err
	}
	month := survey.PeriodMonth()
	for _, row := range rows {
		err := a.summaryRepo.UpsertTrend(&model.OrgDriverTrend{
			TeamID:      row.TeamID,
			DriverID:    row.DriverID,
			PeriodMonth: month,
			AvgScore:    row.AvgScore,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
