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

// Package alert evaluates summaries against per-org thresholds and
// manages the alert lifecycle. Suppressed scopes are never evaluated;
// an alert existing is itself a disclosure about a team.
package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/notify"
	"github.com/go-pulse/pulse/internal/core/privacy"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/pkg/id"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/go-pulse/pulse/pkg/metrics"
)

// condition is one triggered alert candidate for a (team, survey) scope.
type condition struct {
	alertType    string
	severity     string
	driverID     *string
	reason       string
	currentValue float64
	deltaPrev    float64
}

// Evaluator is job E. One run walks every active survey's teams,
// opens or upgrades alerts for triggered conditions, and auto-resolves
// open alerts whose condition cleared.
type Evaluator struct {
	orgRepo     repo.IOrganizationRepository
	surveyRepo  repo.ISurveyRepository
	summaryRepo repo.ISummaryRepository
	alertRepo   repo.IAlertRepository
	auditRepo   repo.IAuditRepository
	publisher   notify.AlertPublisher
}

func NewEvaluator(orgRepo repo.IOrganizationRepository, surveyRepo repo.ISurveyRepository,
	summaryRepo repo.ISummaryRepository, alertRepo repo.IAlertRepository,
	auditRepo repo.IAuditRepository, publisher notify.AlertPublisher) *Evaluator {
	return &Evaluator{
		orgRepo:     orgRepo,
		surveyRepo:  surveyRepo,
		summaryRepo: summaryRepo,
		alertRepo:   alertRepo,
		auditRepo:   auditRepo,
		publisher:   publisher,
	}
}

// RunOnce evaluates all active surveys. Per-scope failures are logged
// and do not stop the sweep.
func (e *Evaluator) RunOnce(ctx context.Context) error {
	surveys, err := e.surveyRepo.ListActiveSurveys()
	if err != nil {
		return err
	}
	orgs := make(map[string]*model.Organization)
	for _, survey := range surveys {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		org, ok := orgs[survey.OrgID]
		if !ok {
			if org, err = e.orgRepo.GetOrganizationByID(survey.OrgID); err != nil {
				log.Errorw("alert sweep: org load failed", "orgId", survey.OrgID, "err", err)
				continue
			}
			orgs[survey.OrgID] = org
		}
		parts, err := e.summaryRepo.ListParticipationBySurvey(survey.SurveyID)
		if err != nil {
			log.Errorw("alert sweep: participation load failed", "surveyId", survey.SurveyID, "err", err)
			continue
		}
		for _, part := range parts {
			if err := e.evaluateScope(ctx, org, survey, part); err != nil {
				log.Errorw("alert scope evaluation failed",
					"surveyId", survey.SurveyID, "teamId", part.TeamID, "err", err)
			}
		}
	}
	return nil
}

func (e *Evaluator) evaluateScope(ctx context.Context, org *model.Organization,
	survey *model.Survey, part *model.ParticipationSummary) error {
	// Suppressed teams are skipped entirely; no alert may reveal a
	// below-min-n scope.
	if !privacy.Guard(org, part.Respondents).Safe {
		return nil
	}
	th := org.EffectiveThresholds()

	var conds []condition
	conds = append(conds, participationConditions(part, th)...)

	drivers, err := e.summaryRepo.ListDriverSummaries(survey.SurveyID, part.TeamID)
	if err != nil {
		return err
	}
	for _, d := range drivers {
		conds = append(conds, driverConditions(d, th)...)
	}

	sentiment, err := e.summaryRepo.GetSentiment(survey.SurveyID, part.TeamID)
	if err != nil {
		return err
	}
	if sentiment != nil {
		conds = append(conds, sentimentConditions(sentiment, th)...)
	}

	recurring, err := e.recurringCondition(org, survey, part.TeamID, th)
	if err != nil {
		return err
	}
	if recurring != nil {
		conds = append(conds, *recurring)
	}

	triggered := make(map[string]struct{}, len(conds))
	for _, c := range conds {
		triggered[c.alertType] = struct{}{}
		if err := e.emit(ctx, org, survey, part.TeamID, c); err != nil {
			return err
		}
	}
	return e.autoResolve(survey, part.TeamID, triggered)
}

func participationConditions(part *model.ParticipationSummary, th model.AlertThresholds) []condition {
	var conds []condition
	if part.ParticipationPct < th.LowParticipation {
		sev := model.SeverityMedium
		if part.ParticipationPct < th.LowParticipation-20 {
			sev = model.SeverityHigh
		}
		conds = append(conds, condition{
			alertType:    model.AlertLowParticipation,
			severity:     sev,
			reason:       fmt.Sprintf("participation %.1f%% below threshold %.1f%%", part.ParticipationPct, th.LowParticipation),
			currentValue: part.ParticipationPct,
			deltaPrev:    part.DeltaPct,
		})
	}
	if part.DeltaPct <= -th.ParticipationDrop {
		sev := model.SeverityMedium
		if part.DeltaPct <= -2*th.ParticipationDrop {
			sev = model.SeverityHigh
		}
		conds = append(conds, condition{
			alertType:    model.AlertParticipationDrop,
			severity:     sev,
			reason:       fmt.Sprintf("participation dropped %.1f points (threshold %.1f)", -part.DeltaPct, th.ParticipationDrop),
			currentValue: part.ParticipationPct,
			deltaPrev:    part.DeltaPct,
		})
	}
	return conds
}

func driverConditions(d *model.DriverSummary, th model.AlertThresholds) []condition {
	var conds []condition
	driverID := d.DriverID
	if d.AvgScore < th.LowScore {
		sev := model.SeverityLow
		switch gap := th.LowScore - d.AvgScore; {
		case gap >= 0.5:
			sev = model.SeverityHigh
		case gap >= 0.2:
			sev = model.SeverityMedium
		}
		conds = append(conds, condition{
			alertType:    model.AlertLowScore,
			severity:     sev,
			driverID:     &driverID,
			reason:       fmt.Sprintf("driver %s avg score %.1f below threshold %.1f", driverID, d.AvgScore, th.LowScore),
			currentValue: d.AvgScore,
			deltaPrev:    d.DeltaVsPrev,
		})
	}
	if d.DeltaVsPrev <= -th.BigDropAbs {
		sev := model.SeverityMedium
		if d.DeltaVsPrev <= -2*th.BigDropAbs {
			sev = model.SeverityHigh
		}
		conds = append(conds, condition{
			alertType:    model.AlertBigDropAbs,
			severity:     sev,
			driverID:     &driverID,
			reason:       fmt.Sprintf("driver %s dropped %.1f points since previous survey (threshold %.1f)", driverID, -d.DeltaVsPrev, th.BigDropAbs),
			currentValue: d.AvgScore,
			deltaPrev:    d.DeltaVsPrev,
		})
	}
	if prior := d.AvgScore - d.DeltaVsPrev; d.DeltaVsPrev < 0 && prior > 0 && d.AvgScore <= prior*th.BigDropRel {
		sev := model.SeverityMedium
		if d.AvgScore <= prior*th.BigDropRel*0.9 {
			sev = model.SeverityHigh
		}
		conds = append(conds, condition{
			alertType:    model.AlertBigDropRel,
			severity:     sev,
			driverID:     &driverID,
			reason:       fmt.Sprintf("driver %s avg score %.1f is %.0f%% of previous %.1f", driverID, d.AvgScore, d.AvgScore/prior*100, prior),
			currentValue: d.AvgScore,
			deltaPrev:    d.DeltaVsPrev,
		})
	}
	if enps := d.ENPS(); enps < th.EnpsNegative {
		sev := model.SeverityMedium
		if enps <= th.EnpsNegative-20 {
			sev = model.SeverityHigh
		}
		conds = append(conds, condition{
			alertType:    model.AlertEnpsNeg,
			severity:     sev,
			driverID:     &driverID,
			reason:       fmt.Sprintf("driver %s eNPS %.1f below threshold %.1f", driverID, enps, th.EnpsNegative),
			currentValue: enps,
			deltaPrev:    d.DeltaVsPrev,
		})
	}
	return conds
}

func sentimentConditions(s *model.SentimentSummary, th model.AlertThresholds) []condition {
	if s.NegPct <= th.NegSentimentSpike {
		return nil
	}
	sev := model.SeverityMedium
	if s.NegPct > th.NegSentimentSpike+15 {
		sev = model.SeverityHigh
	}
	return []condition{{
		alertType:    model.AlertNegSentSpike,
		severity:     sev,
		reason:       fmt.Sprintf("negative sentiment %.1f%% above threshold %.1f%%", s.NegPct, th.NegSentimentSpike),
		currentValue: s.NegPct,
		deltaPrev:    s.DeltaVsPrev,
	}}
}

// recurringCondition checks whether LOW_SCORE (any single driver) or
// LOW_PARTICIPATION has held across the last recurring_count surveys.
// Partial history means no emission.
func (e *Evaluator) recurringCondition(org *model.Organization, survey *model.Survey,
	teamID string, th model.AlertThresholds) (*condition, error) {
	recent, err := e.surveyRepo.RecentSurveysWithResponses(org.OrgID, teamID, th.RecurringCount)
	if err != nil {
		return nil, err
	}
	if len(recent) < th.RecurringCount {
		return nil, nil
	}
	if recent[0].SurveyID != survey.SurveyID {
		// The scope being evaluated is no longer the team's latest survey.
		return nil, nil
	}

	lowPart := true
	for _, s := range recent {
		part, err := e.summaryRepo.GetParticipation(s.SurveyID, teamID)
		if err != nil {
			return nil, err
		}
		if part == nil || part.ParticipationPct >= th.LowParticipation {
			lowPart = false
			break
		}
	}
	if lowPart {
		return &condition{
			alertType: model.AlertRecurring,
			severity:  model.SeverityHigh,
			reason:    fmt.Sprintf("participation below %.1f%% for %d consecutive surveys", th.LowParticipation, th.RecurringCount),
		}, nil
	}

	// A driver qualifies only when it has a summary row below threshold
	// in every one of the recent surveys.
	lowByDriver := make(map[string]int)
	for _, s := range recent {
		rows, err := e.summaryRepo.ListDriverSummaries(s.SurveyID, teamID)
		if err != nil {
			return nil, err
		}
		for _, d := range rows {
			if d.AvgScore < th.LowScore {
				lowByDriver[d.DriverID]++
			}
		}
	}
	for driverID, n := range lowByDriver {
		if n >= th.RecurringCount {
			driverID := driverID
			return &condition{
				alertType: model.AlertRecurring,
				severity:  model.SeverityHigh,
				driverID:  &driverID,
				reason:    fmt.Sprintf("driver %s below %.1f for %d consecutive surveys", driverID, th.LowScore, th.RecurringCount),
			}, nil
		}
	}
	return nil, nil
}

// emit opens a new alert or upgrades a deduplicated one in place.
func (e *Evaluator) emit(ctx context.Context, org *model.Organization,
	survey *model.Survey, teamID string, c condition) error {
	existing, err := e.alertRepo.FindActive(teamID, survey.SurveyID, c.alertType)
	if err != nil {
		return err
	}
	now := time.Now()
	if existing != nil {
		if model.SeverityRank(c.severity) <= model.SeverityRank(existing.Severity) {
			return nil
		}
		err := e.alertRepo.UpdateAlert(existing.AlertID, map[string]interface{}{
			"severity":      c.severity,
			"reason":        c.reason,
			"current_value": c.currentValue,
			"delta_prev":    c.deltaPrev,
		})
		if err != nil {
			return err
		}
		e.audit(org.OrgID, model.AuditAlertUpgrade, existing.AlertID,
			fmt.Sprintf("severity %s -> %s", existing.Severity, c.severity), now)
		metrics.AlertsEmittedTotal.WithLabelValues(c.alertType, c.severity).Inc()
		e.publish(ctx, org.OrgID, &model.AlertEvent{
			AlertID:      existing.AlertID,
			Type:         c.alertType,
			Severity:     c.severity,
			TeamID:       teamID,
			SurveyID:     survey.SurveyID,
			Reason:       c.reason,
			CurrentValue: c.currentValue,
			DeltaPrev:    c.deltaPrev,
			CreatedAt:    existing.CreatedAt,
		})
		return nil
	}

	a := &model.Alert{
		AlertID:      id.GetULID(),
		OrgID:        org.OrgID,
		TeamID:       teamID,
		SurveyID:     survey.SurveyID,
		DriverID:     c.driverID,
		Type:         c.alertType,
		Severity:     c.severity,
		Status:       model.AlertStatusOpen,
		Reason:       c.reason,
		CurrentValue: c.currentValue,
		DeltaPrev:    c.deltaPrev,
	}
	if err := e.alertRepo.CreateAlert(a); err != nil {
		return err
	}
	e.audit(org.OrgID, model.AuditAlertOpen, a.AlertID, c.reason, now)
	metrics.AlertsEmittedTotal.WithLabelValues(c.alertType, c.severity).Inc()
	e.publish(ctx, org.OrgID, &model.AlertEvent{
		AlertID:      a.AlertID,
		Type:         c.alertType,
		Severity:     c.severity,
		TeamID:       teamID,
		SurveyID:     survey.SurveyID,
		Reason:       c.reason,
		CurrentValue: c.currentValue,
		DeltaPrev:    c.deltaPrev,
		CreatedAt:    now,
	})
	return nil
}

// autoResolve closes active alerts whose condition no longer holds.
func (e *Evaluator) autoResolve(survey *model.Survey, teamID string, triggered map[string]struct{}) error {
	active, err := e.alertRepo.ListActiveByScope(teamID, survey.SurveyID)
	if err != nil {
		return err
	}
	now := time.Now()
	for _, a := range active {
		if _, ok := triggered[a.Type]; ok {
			continue
		}
		err := e.alertRepo.UpdateAlert(a.AlertID, map[string]interface{}{
			"status":           model.AlertStatusResolved,
			"resolved_at":      now,
			"resolver_id":      "system",
			"resolution_notes": "condition cleared",
		})
		if err != nil {
			return err
		}
		e.audit(a.OrgID, model.AuditAlertResolve, a.AlertID, "condition cleared", now)
	}
	return nil
}

func (e *Evaluator) publish(ctx context.Context, orgID string, event *model.AlertEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(ctx, orgID, event); err != nil {
		// The alert row is the source of truth; a lost event only delays
		// external delivery.
		log.Errorw("alert event publish failed", "alertId", event.AlertID, "err", err)
	}
}

func (e *Evaluator) audit(orgID, action, entityID, detail string, at time.Time) {
	err := e.auditRepo.Append(&model.AuditRecord{
		AuditID:  id.GetULID(),
		OrgID:    orgID,
		Action:   action,
		EntityID: entityID,
		Actor:    "system",
		Detail:   detail,
		At:       at,
	})
	if err != nil {
		log.Warnw("audit append failed", "action", action, "entityId", entityID, "err", err)
	}
}
