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

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/internal/pkg/queue"
	"github.com/go-pulse/pulse/pkg/cache"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/go-pulse/pulse/pkg/id"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Answer is one numeric score bound to a driver.
type Answer struct {
	DriverID string `json:"driverId"`
	Score    int    `json:"score"`
}

// CommentInput is one free-text answer, optionally bound to a driver.
type CommentInput struct {
	DriverID *string `json:"driverId,omitempty"`
	Text     string  `json:"text"`
}

// SubmissionReq is a full submission against one token.
type SubmissionReq struct {
	Token    string
	Meta     model.RedemptionMeta
	Answers  []Answer
	Comments []CommentInput
}

// SubmissionResult reports what was stored. It carries no identifiers
// linking back to the token.
type SubmissionResult struct {
	SurveyID      string
	TeamID        string
	ResponseCount int
	CommentCount  int
}

// IntakeLogic accepts submissions. A submission is all-or-nothing: the
// token transition, response rows, comment rows, and the audit record
// commit in one transaction. Tagging and cache invalidation happen
// after commit and are best-effort.
type IntakeLogic struct {
	db           database.IDatabase
	orgRepo      repo.IOrganizationRepository
	surveyRepo   repo.ISurveyRepository
	tokenRepo    repo.ITokenRepository
	responseRepo repo.IResponseRepository
	commentRepo  repo.ICommentRepository
	auditRepo    repo.IAuditRepository
	reportsRepo  repo.IReportsCacheRepository
	enqueuer     queue.Enqueuer
	rdb          cache.ICache
	pepper       string
}

func NewIntakeLogic(db database.IDatabase, orgRepo repo.IOrganizationRepository,
	surveyRepo repo.ISurveyRepository, tokenRepo repo.ITokenRepository,
	responseRepo repo.IResponseRepository, commentRepo repo.ICommentRepository,
	auditRepo repo.IAuditRepository, reportsRepo repo.IReportsCacheRepository,
	enqueuer queue.Enqueuer, rdb cache.ICache, pepper string) *IntakeLogic {
	return &IntakeLogic{
		db:           db,
		orgRepo:      orgRepo,
		surveyRepo:   surveyRepo,
		tokenRepo:    tokenRepo,
		responseRepo: responseRepo,
		commentRepo:  commentRepo,
		auditRepo:    auditRepo,
		reportsRepo:  reportsRepo,
		enqueuer:     enqueuer,
		rdb:          rdb,
		pepper:       pepper,
	}
}

// Submit validates and stores one submission. Token errors, window
// errors, and schema errors all leave storage untouched.
func (l *IntakeLogic) Submit(ctx context.Context, req SubmissionReq) (*SubmissionResult, error) {
	now := time.Now()
	hash := HashToken(l.pepper, req.Token)

	token, err := l.tokenRepo.GetByHash(hash)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, ErrTokenNotFound
	}
	if token.Used {
		return nil, ErrTokenAlreadyUsed
	}
	if token.Expired(now) {
		return nil, ErrTokenExpired
	}

	survey, err := l.surveyRepo.GetSurveyByID(token.SurveyID)
	if err != nil {
		return nil, errors.Wrap(err, "load survey")
	}
	if !survey.AcceptsSubmissions(now) {
		return nil, ErrSurveyClosed
	}

	if err := l.validate(survey, req); err != nil {
		return nil, err
	}

	responses := make([]*model.NumericResponse, 0, len(req.Answers))
	for _, a := range req.Answers {
		responses = append(responses, &model.NumericResponse{
			ResponseID: id.GetULID(),
			SurveyID:   token.SurveyID,
			TeamID:     token.TeamID,
			DriverID:   a.DriverID,
			Score:      a.Score,
			Ts:         now,
		})
	}
	comments := make([]*model.Comment, 0, len(req.Comments))
	for _, c := range req.Comments {
		comments = append(comments, &model.Comment{
			CommentID: id.GetULID(),
			SurveyID:  token.SurveyID,
			TeamID:    token.TeamID,
			DriverID:  c.DriverID,
			Text:      c.Text,
			Ts:        now,
		})
	}

	err = l.db.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := l.tokenRepo.MarkUsedTx(tx, hash, req.Meta, now); err != nil {
			if errors.Is(err, repo.ErrTokenTaken) {
				return ErrTokenAlreadyUsed
			}
			return err
		}
		if err := l.responseRepo.CreateResponsesTx(tx, responses); err != nil {
			return errors.Wrap(err, "store responses")
		}
		if err := l.commentRepo.CreateCommentsTx(tx, comments); err != nil {
			return errors.Wrap(err, "store comments")
		}
		return l.auditRepo.AppendTx(tx, &model.AuditRecord{
			AuditID:  id.GetULID(),
			OrgID:    survey.OrgID,
			Action:   model.AuditTokenRedeem,
			EntityID: token.SurveyID,
			Actor:    "system",
			Detail:   "team=" + token.TeamID,
			At:       now,
		})
	})
	if err != nil {
		return nil, err
	}

	for _, c := range comments {
		if err := l.enqueuer.EnqueueCommentTag(ctx, queue.CommentTagPayload{
			CommentID: c.CommentID,
			OrgID:     survey.OrgID,
		}); err != nil {
			// The comment row is committed; a dropped task only delays
			// sentiment, it never loses the comment.
			log.Errorw("enqueue comment tag failed", "commentId", c.CommentID, "err", err)
		}
	}
	l.invalidateReports(ctx, survey.OrgID, token.TeamID, now)

	return &SubmissionResult{
		SurveyID:      token.SurveyID,
		TeamID:        token.TeamID,
		ResponseCount: len(responses),
		CommentCount:  len(comments),
	}, nil
}

// validate applies the submission schema. Duplicate drivers, unknown
// drivers, out-of-range scores, and missing required numeric questions
// are all rejections.
func (l *IntakeLogic) validate(survey *model.Survey, req SubmissionReq) error {
	if len(req.Answers) == 0 && len(req.Comments) == 0 {
		return schemaErr("answers", "submission is empty")
	}
	allowed, err := l.surveyRepo.SurveyDriverIDs(survey.SurveyID)
	if err != nil {
		return errors.Wrap(err, "load survey drivers")
	}
	seen := make(map[string]struct{}, len(req.Answers))
	for i, a := range req.Answers {
		if a.DriverID == "" {
			return schemaErr("answers", "answer %d has no driver", i)
		}
		if _, ok := allowed[a.DriverID]; !ok {
			return schemaErr("answers", "driver %s is not part of the survey", a.DriverID)
		}
		if _, dup := seen[a.DriverID]; dup {
			return schemaErr("answers", "duplicate answer for driver %s", a.DriverID)
		}
		seen[a.DriverID] = struct{}{}
		if a.Score < 0 || a.Score > 10 {
			return schemaErr("answers", "score %d for driver %s out of range [0,10]", a.Score, a.DriverID)
		}
	}
	for i, c := range req.Comments {
		if c.Text == "" {
			return schemaErr("comments", "comment %d is empty", i)
		}
		if c.DriverID != nil {
			if _, ok := allowed[*c.DriverID]; !ok {
				return schemaErr("comments", "driver %s is not part of the survey", *c.DriverID)
			}
		}
	}
	questions, err := l.surveyRepo.ListQuestions(survey.SurveyID)
	if err != nil {
		return errors.Wrap(err, "load survey questions")
	}
	for _, q := range questions {
		if !q.Required || q.Type != model.QuestionTypeNumeric {
			continue
		}
		if _, ok := seen[q.DriverID]; !ok {
			return schemaErr("answers", "required driver %s is missing", q.DriverID)
		}
	}
	return nil
}

// invalidateReports drops cached report payloads touched by a new
// submission: the durable digest rows for the org scope and the
// submitting team's scope in the current period, plus every redis
// mirror for the org. The next read rebuilds from summary rows.
func (l *IntakeLogic) invalidateReports(ctx context.Context, orgID, teamID string, now time.Time) {
	period := model.MonthPeriod(now)
	for _, scope := range []string{model.ScopeOrg, model.TeamScope(teamID)} {
		if err := l.reportsRepo.DeleteDigest(orgID, scope, period); err != nil {
			log.Warnw("digest invalidation failed",
				"orgId", orgID, "scope", scope, "period", period.Key(), "err", err)
		}
	}

	if l.rdb == nil {
		return
	}
	pattern := model.ReportsCacheKeyPrefix(orgID) + "*"
	var cursor uint64
	for {
		keys, next, err := l.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			log.Warnw("reports cache scan failed", "orgId", orgID, "err", err)
			return
		}
		if len(keys) > 0 {
			if err := l.rdb.Del(ctx, keys...).Err(); err != nil {
				log.Warnw("reports cache delete failed", "orgId", orgID, "err", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
