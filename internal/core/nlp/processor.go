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

package nlp

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/internal/pkg/queue"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/go-pulse/pulse/pkg/metrics"
	"github.com/hibiken/asynq"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Processor consumes comment tag tasks. Processing is idempotent: the
// NLP row is upserted by comment id, and masking placeholders do not
// match the PII patterns, so a redelivered task converges on the same
// stored state.
type Processor struct {
	orgRepo     repo.IOrganizationRepository
	commentRepo repo.ICommentRepository
	tagger      Tagger
}

func NewProcessor(orgRepo repo.IOrganizationRepository, commentRepo repo.ICommentRepository, tagger Tagger) *Processor {
	return &Processor{orgRepo: orgRepo, commentRepo: commentRepo, tagger: tagger}
}

// HandleCommentTag is the task handler registered for queue.TypeCommentTag.
func (p *Processor) HandleCommentTag(ctx context.Context, task *asynq.Task) error {
	var payload queue.CommentTagPayload
	if err := sonic.Unmarshal(task.Payload(), &payload); err != nil {
		metrics.NLPTasksProcessedTotal.WithLabelValues("malformed").Inc()
		return errors.Wrapf(asynq.SkipRetry, "malformed payload: %v", err)
	}
	if err := p.process(ctx, payload); err != nil {
		metrics.NLPTasksProcessedTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.NLPTasksProcessedTotal.WithLabelValues("ok").Inc()
	return nil
}

func (p *Processor) process(ctx context.Context, payload queue.CommentTagPayload) error {
	comment, err := p.commentRepo.GetCommentByID(payload.CommentID)
	if err != nil {
		return errors.Wrap(err, "load comment")
	}
	if comment == nil {
		// Comment was never committed; nothing to tag.
		log.Warnw("comment tag task for unknown comment", "commentId", payload.CommentID)
		return nil
	}
	org, err := p.orgRepo.GetOrganizationByID(payload.OrgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(asynq.SkipRetry, "org %s not found", payload.OrgID)
		}
		return errors.Wrap(err, "load org")
	}

	text := comment.Text
	masked := false
	if org.PiiMaskingEnabled {
		maskedText, changed := MaskPII(text)
		if changed {
			if err := p.commentRepo.ReplaceText(comment.CommentID, maskedText); err != nil {
				return errors.Wrap(err, "replace comment text")
			}
			text = maskedText
		}
		masked = true
	}

	res, err := p.tagger.Tag(ctx, text)
	if err != nil {
		return errors.Wrapf(err, "tag comment %s", comment.CommentID)
	}
	themes, err := sonic.Marshal(res.Themes)
	if err != nil {
		return errors.Wrap(err, "marshal themes")
	}
	row := &model.CommentNLP{
		CommentID:   comment.CommentID,
		Sentiment:   res.Sentiment,
		Themes:      string(themes),
		PiiMasked:   masked,
		ProcessedAt: time.Now(),
	}
	if err := p.commentRepo.UpsertNLP(row); err != nil {
		return errors.Wrap(err, "upsert nlp row")
	}
	log.Debugw("comment tagged",
		"commentId", comment.CommentID,
		"sentiment", res.Sentiment,
		"themes", fmt.Sprintf("%v", res.Themes))
	return nil
}
