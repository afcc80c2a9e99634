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
	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaggedComment joins a comment with its NLP row for aggregation reads.
type TaggedComment struct {
	CommentID string
	SurveyID  string
	TeamID    string
	Sentiment string
	Themes    string
}

type ICommentRepository interface {
	CreateCommentsTx(tx *gorm.DB, rows []*model.Comment) error
	GetCommentByID(commentID string) (*model.Comment, error)
	// ReplaceText swaps the stored text for its masked form. Used by the
	// tagger exactly once per comment; reads never re-mask.
	ReplaceText(commentID, masked string) error
	// UpsertNLP writes the tagger output; processing a comment twice
	// produces the same row.
	UpsertNLP(n *model.CommentNLP) error
	GetNLP(commentID string) (*model.CommentNLP, error)
	// ListTagged returns comments having an NLP row for (survey, team).
	ListTagged(surveyID, teamID string) ([]*TaggedComment, error)
	// ListTaggedBySurvey returns tagged comments for all teams of a survey.
	ListTaggedBySurvey(surveyID string) ([]*TaggedComment, error)
}

type CommentRepo struct {
	database.IDatabase
}

func NewCommentRepo(db database.IDatabase) ICommentRepository {
	return &CommentRepo{IDatabase: db}
}

func (r *CommentRepo) CreateCommentsTx(tx *gorm.DB, rows []*model.Comment) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, 100).Error
}

func (r *CommentRepo) GetCommentByID(commentID string) (*model.Comment, error) {
	var c model.Comment
	err := r.Database().Where("comment_id = ?", commentID).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) ReplaceText(commentID, masked string) error {
	return r.Database().Model(&model.Comment{}).
		Where("comment_id = ?", commentID).
		Update("text", masked).Error
}

func (r *CommentRepo) UpsertNLP(n *model.CommentNLP) error {
	return r.Database().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"sentiment", "themes", "pii_masked", "processed_at"}),
	}).Create(n).Error
}

func (r *CommentRepo) GetNLP(commentID string) (*model.CommentNLP, error) {
	var n model.CommentNLP
	err := r.Database().Where("comment_id = ?", commentID).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *CommentRepo) ListTagged(surveyID, teamID string) ([]*TaggedComment, error) {
	var rows []*TaggedComment
	err := r.Database().Model(&model.Comment{}).
		Select("t_comment.comment_id, t_comment.survey_id, t_comment.team_id, t_comment_nlp.sentiment, t_comment_nlp.themes").
		Joins("JOIN t_comment_nlp ON t_comment_nlp.comment_id = t_comment.comment_id").
		Where("t_comment.survey_id = ? AND t_comment.team_id = ?", surveyID, teamID).
		Scan(&rows).Error
	return rows, err
}

func (r *CommentRepo) ListTaggedBySurvey(surveyID string) ([]*TaggedComment, error) {
	var rows []*TaggedComment
	err := r.Database().Model(&model.Comment{}).
		Select("t_comment.comment_id, t_comment.survey_id, t_comment.team_id, t_comment_nlp.sentiment, t_comment_nlp.themes").
		Joins("JOIN t_comment_nlp ON t_comment_nlp.comment_id = t_comment.comment_id").
		Where("t_comment.survey_id = ?", surveyID).
		Scan(&rows).Error
	return rows, err
}
