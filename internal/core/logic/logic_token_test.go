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
	"testing"
	"time"

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/internal/pkg/dbtest"
	"github.com/go-pulse/pulse/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPepper = "test-pepper"

func newTokenFixture(t *testing.T) (*TokenLogic, repo.ITokenRepository, database.IDatabase) {
	db := dbtest.New(t)
	tokenRepo := repo.NewTokenRepo(db)
	surveyRepo := repo.NewSurveyRepo(db)
	auditRepo := repo.NewAuditRepo(db)

	now := time.Now()
	require.NoError(t, surveyRepo.CreateSurvey(&model.Survey{
		SurveyID: "s1",
		OrgID:    "org1",
		Title:    "Pulse Q3",
		Status:   model.SurveyStatusActive,
		OpensAt:  now.Add(-24 * time.Hour),
		ClosesAt: now.Add(24 * time.Hour),
	}))
	require.NoError(t, surveyRepo.CreateSurvey(&model.Survey{
		SurveyID: "s-closed",
		OrgID:    "org1",
		Title:    "Pulse Q2",
		Status:   model.SurveyStatusClosed,
		OpensAt:  now.Add(-60 * 24 * time.Hour),
		ClosesAt: now.Add(-30 * 24 * time.Hour),
	}))
	require.NoError(t, surveyRepo.CreateSurvey(&model.Survey{
		SurveyID: "s-draft",
		OrgID:    "org1",
		Title:    "Pulse Q4",
		Status:   model.SurveyStatusDraft,
		OpensAt:  now.Add(30 * 24 * time.Hour),
		ClosesAt: now.Add(60 * 24 * time.Hour),
	}))
	return NewTokenLogic(tokenRepo, surveyRepo, auditRepo, testPepper), tokenRepo, db
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("pepper-a", "tok")
	h2 := HashToken("pepper-a", "tok")
	h3 := HashToken("pepper-b", "tok")

	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3, "hash must depend on the pepper")
	assert.Len(t, h1, 64)
}

func TestIssueStoresOnlyHash(t *testing.T) {
	l, _, db := newTokenFixture(t)

	issued, err := l.Issue(context.Background(), IssueReq{SurveyID: "s1", TeamID: "team1"})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Plaintext)

	assert.NotEqual(t, issued.Plaintext, issued.Token.TokenHash)
	assert.Equal(t, HashToken(testPepper, issued.Plaintext), issued.Token.TokenHash)

	// The plaintext must not appear anywhere in the token table.
	var count int64
	err = db.Database().Model(&model.SurveyToken{}).
		Where("token_hash = ?", issued.Plaintext).
		Count(&count).Error
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIssueDefaultsTTL(t *testing.T) {
	l, _, _ := newTokenFixture(t)

	issued, err := l.Issue(context.Background(), IssueReq{SurveyID: "s1", TeamID: "team1"})
	require.NoError(t, err)
	want := time.Now().Add(DefaultTokenTTL)
	assert.WithinDuration(t, want, issued.Token.ExpiresAt, time.Minute)
}

func TestIssueInactiveSurvey(t *testing.T) {
	l, _, _ := newTokenFixture(t)

	// Only active surveys mint tokens; closed and draft both refuse.
	_, err := l.Issue(context.Background(), IssueReq{SurveyID: "s-closed", TeamID: "team1"})
	assert.ErrorIs(t, err, ErrSurveyClosed)

	_, err = l.Issue(context.Background(), IssueReq{SurveyID: "s-draft", TeamID: "team1"})
	assert.ErrorIs(t, err, ErrSurveyClosed)
}

func TestIssueBatch(t *testing.T) {
	l, tokenRepo, _ := newTokenFixture(t)

	issued, err := l.IssueBatch(context.Background(), "s1", "team1",
		[]string{"e1", "e2", "e3"}, time.Hour)
	require.NoError(t, err)
	require.Len(t, issued, 3)

	// Every token resolves independently and none collide.
	seen := make(map[string]struct{})
	for _, tok := range issued {
		row, err := tokenRepo.GetByHash(tok.Token.TokenHash)
		require.NoError(t, err)
		require.NotNil(t, row)
		assert.False(t, row.Used)
		seen[tok.Plaintext] = struct{}{}
	}
	assert.Len(t, seen, 3)
}

func TestLookup(t *testing.T) {
	l, _, _ := newTokenFixture(t)

	issued, err := l.Issue(context.Background(), IssueReq{SurveyID: "s1", TeamID: "team1"})
	require.NoError(t, err)

	status, err := l.Lookup(context.Background(), issued.Plaintext)
	require.NoError(t, err)
	assert.Equal(t, "s1", status.SurveyID)
	assert.Equal(t, "team1", status.TeamID)
	assert.False(t, status.Used)
	assert.False(t, status.Expired)
	assert.Nil(t, status.UsedAt)
}

func TestLookupUnknownToken(t *testing.T) {
	l, _, _ := newTokenFixture(t)

	_, err := l.Lookup(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
