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
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/pkg/id"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// DefaultTokenTTL bounds token validity when issuance does not set one.
const DefaultTokenTTL = 14 * 24 * time.Hour

const tokenBytes = 24

// HashToken derives the stored lookup key from a plaintext token. The
// pepper is server-side config; a leaked token table alone cannot be
// matched against captured plaintexts.
func HashToken(pepper, plaintext string) string {
	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// TokenLogic issues and inspects single-use survey tokens. Redemption
// itself happens inside the intake transaction.
type TokenLogic struct {
	tokenRepo  repo.ITokenRepository
	surveyRepo repo.ISurveyRepository
	auditRepo  repo.IAuditRepository
	pepper     string
}

func NewTokenLogic(tokenRepo repo.ITokenRepository, surveyRepo repo.ISurveyRepository,
	auditRepo repo.IAuditRepository, pepper string) *TokenLogic {
	return &TokenLogic{
		tokenRepo:  tokenRepo,
		surveyRepo: surveyRepo,
		auditRepo:  auditRepo,
		pepper:     pepper,
	}
}

// IssueReq describes one token to mint.
type IssueReq struct {
	SurveyID   string
	TeamID     string
	EmployeeID string // optional; recorded on the token row only
	TTL        time.Duration
}

// IssuedToken pairs the one-time plaintext with its stored row. The
// plaintext exists only in this value; it is never persisted or logged.
type IssuedToken struct {
	Plaintext string
	Token     *model.SurveyToken
}

// Issue mints a token for an active survey. The plaintext is returned
// exactly once.
func (l *TokenLogic) Issue(ctx context.Context, req IssueReq) (*IssuedToken, error) {
	survey, err := l.surveyRepo.GetSurveyByID(req.SurveyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Errorf("survey %s not found", req.SurveyID)
		}
		return nil, err
	}
	if survey.Status != model.SurveyStatusActive {
		return nil, ErrSurveyClosed
	}

	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, errors.Wrap(err, "generate token")
	}
	plaintext := base64.RawURLEncoding.EncodeToString(raw)

	ttl := req.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := time.Now()
	row := &model.SurveyToken{
		TokenHash:  HashToken(l.pepper, plaintext),
		SurveyID:   req.SurveyID,
		TeamID:     req.TeamID,
		EmployeeID: req.EmployeeID,
		IssuedAt:   now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := l.tokenRepo.CreateToken(row); err != nil {
		return nil, errors.Wrap(err, "store token")
	}
	if err := l.auditRepo.Append(&model.AuditRecord{
		AuditID:  id.GetULID(),
		OrgID:    survey.OrgID,
		Action:   model.AuditTokenIssue,
		EntityID: req.SurveyID,
		Actor:    "system",
		Detail:   fmt.Sprintf("team=%s ttl=%s", req.TeamID, ttl),
		At:       now,
	}); err != nil {
		log.Warnw("audit append failed", "action", model.AuditTokenIssue, "err", err)
	}
	return &IssuedToken{Plaintext: plaintext, Token: row}, nil
}

// IssueBatch mints one token per entry of a team roster. Partial failure
// returns what was minted so far along with the error.
func (l *TokenLogic) IssueBatch(ctx context.Context, surveyID, teamID string, employeeIDs []string, ttl time.Duration) ([]*IssuedToken, error) {
	tokens := make([]*IssuedToken, 0, len(employeeIDs))
	for _, empID := range employeeIDs {
		t, err := l.Issue(ctx, IssueReq{SurveyID: surveyID, TeamID: teamID, EmployeeID: empID, TTL: ttl})
		if err != nil {
			return tokens, errors.Wrapf(err, "issue for employee %s", empID)
		}
		tokens = append(tokens, t)
	}
	return tokens, nil
}

// TokenStatus is the inspection view of a token. It never includes the
// employee binding.
type TokenStatus struct {
	SurveyID  string     `json:"surveyId"`
	TeamID    string     `json:"teamId"`
	Used      bool       `json:"used"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Expired   bool       `json:"expired"`
}

// Lookup resolves a plaintext token to its status. Unknown hashes return
// ErrTokenNotFound.
func (l *TokenLogic) Lookup(ctx context.Context, plaintext string) (*TokenStatus, error) {
	row, err := l.tokenRepo.GetByHash(HashToken(l.pepper, plaintext))
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrTokenNotFound
	}
	return &TokenStatus{
		SurveyID:  row.SurveyID,
		TeamID:    row.TeamID,
		Used:      row.Used,
		UsedAt:    row.UsedAt,
		ExpiresAt: row.ExpiresAt,
		Expired:   row.Expired(time.Now()),
	}, nil
}
