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
	"time"

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/go-pulse/pulse/internal/core/repo"
	"github.com/go-pulse/pulse/pkg/id"
	"github.com/go-pulse/pulse/pkg/log"
	"github.com/pkg/errors"
)

// ErrAlertNotFound is returned for unknown alert ids.
var ErrAlertNotFound = errors.New("alert not found")

// ErrInvalidTransition is returned when a lifecycle move is not allowed
// from the alert's current status.
var ErrInvalidTransition = errors.New("invalid alert transition")

// Lifecycle applies the human side of an alert:
// open -> acknowledged -> resolved. Repeating a transition is a no-op.
type Lifecycle struct {
	alertRepo repo.IAlertRepository
	auditRepo repo.IAuditRepository
}

func NewLifecycle(alertRepo repo.IAlertRepository, auditRepo repo.IAuditRepository) *Lifecycle {
	return &Lifecycle{alertRepo: alertRepo, auditRepo: auditRepo}
}

// Acknowledge marks an open alert as seen by userID.
func (l *Lifecycle) Acknowledge(ctx context.Context, alertID, userID string) error {
	a, err := l.alertRepo.GetAlertByID(alertID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAlertNotFound
	}
	switch a.Status {
	case model.AlertStatusAcknowledged:
		return nil
	case model.AlertStatusResolved:
		return errors.Wrapf(ErrInvalidTransition, "alert %s is resolved", alertID)
	}
	now := time.Now()
	err = l.alertRepo.UpdateAlert(alertID, map[string]interface{}{
		"status":          model.AlertStatusAcknowledged,
		"acknowledged_at": now,
		"acknowledged_by": userID,
	})
	if err != nil {
		return err
	}
	l.audit(a.OrgID, model.AuditAlertAcknowledge, alertID, "by "+userID, now)
	return nil
}

// Resolve closes an open or acknowledged alert with notes.
func (l *Lifecycle) Resolve(ctx context.Context, alertID, resolverID, notes string) error {
	a, err := l.alertRepo.GetAlertByID(alertID)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAlertNotFound
	}
	if a.Status == model.AlertStatusResolved {
		return nil
	}
	now := time.Now()
	err = l.alertRepo.UpdateAlert(alertID, map[string]interface{}{
		"status":           model.AlertStatusResolved,
		"resolved_at":      now,
		"resolver_id":      resolverID,
		"resolution_notes": notes,
	})
	if err != nil {
		return err
	}
	l.audit(a.OrgID, model.AuditAlertResolve, alertID, notes, now)
	return nil
}

func (l *Lifecycle) audit(orgID, action, entityID, detail string, at time.Time) {
	err := l.auditRepo.Append(&model.AuditRecord{
		AuditID:  id.GetULID(),
		OrgID:    orgID,
		Action:   action,
		EntityID: entityID,
		Actor:    "user",
		Detail:   detail,
		At:       at,
	})
	if err != nil {
		log.Warnw("audit append failed", "action", action, "entityId", entityID, "err", err)
	}
}
