package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

/**
 * @file: model_reports_cache.go
 * @description: materialized per-period report digests
 */

// ScopeOrg is the org-wide report scope.
const ScopeOrg = "org"

// TeamScope formats the per-team report scope key.
func TeamScope(teamID string) string {
	return "team:" + teamID
}

// ReportsCache is the durable digest store keyed by
// (org, scope, period). Rows are replaced whole, never patched.
type ReportsCache struct {
	BaseModel
	OrgID       string         `gorm:"column:org_id;index:idx_reports_key,unique" json:"orgId"`
	Scope       string         `gorm:"column:scope;index:idx_reports_key,unique" json:"scope"`
	PeriodStart time.Time      `gorm:"column:period_start;index:idx_reports_key,unique" json:"periodStart"`
	PeriodEnd   time.Time      `gorm:"column:period_end;index:idx_reports_key,unique" json:"periodEnd"`
	Payload     datatypes.JSON `gorm:"column:payload;type:json" json:"payload"`
}

func (ReportsCache) TableName() string {
	return "t_reports_cache"
}

// Period is a calendar month: period_start is the first day, period_end
// the last day, both UTC midnight.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthPeriod returns the calendar month period containing t.
func MonthPeriod(t time.Time) Period {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// Key formats the period for cache keys, e.g. "2026-08".
func (p Period) Key() string {
	return p.Start.Format("2006-01")
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// ReportsCacheKeyPrefix is the redis namespace for one org's cached
// report payloads. Intake invalidates by this prefix.
func ReportsCacheKeyPrefix(orgID string) string {
	return "pulse:reports:" + orgID + ":"
}

// ReportsCacheKey formats the redis key for one digest.
func ReportsCacheKey(orgID, scope string, p Period) string {
	return ReportsCacheKeyPrefix(orgID) + scope + ":" + p.Key()
}
