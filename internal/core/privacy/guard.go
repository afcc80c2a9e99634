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

// Package privacy implements the min-n guard. Every read path must pass
// through it before surfacing aggregates; suppression is a value, never
// an error.
package privacy

import (
	"github.com/go-pulse/pulse/internal/core/model"
)

// Verdict is the outcome of a min-n check.
type Verdict struct {
	Safe    bool
	Message string // the org's safe-fallback message when !Safe
}

// Guard reports whether an aggregate over respondentCount respondents may
// be revealed for the org. Pure function of its inputs.
func Guard(org *model.Organization, respondentCount int) Verdict {
	if respondentCount >= org.EffectiveMinN() {
		return Verdict{Safe: true}
	}
	return Verdict{Safe: false, Message: org.FallbackMessage()}
}

// Row is one team-scoped row of a multi-team view.
type Row struct {
	TeamID      string
	Respondents int
	Data        interface{}
}

// MaskedRows is a multi-team view with unsafe rows replaced, not omitted.
type MaskedRows struct {
	Rows            []Row
	HiddenRowsCount int
}

// MaskRows replaces each unsafe row's data with the fallback marker and
// counts hidden rows. Row order is preserved.
func MaskRows(org *model.Organization, rows []Row) MaskedRows {
	out := MaskedRows{Rows: make([]Row, 0, len(rows))}
	for _, row := range rows {
		v := Guard(org, row.Respondents)
		if !v.Safe {
			row.Data = v.Message
			out.HiddenRowsCount++
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// ExportCheck is the outcome of gating an export request.
type ExportCheck struct {
	Success       bool
	UnsafeTeamIDs []string
}

// CheckExport blocks an export listing unsafe teams unless the caller
// opted to exclude them. Unsafe teams are always reported by id.
func CheckExport(org *model.Organization, respondentsByTeam map[string]int, teamIDs []string, excludeUnsafe bool) ExportCheck {
	var unsafeIDs []string
	for _, teamID := range teamIDs {
		if !Guard(org, respondentsByTeam[teamID]).Safe {
			unsafeIDs = append(unsafeIDs, teamID)
		}
	}
	if len(unsafeIDs) == 0 {
		return ExportCheck{Success: true}
	}
	return ExportCheck{Success: excludeUnsafe, UnsafeTeamIDs: unsafeIDs}
}
