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

// Package aggregate rebuilds the summary tables from raw responses.
// Every job is an idempotent batch: re-running on unchanged inputs
// yields identical rows.
package aggregate

import "math"

// Round1 rounds half away from zero to one decimal place. All stored
// percentages and averages go through it.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// DriverStats is the computed row for one (survey, team, driver).
type DriverStats struct {
	AvgScore      float64
	DetractorsPct float64
	PassivesPct   float64
	PromotersPct  float64
}

// ComputeDriverStats derives averages and eNPS buckets from raw scores.
// Detractors are <= 6, passives 7..8, promoters >= 9. Zero scores give
// a zero value; callers skip upserting in that case.
func ComputeDriverStats(scores []int) DriverStats {
	if len(scores) == 0 {
		return DriverStats{}
	}
	var sum, detractors, passives, promoters int
	for _, s := range scores {
		sum += s
		switch {
		case s <= 6:
			detractors++
		case s <= 8:
			passives++
		default:
			promoters++
		}
	}
	n := float64(len(scores))
	return DriverStats{
		AvgScore:      Round1(float64(sum) / n),
		DetractorsPct: Round1(float64(detractors) / n * 100),
		PassivesPct:   Round1(float64(passives) / n * 100),
		PromotersPct:  Round1(float64(promoters) / n * 100),
	}
}

// SentimentStats is the computed row for one (survey, team).
type SentimentStats struct {
	PosPct float64
	NeuPct float64
	NegPct float64
}

// ComputeSentimentStats derives sentiment shares from label counts.
func ComputeSentimentStats(pos, neu, neg int) SentimentStats {
	total := pos + neu + neg
	if total == 0 {
		return SentimentStats{}
	}
	n := float64(total)
	return SentimentStats{
		PosPct: Round1(float64(pos) / n * 100),
		NeuPct: Round1(float64(neu) / n * 100),
		NegPct: Round1(float64(neg) / n * 100),
	}
}

// ParticipationPct returns respondents over team size as a percentage,
// 0 for sizeless teams.
func ParticipationPct(respondents, teamSize int) float64 {
	if teamSize <= 0 {
		return 0
	}
	return Round1(float64(respondents) / float64(teamSize) * 100)
}
