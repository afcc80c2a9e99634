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

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound1(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{6.84, 6.8},
		{6.85, 6.9},
		{-0.25, -0.3}, // half away from zero
		{0.0, 0.0},
		{100.0, 100.0},
		{33.333333, 33.3},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round1(tt.in), 1e-9, "Round1(%v)", tt.in)
	}
}

func TestComputeDriverStats(t *testing.T) {
	stats := ComputeDriverStats([]int{10, 9, 7, 5, 3})

	assert.InDelta(t, 6.8, stats.AvgScore, 1e-9)
	assert.InDelta(t, 40.0, stats.DetractorsPct, 1e-9)
	assert.InDelta(t, 20.0, stats.PassivesPct, 1e-9)
	assert.InDelta(t, 40.0, stats.PromotersPct, 1e-9)
}

func TestComputeDriverStatsBuckets(t *testing.T) {
	// 6 is a detractor, 7 and 8 are passives, 9 is a promoter.
	stats := ComputeDriverStats([]int{6, 7, 8, 9})
	assert.InDelta(t, 25.0, stats.DetractorsPct, 1e-9)
	assert.InDelta(t, 50.0, stats.PassivesPct, 1e-9)
	assert.InDelta(t, 25.0, stats.PromotersPct, 1e-9)
}

func TestComputeDriverStatsPctSumWithinRounding(t *testing.T) {
	// Three-way split rounds to 33.3 each; the sum must stay within
	// one rounding step of 100.
	stats := ComputeDriverStats([]int{2, 7, 10})
	sum := stats.DetractorsPct + stats.PassivesPct + stats.PromotersPct
	assert.GreaterOrEqual(t, sum, 99.9)
	assert.LessOrEqual(t, sum, 100.1)
}

func TestComputeDriverStatsEmpty(t *testing.T) {
	assert.Equal(t, DriverStats{}, ComputeDriverStats(nil))
}

func TestComputeSentimentStats(t *testing.T) {
	stats := ComputeSentimentStats(2, 1, 1)
	assert.InDelta(t, 50.0, stats.PosPct, 1e-9)
	assert.InDelta(t, 25.0, stats.NeuPct, 1e-9)
	assert.InDelta(t, 25.0, stats.NegPct, 1e-9)

	assert.Equal(t, SentimentStats{}, ComputeSentimentStats(0, 0, 0))
}

func TestParticipationPct(t *testing.T) {
	assert.InDelta(t, 50.0, ParticipationPct(5, 10), 1e-9)
	assert.InDelta(t, 66.7, ParticipationPct(2, 3), 1e-9)
	assert.InDelta(t, 0.0, ParticipationPct(3, 0), 1e-9, "sizeless team")
}
