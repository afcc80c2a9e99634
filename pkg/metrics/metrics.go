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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Registry is the process-wide registry for pulse collectors.
var Registry = prometheus.NewRegistry()

// MustRegister registers all pulse collectors exactly once.
func MustRegister() {
	registerOnce.Do(func() {
		Registry.MustRegister(
			JobRunsTotal,
			JobRunDurationSeconds,
			JobErrorsTotal,
			JobUnitsFailedTotal,
			NLPTasksEnqueuedTotal,
			NLPTasksProcessedTotal,
			AlertsEmittedTotal,
			ReportsCacheHitsTotal,
			ReportsCacheMissesTotal,
		)
	})
}

var (
	// JobRunsTotal counts the total number of aggregation job runs
	JobRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_job_runs_total",
			Help: "Total number of aggregation job runs",
		},
		[]string{"job_name"},
	)

	// JobRunDurationSeconds measures the duration of job runs
	JobRunDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pulse_job_run_duration_seconds",
			Help:    "Duration of aggregation job runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"job_name"},
	)

	// JobErrorsTotal counts the total number of job errors
	JobErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_job_errors_total",
			Help: "Total number of aggregation job errors",
		},
		[]string{"job_name"},
	)

	// JobUnitsFailedTotal counts failed (survey, team) units inside job runs
	JobUnitsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_job_units_failed_total",
			Help: "Total number of failed per-team units within job runs",
		},
		[]string{"job_name"},
	)

	// NLPTasksEnqueuedTotal counts comments enqueued for tagging
	NLPTasksEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_nlp_tasks_enqueued_total",
			Help: "Total number of comment tagging tasks enqueued",
		},
	)

	// NLPTasksProcessedTotal counts tagging task outcomes
	NLPTasksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_nlp_tasks_processed_total",
			Help: "Total number of comment tagging tasks processed",
		},
		[]string{"status"},
	)

	// AlertsEmittedTotal counts alerts created or upgraded by the evaluator
	AlertsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pulse_alerts_emitted_total",
			Help: "Total number of alerts emitted by the evaluator",
		},
		[]string{"type", "severity"},
	)

	// ReportsCacheHitsTotal counts digest reads served from cache
	ReportsCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_reports_cache_hits_total",
			Help: "Total number of report digest cache hits",
		},
	)

	// ReportsCacheMissesTotal counts digest reads that built synchronously
	ReportsCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pulse_reports_cache_misses_total",
			Help: "Total number of report digest cache misses",
		},
	)
)
