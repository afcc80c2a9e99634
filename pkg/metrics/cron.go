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
	"time"
)

// CronRecorder implements cron.MetricsRecorder.
type CronRecorder struct{}

func (CronRecorder) JobStarted(name string) {
	JobRunsTotal.WithLabelValues(name).Inc()
}

func (CronRecorder) JobFinished(name string, d time.Duration, err error) {
	JobRunDurationSeconds.WithLabelValues(name).Observe(d.Seconds())
	if err != nil {
		JobErrorsTotal.WithLabelValues(name).Inc()
	}
}
