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
	"context"
	"time"

	"github.com/go-pulse/pulse/pkg/cron"
)

// Cadences holds the cron specs for jobs A-F. Zero values fall back to
// the platform defaults.
type Cadences struct {
	Participation string `mapstructure:"participation"` // job A
	Driver        string `mapstructure:"driver"`        // job B
	Sentiment     string `mapstructure:"sentiment"`     // job C
	Trends        string `mapstructure:"trends"`        // job D
	Alerts        string `mapstructure:"alerts"`        // job E
	Reports       string `mapstructure:"reports"`       // job F
}

func (c *Cadences) withDefaults() Cadences {
	out := *c
	if out.Participation == "" {
		out.Participation = "@every 5m"
	}
	if out.Driver == "" {
		out.Driver = "@every 10m"
	}
	if out.Sentiment == "" {
		out.Sentiment = "@every 10m"
	}
	if out.Trends == "" {
		out.Trends = "@every 15m"
	}
	if out.Alerts == "" {
		out.Alerts = "@every 15m"
	}
	if out.Reports == "" {
		out.Reports = "@daily"
	}
	return out
}

// AlertSweeper is job E; the alert package provides it.
type AlertSweeper interface {
	RunOnce(ctx context.Context) error
}

const jobRunTimeout = 4 * time.Minute

// Runner binds the aggregation jobs to the scheduler. Driver and
// sentiment ticks rerun participation first so respondent counts are
// never older than the summaries derived from them.
type Runner struct {
	agg     *Aggregator
	reports *Reports
	alerts  AlertSweeper
	conf    Cadences
}

func NewRunner(agg *Aggregator, reports *Reports, alerts AlertSweeper, conf Cadences) *Runner {
	return &Runner{agg: agg, reports: reports, alerts: alerts, conf: conf.withDefaults()}
}

func withTimeout(fn func(ctx context.Context) error) func() error {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), jobRunTimeout)
		defer cancel()
		return fn(ctx)
	}
}

// Register adds all six jobs to the scheduler.
func (r *Runner) Register(c *cron.Cron) error {
	jobs := []struct {
		name string
		spec string
		fn   func(ctx context.Context) error
	}{
		{"aggregate:participation", r.conf.Participation, r.agg.RunParticipation},
		{"aggregate:driver", r.conf.Driver, func(ctx context.Context) error {
			if err := r.agg.RunParticipation(ctx); err != nil {
				return err
			}
			return r.agg.RunDriverSummary(ctx)
		}},
		{"aggregate:sentiment", r.conf.Sentiment, func(ctx context.Context) error {
			if err := r.agg.RunParticipation(ctx); err != nil {
				return err
			}
			return r.agg.RunSentiment(ctx)
		}},
		{"aggregate:trends", r.conf.Trends, r.agg.RunTrends},
		{"alert:sweep", r.conf.Alerts, r.alerts.RunOnce},
		{"reports:daily", r.conf.Reports, r.reports.RunDaily},
	}
	for _, j := range jobs {
		if err := c.AddFunc(j.spec, withTimeout(j.fn), j.name); err != nil {
			return err
		}
	}
	return nil
}
