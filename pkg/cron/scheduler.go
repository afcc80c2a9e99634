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

package cron

import (
	"errors"
	"sync"
	"time"

	"github.com/go-pulse/pulse/pkg/log"
	"github.com/go-pulse/pulse/pkg/safe"
	robfig "github.com/robfig/cron/v3"
)

var (
	// ErrNotInitialized is returned when trying to use the global cron before initialization
	ErrNotInitialized = errors.New("global cron instance is not initialized")
	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job name already registered")
	// ErrUnknownJob is returned when removing a job that was never registered
	ErrUnknownJob = errors.New("unknown job name")
)

// MetricsRecorder observes job runs. Implementations must be non-blocking.
type MetricsRecorder interface {
	JobStarted(name string)
	JobFinished(name string, d time.Duration, err error)
}

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

// Cron schedules named jobs. Job funcs run on the scheduler goroutine
// pool of robfig/cron; panics are recovered per run.
type Cron struct {
	inner    *robfig.Cron
	mu       sync.Mutex
	jobs     map[string]robfig.EntryID
	specs    map[string]string
	recorder MetricsRecorder
}

// OpOption configures a Cron instance.
type OpOption func(*Cron)

// WithMetricsRecorder attaches a metrics recorder to every job run.
func WithMetricsRecorder(r MetricsRecorder) OpOption {
	return func(c *Cron) { c.recorder = r }
}

// New creates a scheduler supporting standard cron specs plus @every.
func New(opts ...OpOption) *Cron {
	c := &Cron{
		inner: robfig.New(robfig.WithParser(robfig.NewParser(
			robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow | robfig.Descriptor,
		))),
		jobs:  make(map[string]robfig.EntryID),
		specs: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddFunc registers a named job with a cron spec.
func (c *Cron) AddFunc(spec string, cmd func() error, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.jobs[name]; ok {
		return ErrDuplicateJob
	}

	id, err := c.inner.AddFunc(spec, func() {
		c.run(name, cmd)
	})
	if err != nil {
		return err
	}
	c.jobs[name] = id
	c.specs[name] = spec
	return nil
}

func (c *Cron) run(name string, cmd func() error) {
	if c.recorder != nil {
		c.recorder.JobStarted(name)
	}
	start := time.Now()
	var err error
	safe.Do(func() {
		err = cmd()
	})
	if err != nil {
		log.Errorw("cron job failed", "job", name, "error", err)
	}
	if c.recorder != nil {
		c.recorder.JobFinished(name, time.Since(start), err)
	}
}

// Remove unregisters a named job.
func (c *Cron) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.jobs[name]
	if !ok {
		return ErrUnknownJob
	}
	c.inner.Remove(id)
	delete(c.jobs, name)
	delete(c.specs, name)
	return nil
}

// Entries returns all registered jobs.
func (c *Cron) Entries() []*Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]*Entry, 0, len(c.jobs))
	for name, id := range c.jobs {
		e := c.inner.Entry(id)
		entries = append(entries, &Entry{
			Name: name,
			Spec: c.specs[name],
			Next: e.Next,
			Prev: e.Prev,
		})
	}
	return entries
}

// Start starts the scheduler.
func (c *Cron) Start() {
	c.inner.Start()
}

// Stop stops the scheduler and waits for running jobs to complete.
func (c *Cron) Stop() {
	<-c.inner.Stop().Done()
}
