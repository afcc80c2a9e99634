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

import "sync"

var (
	globalCron *Cron
	globalMu   sync.RWMutex
	once       sync.Once
)

// Init initializes the global cron instance.
func Init(opts ...OpOption) {
	once.Do(func() {
		globalMu.Lock()
		defer globalMu.Unlock()
		globalCron = New(opts...)
	})
}

// Get returns the global cron instance.
// Returns nil if not initialized.
func Get() *Cron {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalCron
}

// Start starts the global cron scheduler.
func Start() {
	if c := Get(); c != nil {
		c.Start()
	}
}

// Stop stops the global cron scheduler.
func Stop() {
	if c := Get(); c != nil {
		c.Stop()
	}
}

// AddFunc adds a named func to the global cron instance.
func AddFunc(spec string, cmd func() error, name string) error {
	c := Get()
	if c == nil {
		return ErrNotInitialized
	}
	return c.AddFunc(spec, cmd, name)
}

// Entries returns all entries from the global cron instance.
func Entries() []*Entry {
	c := Get()
	if c == nil {
		return nil
	}
	return c.Entries()
}
