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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalScheduler(t *testing.T) {
	assert.Nil(t, Get())
	assert.ErrorIs(t, AddFunc("@hourly", func() error { return nil }, "too-early"), ErrNotInitialized)
	assert.Empty(t, Entries())

	Init()
	first := Get()
	require.NotNil(t, first)
	// A second Init is a no-op; the instance survives.
	Init()
	assert.Same(t, first, Get())

	require.NoError(t, AddFunc("@hourly", func() error { return nil }, "rollup"))
	assert.ErrorIs(t, AddFunc("@hourly", func() error { return nil }, "rollup"), ErrDuplicateJob)

	entries := Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "rollup", entries[0].Name)
	assert.Equal(t, "@hourly", entries[0].Spec)

	Start()
	Stop()
}
