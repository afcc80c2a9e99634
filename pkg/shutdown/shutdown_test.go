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

package shutdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownOnce(t *testing.T) {
	m := NewManager()
	assert.False(t, m.IsShuttingDown())

	assert.True(t, m.Shutdown())
	assert.True(t, m.IsShuttingDown())

	assert.False(t, m.Shutdown(), "second trigger reports already shutting down")
}

func TestWaitReceivesSignal(t *testing.T) {
	m := NewManager()
	m.Shutdown()

	select {
	case <-m.Wait():
	default:
		t.Fatal("expected shutdown signal on the channel")
	}
}
