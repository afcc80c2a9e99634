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

package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskPII(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		changed bool
	}{
		{
			name:    "email",
			in:      "write to jane.doe@example.com about it",
			want:    "write to [email] about it",
			changed: true,
		},
		{
			name:    "phone",
			in:      "call me on +1 (555) 123-4567 tomorrow",
			want:    "call me on [phone] tomorrow",
			changed: true,
		},
		{
			name:    "handle",
			in:      "ping @teamlead about this",
			want:    "ping [handle] about this",
			changed: true,
		},
		{
			name:    "email is not half-eaten by the handle pattern",
			in:      "jane@example.com",
			want:    "[email]",
			changed: true,
		},
		{
			name:    "clean text untouched",
			in:      "workload is too high lately",
			want:    "workload is too high lately",
			changed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := MaskPII(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.changed, changed)
		})
	}
}

func TestMaskPIIIdempotent(t *testing.T) {
	masked, changed := MaskPII("reach me at jane@example.com or +1 555 123 4567")
	assert.True(t, changed)

	// Placeholders must not match the patterns again.
	again, changed := MaskPII(masked)
	assert.False(t, changed)
	assert.Equal(t, masked, again)
}
