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
	"context"
	"testing"

	"github.com/go-pulse/pulse/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexiconTaggerSentiment(t *testing.T) {
	tagger := NewLexiconTagger()
	tests := []struct {
		name string
		text string
		want string
	}{
		{"positive", "great manager, I love the support here", model.SentimentPositive},
		{"negative", "overworked and stressed, the workload is terrible", model.SentimentNegative},
		{"tie is neutral", "good pay but terrible hours", model.SentimentNeutral},
		{"no hits is neutral", "the quarterly numbers were published", model.SentimentNeutral},
		{"empty is neutral", "", model.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tagger.Tag(context.Background(), tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Sentiment)
		})
	}
}

func TestLexiconTaggerThemes(t *testing.T) {
	tagger := NewLexiconTagger()

	res, err := tagger.Tag(context.Background(), "My manager ignores feedback and the salary is low. Manager again.")
	require.NoError(t, err)
	// First occurrence order, deduplicated.
	assert.Equal(t, []string{"management", "communication", "compensation"}, res.Themes)
}

func TestLexiconTaggerThemesNeverNil(t *testing.T) {
	tagger := NewLexiconTagger()

	res, err := tagger.Tag(context.Background(), "nothing thematic here")
	require.NoError(t, err)
	assert.NotNil(t, res.Themes)
	assert.Empty(t, res.Themes)
}
