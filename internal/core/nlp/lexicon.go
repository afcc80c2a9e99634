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
	"strings"
	"unicode"

	"github.com/go-pulse/pulse/internal/core/model"
)

// LexiconTagger is the built-in word-list tagger. It is deliberately
// simple; richer models plug in behind the Tagger interface without
// touching intake or aggregation.
type LexiconTagger struct {
	positive map[string]struct{}
	negative map[string]struct{}
	themes   map[string]string // keyword -> theme label
}

var defaultPositive = []string{
	"good", "great", "love", "excellent", "happy", "helpful", "supportive",
	"clear", "improved", "better", "enjoy", "appreciate", "fantastic",
	"awesome", "motivated", "proud", "fair", "respected",
}

var defaultNegative = []string{
	"bad", "poor", "hate", "terrible", "unhappy", "stress", "stressed",
	"overworked", "burnout", "burned", "toxic", "unclear", "worse",
	"frustrated", "frustrating", "ignored", "unfair", "micromanage",
	"micromanaged", "underpaid", "overwhelmed", "chaos", "blocked",
}

var defaultThemes = map[string]string{
	"manager":       "management",
	"managers":      "management",
	"management":    "management",
	"lead":          "management",
	"micromanage":   "management",
	"micromanaged":  "management",
	"pay":           "compensation",
	"salary":        "compensation",
	"compensation":  "compensation",
	"underpaid":     "compensation",
	"bonus":         "compensation",
	"workload":      "workload",
	"overworked":    "workload",
	"overwhelmed":   "workload",
	"burnout":       "workload",
	"hours":         "workload",
	"deadline":      "workload",
	"deadlines":     "workload",
	"career":        "growth",
	"promotion":     "growth",
	"growth":        "growth",
	"learning":      "growth",
	"training":      "growth",
	"communication": "communication",
	"meeting":       "communication",
	"meetings":      "communication",
	"feedback":      "communication",
	"unclear":       "communication",
	"team":          "collaboration",
	"teammates":     "collaboration",
	"colleagues":    "collaboration",
	"collaboration": "collaboration",
	"office":        "environment",
	"remote":        "environment",
	"equipment":     "environment",
	"tools":         "environment",
}

func NewLexiconTagger() *LexiconTagger {
	t := &LexiconTagger{
		positive: make(map[string]struct{}, len(defaultPositive)),
		negative: make(map[string]struct{}, len(defaultNegative)),
		themes:   defaultThemes,
	}
	for _, w := range defaultPositive {
		t.positive[w] = struct{}{}
	}
	for _, w := range defaultNegative {
		t.negative[w] = struct{}{}
	}
	return t
}

// Tag scores the text by lexicon hits. Ties and empty text come out
// neutral. Themes are reported in order of first occurrence.
func (t *LexiconTagger) Tag(_ context.Context, text string) (Result, error) {
	words := tokenize(text)
	pos, neg := 0, 0
	var themes []string
	seen := make(map[string]struct{})
	for _, w := range words {
		if _, ok := t.positive[w]; ok {
			pos++
		}
		if _, ok := t.negative[w]; ok {
			neg++
		}
		if theme, ok := t.themes[w]; ok {
			if _, dup := seen[theme]; !dup {
				seen[theme] = struct{}{}
				themes = append(themes, theme)
			}
		}
	}
	if themes == nil {
		themes = []string{}
	}
	res := Result{Sentiment: model.SentimentNeutral, Themes: themes}
	switch {
	case pos > neg:
		res.Sentiment = model.SentimentPositive
	case neg > pos:
		res.Sentiment = model.SentimentNegative
	}
	return res, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
