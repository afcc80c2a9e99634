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

// Package nlp holds the comment tagging contract and the built-in
// lexicon implementation. Tagging is asynchronous and idempotent;
// intake never blocks on it.
package nlp

import (
	"context"

	"github.com/go-pulse/pulse/internal/core/model"
)

// Result is the tagger output for one comment.
type Result struct {
	Sentiment string   // model.SentimentPositive / Neutral / Negative
	Themes    []string // deduplicated, order of first occurrence
}

// Tagger classifies a single comment. Implementations must be safe for
// concurrent use and must return the same result for the same text.
type Tagger interface {
	Tag(ctx context.Context, text string) (Result, error)
}

// TaggerFunc adapts a function to the Tagger interface.
type TaggerFunc func(ctx context.Context, text string) (Result, error)

func (f TaggerFunc) Tag(ctx context.Context, text string) (Result, error) {
	return f(ctx, text)
}

// NeutralResult is what a tagger should return when it cannot classify;
// a neutral row still counts the comment in sentiment denominators.
func NeutralResult() Result {
	return Result{Sentiment: model.SentimentNeutral, Themes: []string{}}
}
