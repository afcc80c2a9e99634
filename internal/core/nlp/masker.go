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

import "regexp"

// PII patterns masked before a comment is stored for good. Masking runs
// once during tagging; the original text is not retained anywhere.
var (
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern  = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)
	handlePattern = regexp.MustCompile(`@[A-Za-z0-9_]{2,}`)
)

const (
	emailMask  = "[email]"
	phoneMask  = "[phone]"
	handleMask = "[handle]"
)

// MaskPII replaces emails, phone numbers, and @handles with fixed
// placeholders. The email pattern runs first so addresses are not
// half-eaten by the handle pattern. Returns the masked text and whether
// anything was replaced.
func MaskPII(text string) (string, bool) {
	masked := emailPattern.ReplaceAllString(text, emailMask)
	masked = phonePattern.ReplaceAllString(masked, phoneMask)
	masked = handlePattern.ReplaceAllString(masked, handleMask)
	return masked, masked != text
}
