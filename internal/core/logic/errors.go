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

package logic

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors surfaced to the submission edge. Callers map these to
// transport-level rejections; none of them leaks whether an employee id
// was bound to the token.
var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrTokenAlreadyUsed = errors.New("token already used")
	ErrTokenExpired     = errors.New("token expired")
	ErrSurveyClosed     = errors.New("survey is not accepting submissions")
)

// SchemaError reports a submission payload rejected by validation.
// A submission failing validation writes nothing.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid submission: %s: %s", e.Field, e.Reason)
}

func schemaErr(field, format string, args ...interface{}) error {
	return &SchemaError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsSchemaError reports whether err is a validation rejection.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}
