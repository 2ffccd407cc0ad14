// Copyright 2026 The Sigstore APIs Authors. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package entry

import (
	"errors"
	"fmt"
)

// ErrDecoding is matched by every *DecodingError.
var ErrDecoding = errors.New("malformed entry")

const rootPath = "(root)"

// DecodingError is returned when a payload is malformed, of an unsupported
// kind, or could be read as more than one kind.
type DecodingError struct {
	// Kind is the kind the payload was being decoded as, if known.
	Kind Kind
	// Path is the dotted path of the offending field, e.g. "spec.data.hash.value".
	Path string
	// Reason is a human readable description of the problem.
	Reason string
}

func (e *DecodingError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("malformed entry: %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed %s entry: %s: %s", e.Kind, e.Path, e.Reason)
}

// Is allows errors.Is(err, ErrDecoding).
func (e *DecodingError) Is(target error) bool {
	return target == ErrDecoding
}
