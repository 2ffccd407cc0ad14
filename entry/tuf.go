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
	"bytes"
	"encoding/json"
)

// TUF attests to a piece of TUF metadata, along with the root which signed it.
type TUF struct {
	SpecVersion string     `json:"spec_version,omitempty"`
	Metadata    TUFContent `json:"metadata"`
	Root        TUFContent `json:"root"`
}

// TUFContent is a signed TUF metadata document.
type TUFContent struct {
	Content json.RawMessage `json:"content"`
}

// Kind implements Spec.
func (TUF) Kind() Kind { return KindTUF }

func (TUF) check() error { return nil }

func (t TUF) clone() Spec {
	t.Metadata.Content = bytes.Clone(t.Metadata.Content)
	t.Root.Content = bytes.Clone(t.Root.Content)
	return t
}
