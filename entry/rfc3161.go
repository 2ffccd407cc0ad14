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

import "bytes"

// RFC3161 attests to an RFC 3161 timestamp response.
type RFC3161 struct {
	TSR RFC3161TSR `json:"tsr"`
}

// RFC3161TSR is a DER encoded timestamp response.
type RFC3161TSR struct {
	Content []byte `json:"content"`
}

// Kind implements Spec.
func (RFC3161) Kind() Kind { return KindRFC3161 }

func (RFC3161) check() error { return nil }

func (r RFC3161) clone() Spec {
	r.TSR.Content = bytes.Clone(r.TSR.Content)
	return r
}
