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
	"maps"
)

// RPM attests to a signed RPM package.
type RPM struct {
	Package   RPMPackage `json:"package"`
	PublicKey PublicKey  `json:"publicKey"`
}

// RPMPackage is the package itself or its hash. Headers are filled in by the
// log from the package contents.
type RPMPackage struct {
	Headers map[string]string `json:"headers,omitempty"`
	Hash    Hash              `json:"hash,omitzero"`
	Content []byte            `json:"content,omitempty"`
}

// Kind implements Spec.
func (RPM) Kind() Kind { return KindRPM }

func (r RPM) check() error {
	return r.Package.Hash.check(KindRPM, "spec.package.hash")
}

func (r RPM) clone() Spec {
	r.Package.Headers = maps.Clone(r.Package.Headers)
	r.Package.Content = bytes.Clone(r.Package.Content)
	r.PublicKey = r.PublicKey.clone()
	return r
}
