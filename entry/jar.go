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

// Jar attests to a signed Java archive.
type Jar struct {
	Archive   JarArchive   `json:"archive"`
	Signature JarSignature `json:"signature,omitzero"`
}

// JarArchive is the archive itself or its hash.
type JarArchive struct {
	Hash    Hash   `json:"hash,omitzero"`
	Content []byte `json:"content,omitempty"`
}

// JarSignature is the PKCS7 signature extracted from the archive, present on
// entries read back from the log.
type JarSignature struct {
	Content   []byte    `json:"content"`
	PublicKey PublicKey `json:"publicKey"`
}

// Kind implements Spec.
func (Jar) Kind() Kind { return KindJar }

func (j Jar) check() error {
	return j.Archive.Hash.check(KindJar, "spec.archive.hash")
}

func (j Jar) clone() Spec {
	j.Archive.Content = bytes.Clone(j.Archive.Content)
	j.Signature.Content = bytes.Clone(j.Signature.Content)
	j.Signature.PublicKey = j.Signature.PublicKey.clone()
	return j
}
