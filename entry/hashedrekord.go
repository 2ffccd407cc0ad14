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

// Hashedrekord is a signature over a precomputed artifact digest.
type Hashedrekord struct {
	Signature HashedrekordSignature `json:"signature"`
	Data      HashedrekordData      `json:"data"`
}

// HashedrekordSignature is the detached signature over the digest, along with
// the public key or certificate which produced it.
type HashedrekordSignature struct {
	Content   []byte    `json:"content"`
	PublicKey PublicKey `json:"publicKey"`
}

// HashedrekordData holds the digest of the signed artifact.
type HashedrekordData struct {
	Hash Hash `json:"hash"`
}

// Kind implements Spec.
func (Hashedrekord) Kind() Kind { return KindHashedrekord }

func (h Hashedrekord) check() error {
	return h.Data.Hash.check(KindHashedrekord, "spec.data.hash")
}

func (h Hashedrekord) clone() Spec {
	h.Signature.Content = bytes.Clone(h.Signature.Content)
	h.Signature.PublicKey = h.Signature.PublicKey.clone()
	return h
}
