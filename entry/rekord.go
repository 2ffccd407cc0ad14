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

// SignatureFormat is the type of signature carried by a rekord entry.
type SignatureFormat string

// Signature formats accepted for rekord entries.
const (
	FormatPGP      SignatureFormat = "pgp"
	FormatMinisign SignatureFormat = "minisign"
	FormatX509     SignatureFormat = "x509"
	FormatSSH      SignatureFormat = "ssh"
)

// Rekord is a generic signed record: a detached signature over some data.
type Rekord struct {
	Signature RekordSignature `json:"signature"`
	Data      RekordData      `json:"data"`
}

// RekordSignature is the detached signature and the key to verify it.
type RekordSignature struct {
	Format    SignatureFormat `json:"format"`
	Content   []byte          `json:"content"`
	PublicKey PublicKey       `json:"publicKey"`
}

// RekordData is the signed data, given either in full or by its hash.
type RekordData struct {
	Hash    Hash   `json:"hash,omitzero"`
	Content []byte `json:"content,omitempty"`
}

// Kind implements Spec.
func (Rekord) Kind() Kind { return KindRekord }

func (r Rekord) check() error {
	return r.Data.Hash.check(KindRekord, "spec.data.hash")
}

func (r Rekord) clone() Spec {
	r.Signature.Content = bytes.Clone(r.Signature.Content)
	r.Signature.PublicKey = r.Signature.PublicKey.clone()
	r.Data.Content = bytes.Clone(r.Data.Content)
	return r
}
