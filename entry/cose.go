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

// COSE attests to a COSE_Sign1 message.
type COSE struct {
	Message   []byte   `json:"message,omitempty"`
	PublicKey []byte   `json:"publicKey"`
	Data      COSEData `json:"data,omitzero"`
}

// COSEData carries the additional authenticated data and, on entries read back
// from the log, the hashes of the envelope and payload.
type COSEData struct {
	AAD          []byte `json:"aad,omitempty"`
	EnvelopeHash Hash   `json:"envelopeHash,omitzero"`
	PayloadHash  Hash   `json:"payloadHash,omitzero"`
}

// Kind implements Spec.
func (COSE) Kind() Kind { return KindCOSE }

func (c COSE) check() error {
	if err := c.Data.EnvelopeHash.check(KindCOSE, "spec.data.envelopeHash"); err != nil {
		return err
	}
	return c.Data.PayloadHash.check(KindCOSE, "spec.data.payloadHash")
}

func (c COSE) clone() Spec {
	c.Message = bytes.Clone(c.Message)
	c.PublicKey = bytes.Clone(c.PublicKey)
	c.Data.AAD = bytes.Clone(c.Data.AAD)
	return c
}
