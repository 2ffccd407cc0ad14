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
	"fmt"
)

// Intoto attests to an in-toto statement wrapped in a signed envelope.
type Intoto struct {
	Content IntotoContent `json:"content"`
}

// IntotoContent holds the envelope. The hashes are computed by the log and
// are present on entries read back from it.
type IntotoContent struct {
	Envelope    IntotoEnvelope `json:"envelope"`
	Hash        Hash           `json:"hash,omitzero"`
	PayloadHash Hash           `json:"payloadHash,omitzero"`
}

// IntotoEnvelope is a DSSE envelope whose signatures carry their own keys.
type IntotoEnvelope struct {
	Payload     []byte            `json:"payload,omitempty"`
	PayloadType string            `json:"payloadType"`
	Signatures  []IntotoSignature `json:"signatures"`
}

// IntotoSignature is one signature over the envelope payload.
type IntotoSignature struct {
	KeyID     string `json:"keyid,omitempty"`
	Sig       []byte `json:"sig"`
	PublicKey []byte `json:"publicKey"`
}

// Kind implements Spec.
func (Intoto) Kind() Kind { return KindIntoto }

func (i Intoto) check() error {
	if err := i.Content.Hash.check(KindIntoto, "spec.content.hash"); err != nil {
		return err
	}
	if err := i.Content.PayloadHash.check(KindIntoto, "spec.content.payloadHash"); err != nil {
		return err
	}
	for n, s := range i.Content.Envelope.Signatures {
		if len(s.Sig) == 0 {
			return &DecodingError{Kind: KindIntoto, Path: fmt.Sprintf("spec.content.envelope.signatures.%d.sig", n), Reason: "empty signature"}
		}
	}
	return nil
}

func (i Intoto) clone() Spec {
	i.Content.Envelope.Payload = bytes.Clone(i.Content.Envelope.Payload)
	if sigs := i.Content.Envelope.Signatures; sigs != nil {
		c := make([]IntotoSignature, len(sigs))
		for n, s := range sigs {
			c[n] = IntotoSignature{
				KeyID:     s.KeyID,
				Sig:       bytes.Clone(s.Sig),
				PublicKey: bytes.Clone(s.PublicKey),
			}
		}
		i.Content.Envelope.Signatures = c
	}
	return i
}
