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

// DSSE attests to a Dead Simple Signing Envelope.
//
// A DSSE spec is submitted with ProposedContent set. The log replaces it with
// the envelope and payload hashes and the verified signatures, which is the
// form returned when the entry is read back.
type DSSE struct {
	ProposedContent DSSEProposedContent `json:"proposedContent,omitzero"`
	EnvelopeHash    Hash                `json:"envelopeHash,omitzero"`
	PayloadHash     Hash                `json:"payloadHash,omitzero"`
	Signatures      []DSSESignature     `json:"signatures,omitempty"`
}

// DSSEProposedContent is the serialised envelope together with the PEM encoded
// keys or certificates which verify its signatures.
type DSSEProposedContent struct {
	Envelope  string   `json:"envelope"`
	Verifiers [][]byte `json:"verifiers"`
}

// DSSESignature is a signature from the envelope with the verifier which
// validated it.
type DSSESignature struct {
	Signature string `json:"signature"`
	Verifier  []byte `json:"verifier"`
}

// Kind implements Spec.
func (DSSE) Kind() Kind { return KindDSSE }

func (d DSSE) check() error {
	if env := d.ProposedContent.Envelope; env != "" && !json.Valid([]byte(env)) {
		return &DecodingError{Kind: KindDSSE, Path: "spec.proposedContent.envelope", Reason: "envelope is not valid JSON"}
	}
	if err := d.EnvelopeHash.check(KindDSSE, "spec.envelopeHash"); err != nil {
		return err
	}
	return d.PayloadHash.check(KindDSSE, "spec.payloadHash")
}

func (d DSSE) clone() Spec {
	d.ProposedContent.Verifiers = cloneAll(d.ProposedContent.Verifiers)
	if d.Signatures != nil {
		s := make([]DSSESignature, len(d.Signatures))
		for i, sig := range d.Signatures {
			s[i] = DSSESignature{Signature: sig.Signature, Verifier: bytes.Clone(sig.Verifier)}
		}
		d.Signatures = s
	}
	return d
}
