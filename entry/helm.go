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

// Helm attests to a Helm chart by way of its provenance file.
type Helm struct {
	PublicKey PublicKey `json:"publicKey"`
	Chart     HelmChart `json:"chart"`
}

// HelmChart identifies the chart and carries its provenance.
type HelmChart struct {
	Hash       Hash           `json:"hash,omitzero"`
	Provenance HelmProvenance `json:"provenance"`
}

// HelmProvenance is either the complete provenance file, or just its signature.
type HelmProvenance struct {
	Signature HelmSignature `json:"signature,omitzero"`
	Content   []byte        `json:"content,omitempty"`
}

// HelmSignature is the armored signature taken from a provenance file.
type HelmSignature struct {
	Content []byte `json:"content"`
}

// Kind implements Spec.
func (Helm) Kind() Kind { return KindHelm }

func (h Helm) check() error {
	return h.Chart.Hash.check(KindHelm, "spec.chart.hash")
}

func (h Helm) clone() Spec {
	h.PublicKey = h.PublicKey.clone()
	h.Chart.Provenance.Signature.Content = bytes.Clone(h.Chart.Provenance.Signature.Content)
	h.Chart.Provenance.Content = bytes.Clone(h.Chart.Provenance.Content)
	return h
}
