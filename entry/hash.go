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
	_ "crypto/sha256" // Register hashes for go-digest
	_ "crypto/sha512"
	"fmt"

	"github.com/opencontainers/go-digest"
)

// Hash is a digest of some artifact, with a hex encoded value.
type Hash struct {
	Algorithm string `json:"algorithm"`
	Value     string `json:"value"`
}

// Digest returns h in the "algorithm:value" form.
func (h Hash) Digest() (digest.Digest, error) {
	d := digest.NewDigestFromEncoded(digest.Algorithm(h.Algorithm), h.Value)
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

// IsZero returns true if neither field of h is set.
func (h Hash) IsZero() bool {
	return h.Algorithm == "" && h.Value == ""
}

// check verifies the value is correctly encoded for the algorithm. A zero Hash
// is accepted, since whether it is required is a question for the schema.
func (h Hash) check(k Kind, path string) error {
	if h.IsZero() {
		return nil
	}
	if _, err := h.Digest(); err != nil {
		return &DecodingError{Kind: k, Path: path + ".value", Reason: fmt.Sprintf("invalid %s digest: %v", h.Algorithm, err)}
	}
	return nil
}

// PublicKey holds a PEM encoded public key or certificate, or an armored PGP
// key, depending on the signature format.
type PublicKey struct {
	Content []byte `json:"content"`
}

func (p PublicKey) clone() PublicKey {
	return PublicKey{Content: bytes.Clone(p.Content)}
}

func cloneAll(in [][]byte) [][]byte {
	if in == nil {
		return nil
	}
	out := make([][]byte, len(in))
	for i := range in {
		out[i] = bytes.Clone(in[i])
	}
	return out
}
