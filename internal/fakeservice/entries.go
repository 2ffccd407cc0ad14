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

package fakeservice

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/trailofbits/sigstore-apis/entry"
)

var samplePEM = []byte("-----BEGIN PUBLIC KEY-----\nMFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAE\n-----END PUBLIC KEY-----\n")

// SampleEntry returns a well-formed hashedrekord entry which differs for
// every i. The signature is not valid.
func SampleEntry(i int) (entry.ProposedEntry, error) {
	artifact := sha256.Sum256(fmt.Appendf(nil, "artifact %d", i))
	sig := sha256.Sum256(artifact[:])
	return entry.New(entry.Hashedrekord{
		Signature: entry.HashedrekordSignature{
			Content:   sig[:],
			PublicKey: entry.PublicKey{Content: samplePEM},
		},
		Data: entry.HashedrekordData{
			Hash: entry.Hash{Algorithm: "sha256", Value: hex.EncodeToString(artifact[:])},
		},
	})
}

// Populate adds n sample entries to the log, starting from SampleEntry(start).
func (f *Rekor) Populate(start, n int) error {
	for i := start; i < start+n; i++ {
		e, err := SampleEntry(i)
		if err != nil {
			return err
		}
		if _, err := f.Add(e); err != nil {
			return fmt.Errorf("failed to add entry %d: %v", i, err)
		}
	}
	return nil
}
