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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	testPEM = []byte("-----BEGIN PUBLIC KEY-----\nMFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAE\n-----END PUBLIC KEY-----\n")
	testSig = []byte{0x30, 0x46, 0x02, 0x21, 0x00, 0xab, 0xcd}
)

func sha256Hash(data string) Hash {
	h := sha256.Sum256([]byte(data))
	return Hash{Algorithm: "sha256", Value: hex.EncodeToString(h[:])}
}

// samples returns a canonical, well-formed spec of every supported kind.
func samples() map[Kind]Spec {
	return map[Kind]Spec{
		KindRekord: Rekord{
			Signature: RekordSignature{Format: FormatX509, Content: testSig, PublicKey: PublicKey{Content: testPEM}},
			Data:      RekordData{Hash: sha256Hash("rekord")},
		},
		KindHashedrekord: Hashedrekord{
			Signature: HashedrekordSignature{Content: testSig, PublicKey: PublicKey{Content: testPEM}},
			Data:      HashedrekordData{Hash: sha256Hash("hashedrekord")},
		},
		KindRPM: RPM{
			Package:   RPMPackage{Hash: sha256Hash("rpm")},
			PublicKey: PublicKey{Content: []byte("-----BEGIN PGP PUBLIC KEY BLOCK-----\n")},
		},
		KindTUF: TUF{
			SpecVersion: "1.0",
			Metadata:    TUFContent{Content: json.RawMessage(`{"signed":{"_type":"timestamp","version":3}}`)},
			Root:        TUFContent{Content: json.RawMessage(`{"signed":{"_type":"root","version":1}}`)},
		},
		KindHelm: Helm{
			PublicKey: PublicKey{Content: []byte("-----BEGIN PGP PUBLIC KEY BLOCK-----\n")},
			Chart: HelmChart{
				Hash:       sha256Hash("chart"),
				Provenance: HelmProvenance{Signature: HelmSignature{Content: []byte("-----BEGIN PGP SIGNATURE-----\n")}},
			},
		},
		KindIntoto: Intoto{
			Content: IntotoContent{
				Envelope: IntotoEnvelope{
					Payload:     []byte(`{"_type":"https://in-toto.io/Statement/v0.1"}`),
					PayloadType: "application/vnd.in-toto+json",
					Signatures:  []IntotoSignature{{KeyID: "k1", Sig: testSig, PublicKey: testPEM}},
				},
			},
		},
		KindCOSE: COSE{
			Message:   []byte{0xd2, 0x84, 0x43, 0xa1, 0x01, 0x26},
			PublicKey: testPEM,
		},
		KindJar: Jar{
			Archive: JarArchive{Hash: sha256Hash("jar")},
		},
		KindRFC3161: RFC3161{
			TSR: RFC3161TSR{Content: []byte{0x30, 0x82, 0x03, 0x2c}},
		},
		KindDSSE: DSSE{
			ProposedContent: DSSEProposedContent{
				Envelope:  `{"payloadType":"application/vnd.in-toto+json","payload":"e30=","signatures":[{"sig":"c2ln"}]}`,
				Verifiers: [][]byte{testPEM},
			},
		},
	}
}

func TestSamplesCoverAllKinds(t *testing.T) {
	s := samples()
	for _, k := range Kinds() {
		sp, ok := s[k]
		if !ok {
			t.Errorf("no sample for kind %q", k)
			continue
		}
		if got := sp.Kind(); got != k {
			t.Errorf("sample for %q reports kind %q", k, got)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	for k, s := range samples() {
		t.Run(string(k), func(t *testing.T) {
			e, err := New(s)
			if err != nil {
				t.Fatalf("New(): %v", err)
			}
			if got, want := e.Kind(), k; got != want {
				t.Fatalf("Kind() = %q, want %q", got, want)
			}
			raw, err := json.Marshal(e)
			if err != nil {
				t.Fatalf("Marshal(): %v", err)
			}
			got, err := Unmarshal(raw)
			if err != nil {
				t.Fatalf("Unmarshal(%s): %v", raw, err)
			}
			if diff := cmp.Diff(e, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(s, got.Spec()); diff != "" {
				t.Errorf("spec mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemasAreDisjoint(t *testing.T) {
	for k, s := range samples() {
		raw, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", k, err)
		}
		for _, other := range Kinds() {
			_, err := decodeSpec(other, raw)
			switch {
			case other == k && err != nil:
				t.Errorf("%s sample does not decode as %s: %v", k, other, err)
			case other != k && err == nil:
				t.Errorf("%s sample also decodes as %s", k, other)
			case other != k && !errors.Is(err, ErrDecoding):
				t.Errorf("%s sample as %s: got %v, want a DecodingError", k, other, err)
			}
		}
	}
}

func TestUnmarshalHashedrekord(t *testing.T) {
	const sample = `{"apiVersion":"0.0.1","kind":"hashedrekord","spec":{"data":{"hash":{"algorithm":"sha256","value":"135c894f52adbd81d83fd6e1e2d1a34901815b8e9caa61aed94963f0f4747e1d"}},"signature":{"content":"MEYCIQCrq6urq6urq6urq6urq6urq6urq6urq6urq6urq6urq6urqwIhAM3Nzc3Nzc3Nzc3Nzc3Nzc3Nzc3Nzc3Nzc3Nzc3Nzc3N","publicKey":{"content":"LS0tLS1CRUdJTiBQVUJMSUMgS0VZLS0tLS0K"}}}}`

	var e ProposedEntry
	if err := json.Unmarshal([]byte(sample), &e); err != nil {
		t.Fatalf("Unmarshal(): %v", err)
	}
	if got, want := e.Kind(), KindHashedrekord; got != want {
		t.Fatalf("Kind() = %q, want %q", got, want)
	}
	h, ok := e.AsHashedrekord()
	if !ok {
		t.Fatal("AsHashedrekord() returned false")
	}
	if got, want := h.Data.Hash.Algorithm, "sha256"; got != want {
		t.Errorf("hash algorithm = %q, want %q", got, want)
	}
	if got, want := string(h.Signature.PublicKey.Content), "-----BEGIN PUBLIC KEY-----\n"; got != want {
		t.Errorf("public key = %q, want %q", got, want)
	}
	if _, ok := e.AsRekord(); ok {
		t.Error("AsRekord() returned true for a hashedrekord entry")
	}

	// Writing the entry back out must produce the log's field names.
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal(): %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(out, &generic); err != nil {
		t.Fatalf("Unmarshal(): %v", err)
	}
	if got, want := generic["kind"], "hashedrekord"; got != want {
		t.Errorf("kind = %v, want %v", got, want)
	}
	if got, want := generic["apiVersion"], "0.0.1"; got != want {
		t.Errorf("apiVersion = %v, want %v", got, want)
	}
	spec := generic["spec"].(map[string]any)
	pk := spec["signature"].(map[string]any)["publicKey"].(map[string]any)
	if got, want := pk["content"], "LS0tLS1CRUdJTiBQVUJMSUMgS0VZLS0tLS0K"; got != want {
		t.Errorf("publicKey.content = %v, want %v", got, want)
	}
}

func TestUnmarshalAcceptsTypeTag(t *testing.T) {
	e, err := New(samples()[KindRFC3161])
	if err != nil {
		t.Fatalf("New(): %v", err)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal(): %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	fields["type"] = json.RawMessage(`"Rfc3161"`)
	tagged, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Unmarshal(tagged)
	if err != nil {
		t.Fatalf("Unmarshal(%s): %v", tagged, err)
	}
	if !got.Equal(e) {
		t.Errorf("got %v, want %v", got, e)
	}
}

func TestUnmarshalErrors(t *testing.T) {
	validSpec := `{"data":{"hash":{"algorithm":"sha256","value":"135c894f52adbd81d83fd6e1e2d1a34901815b8e9caa61aed94963f0f4747e1d"}},"signature":{"content":"MEYC","publicKey":{"content":"LS0t"}}}`
	for _, test := range []struct {
		desc     string
		body     string
		wantPath string
	}{
		{
			desc:     "not JSON",
			body:     `{"kind":`,
			wantPath: "(root)",
		}, {
			desc:     "missing kind",
			body:     `{"apiVersion":"0.0.1","spec":` + validSpec + `}`,
			wantPath: "kind",
		}, {
			desc:     "unknown kind",
			body:     `{"apiVersion":"0.0.1","kind":"alpine","spec":` + validSpec + `}`,
			wantPath: "kind",
		}, {
			desc:     "mismatched type tag",
			body:     `{"type":"Rpm","apiVersion":"0.0.1","kind":"hashedrekord","spec":` + validSpec + `}`,
			wantPath: "type",
		}, {
			desc:     "missing apiVersion",
			body:     `{"kind":"hashedrekord","spec":` + validSpec + `}`,
			wantPath: "apiVersion",
		}, {
			desc:     "unsupported apiVersion",
			body:     `{"apiVersion":"0.0.2","kind":"hashedrekord","spec":` + validSpec + `}`,
			wantPath: "apiVersion",
		}, {
			desc:     "null spec",
			body:     `{"apiVersion":"0.0.1","kind":"hashedrekord","spec":null}`,
			wantPath: "spec",
		}, {
			desc:     "missing public key",
			body:     `{"apiVersion":"0.0.1","kind":"hashedrekord","spec":{"data":{"hash":{"algorithm":"sha256","value":"135c894f52adbd81d83fd6e1e2d1a34901815b8e9caa61aed94963f0f4747e1d"}},"signature":{"content":"MEYC"}}}`,
			wantPath: "spec.signature.publicKey",
		}, {
			desc:     "unsupported hash algorithm",
			body:     `{"apiVersion":"0.0.1","kind":"hashedrekord","spec":{"data":{"hash":{"algorithm":"md5","value":"abcd"}},"signature":{"content":"MEYC","publicKey":{"content":"LS0t"}}}}`,
			wantPath: "spec.data.hash.algorithm",
		}, {
			desc:     "truncated digest",
			body:     `{"apiVersion":"0.0.1","kind":"hashedrekord","spec":{"data":{"hash":{"algorithm":"sha256","value":"135c89"}},"signature":{"content":"MEYC","publicKey":{"content":"LS0t"}}}}`,
			wantPath: "spec.data.hash.value",
		}, {
			desc:     "unknown field",
			body:     `{"apiVersion":"0.0.1","kind":"rfc3161","spec":{"tsr":{"content":"MIID"},"extra":1}}`,
			wantPath: "spec.extra",
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			_, err := Unmarshal([]byte(test.body))
			if err == nil {
				t.Fatal("Unmarshal() succeeded, want error")
			}
			if !errors.Is(err, ErrDecoding) {
				t.Fatalf("got %v, want ErrDecoding", err)
			}
			var de *DecodingError
			if !errors.As(err, &de) {
				t.Fatalf("got %T, want *DecodingError", err)
			}
			if got, want := de.Path, test.wantPath; got != want {
				t.Errorf("Path = %q, want %q (%v)", got, want, err)
			}
		})
	}
}

func TestNewRejectsMalformed(t *testing.T) {
	for _, test := range []struct {
		desc string
		spec Spec
	}{
		{desc: "nil", spec: nil},
		{desc: "empty hashedrekord", spec: Hashedrekord{}},
		{desc: "rekord without format", spec: Rekord{
			Signature: RekordSignature{Content: testSig, PublicKey: PublicKey{Content: testPEM}},
			Data:      RekordData{Content: []byte("data")},
		}},
		{desc: "intoto without signatures", spec: Intoto{Content: IntotoContent{Envelope: IntotoEnvelope{PayloadType: "x"}}}},
		{desc: "dsse with bad envelope", spec: DSSE{ProposedContent: DSSEProposedContent{Envelope: "{", Verifiers: [][]byte{testPEM}}}},
		{desc: "jar with neither hash nor content", spec: Jar{}},
	} {
		t.Run(test.desc, func(t *testing.T) {
			if _, err := New(test.spec); !errors.Is(err, ErrDecoding) {
				t.Errorf("New() = %v, want ErrDecoding", err)
			}
		})
	}
}

func TestDecodeLegacy(t *testing.T) {
	for k, s := range samples() {
		t.Run(string(k), func(t *testing.T) {
			raw, err := json.Marshal(s)
			if err != nil {
				t.Fatal(err)
			}
			e, err := DecodeLegacy(raw)
			if err != nil {
				t.Fatalf("DecodeLegacy(bare spec): %v", err)
			}
			if got, want := e.Kind(), k; got != want {
				t.Errorf("bare spec decoded as %q, want %q", got, want)
			}

			untagged, err := json.Marshal(map[string]any{
				"apiVersion": k.APIVersion(),
				"spec":       json.RawMessage(raw),
			})
			if err != nil {
				t.Fatal(err)
			}
			e, err = DecodeLegacy(untagged)
			if err != nil {
				t.Fatalf("DecodeLegacy(untagged envelope): %v", err)
			}
			if got, want := e.Kind(), k; got != want {
				t.Errorf("untagged envelope decoded as %q, want %q", got, want)
			}
		})
	}
}

func TestDecodeLegacyErrors(t *testing.T) {
	for _, test := range []struct {
		desc     string
		body     string
		wantPath string
	}{
		{desc: "tagged", body: `{"apiVersion":"0.0.1","kind":"rfc3161","spec":{"tsr":{"content":"MIID"}}}`, wantPath: "kind"},
		{desc: "no match", body: `{"spec":{"nothing":"here"}}`, wantPath: "spec"},
		{desc: "version mismatch", body: `{"apiVersion":"0.0.2","spec":{"tsr":{"content":"MIID"}}}`, wantPath: "spec"},
		{desc: "not an object", body: `[1,2,3]`, wantPath: "(root)"},
	} {
		t.Run(test.desc, func(t *testing.T) {
			_, err := DecodeLegacy([]byte(test.body))
			var de *DecodingError
			if !errors.As(err, &de) {
				t.Fatalf("got %v, want *DecodingError", err)
			}
			if got, want := de.Path, test.wantPath; got != want {
				t.Errorf("Path = %q, want %q", got, want)
			}
		})
	}
}

func TestEnvelopeIsImmutable(t *testing.T) {
	e, err := New(samples()[KindIntoto])
	if err != nil {
		t.Fatal(err)
	}
	i, _ := e.AsIntoto()
	i.Content.Envelope.Signatures[0].Sig[0] = 0xff
	i.Content.Envelope.PayloadType = "changed"

	again, _ := e.AsIntoto()
	if got, want := again.Content.Envelope.Signatures[0].Sig[0], testSig[0]; got != want {
		t.Errorf("signature byte changed to %x, want %x", got, want)
	}
	if got := again.Content.Envelope.PayloadType; got == "changed" {
		t.Error("payload type was modified through a copy")
	}

	// Copy-on-modify: the modified copy produces a new, distinct envelope.
	n, err := New(i)
	if err != nil {
		t.Fatal(err)
	}
	if n.Equal(e) {
		t.Error("modified envelope compares equal to the original")
	}
}

func TestWithSpec(t *testing.T) {
	e, err := New(samples()[KindIntoto])
	if err != nil {
		t.Fatal(err)
	}
	before, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	i, _ := e.AsIntoto()
	i.Content.Envelope.PayloadType = "application/vnd.test+json"

	n, err := e.WithSpec(i)
	if err != nil {
		t.Fatalf("WithSpec(): %v", err)
	}
	if n.Equal(e) {
		t.Error("WithSpec() result compares equal to the original")
	}
	got, _ := n.AsIntoto()
	if got.Content.Envelope.PayloadType != "application/vnd.test+json" {
		t.Errorf("PayloadType = %q, want the replacement", got.Content.Envelope.PayloadType)
	}
	after, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(string(before), string(after)); diff != "" {
		t.Errorf("original envelope changed (-before +after):\n%s", diff)
	}

	// The replacement is copied too.
	i.Content.Envelope.PayloadType = "changed"
	if got, _ := n.AsIntoto(); got.Content.Envelope.PayloadType == "changed" {
		t.Error("WithSpec() envelope aliases the spec it was built from")
	}

	for _, test := range []struct {
		desc     string
		spec     Spec
		wantPath string
	}{
		{desc: "nil spec", spec: nil, wantPath: "spec"},
		{desc: "different kind", spec: samples()[KindRekord], wantPath: "kind"},
	} {
		t.Run(test.desc, func(t *testing.T) {
			_, err := e.WithSpec(test.spec)
			var de *DecodingError
			if !errors.As(err, &de) {
				t.Fatalf("got %v, want *DecodingError", err)
			}
			if got, want := de.Path, test.wantPath; got != want {
				t.Errorf("Path = %q, want %q", got, want)
			}
		})
	}

	var zero ProposedEntry
	r, err := zero.WithSpec(samples()[KindRekord])
	if err != nil {
		t.Fatalf("WithSpec() on zero envelope: %v", err)
	}
	if got, want := r.Kind(), KindRekord; got != want {
		t.Errorf("Kind() = %q, want %q", got, want)
	}
}

func TestZeroEnvelope(t *testing.T) {
	var e ProposedEntry
	if !e.IsZero() {
		t.Error("IsZero() = false for zero value")
	}
	if got := e.Kind(); got != "" {
		t.Errorf("Kind() = %q, want empty", got)
	}
	if _, err := json.Marshal(e); err == nil {
		t.Error("Marshal() of zero envelope succeeded")
	}
}
