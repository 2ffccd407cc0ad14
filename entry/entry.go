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

// Package entry provides the proposed entry envelope which is submitted to,
// and returned by, a Rekor transparency log.
//
// A ProposedEntry holds exactly one of the supported attestation kinds. On the
// wire it is tagged by the "kind" field:
//
//	{"apiVersion": "0.0.1", "kind": "hashedrekord", "spec": {...}}
//
// Payloads which lack the discriminator can only be read through DecodeLegacy,
// which infers the kind from the structure of the spec.
package entry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind identifies which attestation format a ProposedEntry carries.
type Kind string

// Supported kinds, as they appear in the "kind" field on the wire.
const (
	KindRekord       Kind = "rekord"
	KindHashedrekord Kind = "hashedrekord"
	KindRPM          Kind = "rpm"
	KindTUF          Kind = "tuf"
	KindHelm         Kind = "helm"
	KindIntoto       Kind = "intoto"
	KindCOSE         Kind = "cose"
	KindJar          Kind = "jar"
	KindRFC3161      Kind = "rfc3161"
	KindDSSE         Kind = "dsse"
)

// kindOrder is the fixed priority order used when inferring a kind from structure.
var kindOrder = []Kind{
	KindRekord,
	KindHashedrekord,
	KindRPM,
	KindTUF,
	KindHelm,
	KindIntoto,
	KindCOSE,
	KindJar,
	KindRFC3161,
	KindDSSE,
}

// kindDef describes how a kind is represented on the wire.
type kindDef struct {
	apiVersion string
	decode     func(raw []byte) (Spec, error)
}

var kinds = map[Kind]kindDef{
	KindRekord:       {apiVersion: "0.0.1", decode: decodeAs[Rekord]},
	KindHashedrekord: {apiVersion: "0.0.1", decode: decodeAs[Hashedrekord]},
	KindRPM:          {apiVersion: "0.0.1", decode: decodeAs[RPM]},
	KindTUF:          {apiVersion: "0.0.1", decode: decodeAs[TUF]},
	KindHelm:         {apiVersion: "0.0.1", decode: decodeAs[Helm]},
	KindIntoto:       {apiVersion: "0.0.2", decode: decodeAs[Intoto]},
	KindCOSE:         {apiVersion: "0.0.1", decode: decodeAs[COSE]},
	KindJar:          {apiVersion: "0.0.1", decode: decodeAs[Jar]},
	KindRFC3161:      {apiVersion: "0.0.1", decode: decodeAs[RFC3161]},
	KindDSSE:         {apiVersion: "0.0.1", decode: decodeAs[DSSE]},
}

// Kinds returns all supported kinds in the priority order used by DecodeLegacy.
func Kinds() []Kind {
	return append([]Kind(nil), kindOrder...)
}

// APIVersion returns the schema version of the kind, or the empty string if
// the kind is not supported.
func (k Kind) APIVersion() string {
	return kinds[k].apiVersion
}

// Valid returns true if k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

// Spec is implemented by the spec type of each supported kind.
type Spec interface {
	// Kind returns the kind of entry this spec describes.
	Kind() Kind

	// check performs the structural checks which the schema cannot express.
	check() error
	// clone returns a deep copy.
	clone() Spec
}

// ProposedEntry is an immutable envelope around exactly one Spec.
//
// The zero value holds no spec and cannot be marshalled.
type ProposedEntry struct {
	spec Spec
}

// New returns an envelope around a copy of s, or a *DecodingError if s is not
// well-formed.
func New(s Spec) (ProposedEntry, error) {
	if s == nil {
		return ProposedEntry{}, &DecodingError{Path: "spec", Reason: "no spec provided"}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return ProposedEntry{}, &DecodingError{Kind: s.Kind(), Path: "spec", Reason: err.Error()}
	}
	if err := validate(s.Kind(), raw); err != nil {
		return ProposedEntry{}, err
	}
	if err := s.check(); err != nil {
		return ProposedEntry{}, err
	}
	return ProposedEntry{spec: s.clone()}, nil
}

// WithSpec returns a new envelope around a copy of s, leaving e unchanged. The
// replacement must be of the same kind as e unless e is the zero value.
func (e ProposedEntry) WithSpec(s Spec) (ProposedEntry, error) {
	if s != nil && e.spec != nil && s.Kind() != e.Kind() {
		return ProposedEntry{}, &DecodingError{Kind: e.Kind(), Path: "kind", Reason: fmt.Sprintf("cannot replace with kind %q", s.Kind())}
	}
	return New(s)
}

// Kind returns the kind of the populated variant.
func (e ProposedEntry) Kind() Kind {
	if e.spec == nil {
		return ""
	}
	return e.spec.Kind()
}

// APIVersion returns the schema version the envelope is encoded with.
func (e ProposedEntry) APIVersion() string {
	return e.Kind().APIVersion()
}

// Spec returns a copy of the populated spec, suitable for a type switch.
func (e ProposedEntry) Spec() Spec {
	if e.spec == nil {
		return nil
	}
	return e.spec.clone()
}

// IsZero returns true if the envelope holds no spec.
func (e ProposedEntry) IsZero() bool {
	return e.spec == nil
}

// Equal returns true if both envelopes have identical wire encodings.
func (e ProposedEntry) Equal(o ProposedEntry) bool {
	if e.spec == nil || o.spec == nil {
		return e.spec == nil && o.spec == nil
	}
	a, err := json.Marshal(e)
	if err != nil {
		return false
	}
	b, err := json.Marshal(o)
	if err != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func (e ProposedEntry) String() string {
	if e.spec == nil {
		return "ProposedEntry{}"
	}
	return fmt.Sprintf("ProposedEntry{%s/%s}", e.Kind(), e.APIVersion())
}

// AsRekord returns the rekord spec, if that is the populated variant.
func (e ProposedEntry) AsRekord() (Rekord, bool) { return as[Rekord](e) }

// AsHashedrekord returns the hashedrekord spec, if that is the populated variant.
func (e ProposedEntry) AsHashedrekord() (Hashedrekord, bool) { return as[Hashedrekord](e) }

// AsRPM returns the rpm spec, if that is the populated variant.
func (e ProposedEntry) AsRPM() (RPM, bool) { return as[RPM](e) }

// AsTUF returns the tuf spec, if that is the populated variant.
func (e ProposedEntry) AsTUF() (TUF, bool) { return as[TUF](e) }

// AsHelm returns the helm spec, if that is the populated variant.
func (e ProposedEntry) AsHelm() (Helm, bool) { return as[Helm](e) }

// AsIntoto returns the intoto spec, if that is the populated variant.
func (e ProposedEntry) AsIntoto() (Intoto, bool) { return as[Intoto](e) }

// AsCOSE returns the cose spec, if that is the populated variant.
func (e ProposedEntry) AsCOSE() (COSE, bool) { return as[COSE](e) }

// AsJar returns the jar spec, if that is the populated variant.
func (e ProposedEntry) AsJar() (Jar, bool) { return as[Jar](e) }

// AsRFC3161 returns the rfc3161 spec, if that is the populated variant.
func (e ProposedEntry) AsRFC3161() (RFC3161, bool) { return as[RFC3161](e) }

// AsDSSE returns the dsse spec, if that is the populated variant.
func (e ProposedEntry) AsDSSE() (DSSE, bool) { return as[DSSE](e) }

func as[T Spec](e ProposedEntry) (T, bool) {
	var zero T
	s, ok := e.spec.(T)
	if !ok {
		return zero, false
	}
	return s.clone().(T), true
}

// wireEntry is the envelope as it is written to the log.
type wireEntry struct {
	APIVersion string          `json:"apiVersion"`
	Kind       Kind            `json:"kind"`
	Spec       json.RawMessage `json:"spec"`
}

// taggedEntry is the envelope as it may be read. Type is the variant tag
// written by earlier serialisations of this envelope; if present it must agree
// with Kind.
type taggedEntry struct {
	APIVersion *string         `json:"apiVersion"`
	Kind       *Kind           `json:"kind"`
	Type       *string         `json:"type"`
	Spec       json.RawMessage `json:"spec"`
}

// MarshalJSON encodes the envelope in the form accepted by the log.
func (e ProposedEntry) MarshalJSON() ([]byte, error) {
	if e.spec == nil {
		return nil, errors.New("cannot marshal empty ProposedEntry")
	}
	raw, err := json.Marshal(e.spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s spec: %v", e.Kind(), err)
	}
	return json.Marshal(wireEntry{
		APIVersion: e.APIVersion(),
		Kind:       e.Kind(),
		Spec:       raw,
	})
}

// UnmarshalJSON decodes a tagged envelope, see Unmarshal.
func (e *ProposedEntry) UnmarshalJSON(data []byte) error {
	n, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*e = n
	return nil
}

// Unmarshal decodes a tagged envelope.
//
// The kind is read from the "kind" discriminator before the spec is examined,
// and the spec must then satisfy that kind's schema. Any failure is returned
// as a *DecodingError naming the offending field.
func Unmarshal(data []byte) (ProposedEntry, error) {
	var t taggedEntry
	if err := json.Unmarshal(data, &t); err != nil {
		return ProposedEntry{}, &DecodingError{Path: rootPath, Reason: err.Error()}
	}
	if t.Kind == nil {
		return ProposedEntry{}, &DecodingError{Path: "kind", Reason: "missing discriminator"}
	}
	k := *t.Kind
	if !k.Valid() {
		return ProposedEntry{}, &DecodingError{Path: "kind", Reason: fmt.Sprintf("unsupported kind %q", k)}
	}
	if t.Type != nil && !strings.EqualFold(*t.Type, string(k)) {
		return ProposedEntry{}, &DecodingError{Kind: k, Path: "type", Reason: fmt.Sprintf("tag %q does not match kind %q", *t.Type, k)}
	}
	if t.APIVersion == nil {
		return ProposedEntry{}, &DecodingError{Kind: k, Path: "apiVersion", Reason: "missing"}
	}
	if got, want := *t.APIVersion, k.APIVersion(); got != want {
		return ProposedEntry{}, &DecodingError{Kind: k, Path: "apiVersion", Reason: fmt.Sprintf("unsupported version %q, want %q", got, want)}
	}
	if len(t.Spec) == 0 || bytes.Equal(t.Spec, []byte("null")) {
		return ProposedEntry{}, &DecodingError{Kind: k, Path: "spec", Reason: "missing"}
	}
	s, err := decodeSpec(k, t.Spec)
	if err != nil {
		return ProposedEntry{}, err
	}
	return ProposedEntry{spec: s}, nil
}

// DecodeLegacy decodes a payload which carries no kind discriminator.
//
// data is either an envelope without "kind" (its "spec" is examined) or a bare
// spec object. The spec is matched against the schema of every supported kind
// in the order returned by Kinds; exactly one kind must match. If the payload
// carries an apiVersion, it must be the version of the matching kind.
func DecodeLegacy(data []byte) (ProposedEntry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return ProposedEntry{}, &DecodingError{Path: rootPath, Reason: err.Error()}
	}
	if _, ok := fields["kind"]; ok {
		return ProposedEntry{}, &DecodingError{Path: "kind", Reason: "payload is tagged, use Unmarshal"}
	}
	specRaw := json.RawMessage(data)
	var version string
	if s, ok := fields["spec"]; ok {
		specRaw = s
		if v, ok := fields["apiVersion"]; ok {
			if err := json.Unmarshal(v, &version); err != nil {
				return ProposedEntry{}, &DecodingError{Path: "apiVersion", Reason: err.Error()}
			}
		}
	}

	var matched []Spec
	for _, k := range kindOrder {
		if version != "" && version != k.APIVersion() {
			continue
		}
		s, err := decodeSpec(k, specRaw)
		if err != nil {
			continue
		}
		matched = append(matched, s)
	}
	switch len(matched) {
	case 0:
		return ProposedEntry{}, &DecodingError{Path: "spec", Reason: "does not match any supported kind"}
	case 1:
		return ProposedEntry{spec: matched[0]}, nil
	default:
		ks := make([]string, 0, len(matched))
		for _, m := range matched {
			ks = append(ks, string(m.Kind()))
		}
		return ProposedEntry{}, &DecodingError{Path: "spec", Reason: fmt.Sprintf("ambiguous, matches kinds %s", strings.Join(ks, ", "))}
	}
}

// decodeSpec validates raw against the schema for k and decodes it.
func decodeSpec(k Kind, raw []byte) (Spec, error) {
	if err := validate(k, raw); err != nil {
		return nil, err
	}
	s, err := kinds[k].decode(raw)
	if err != nil {
		return nil, &DecodingError{Kind: k, Path: "spec", Reason: err.Error()}
	}
	if err := s.check(); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeAs[T Spec](raw []byte) (Spec, error) {
	var s T
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return s, nil
}
