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
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// The schemas are written so that no spec can satisfy more than one of them:
// every object forbids additional properties, and kinds which share top-level
// fields differ in what they require underneath.
//
//go:embed schemas/*.json
var schemaFS embed.FS

var (
	schemaOnce sync.Once
	schemas    map[Kind]*gojsonschema.Schema
	schemaErr  error
)

func loadSchemas() {
	schemaOnce.Do(func() {
		schemas = make(map[Kind]*gojsonschema.Schema, len(kindOrder))
		for _, k := range kindOrder {
			src, err := schemaFS.ReadFile(fmt.Sprintf("schemas/%s.json", k))
			if err != nil {
				schemaErr = fmt.Errorf("failed to read %s schema: %v", k, err)
				return
			}
			s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(src))
			if err != nil {
				schemaErr = fmt.Errorf("failed to compile %s schema: %v", k, err)
				return
			}
			schemas[k] = s
		}
	})
}

// validate checks that raw is a structurally well-formed spec for k.
func validate(k Kind, raw []byte) error {
	loadSchemas()
	if schemaErr != nil {
		return &DecodingError{Kind: k, Path: "spec", Reason: schemaErr.Error()}
	}
	s, ok := schemas[k]
	if !ok {
		return &DecodingError{Path: "kind", Reason: fmt.Sprintf("unsupported kind %q", k)}
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &DecodingError{Kind: k, Path: "spec", Reason: err.Error()}
	}
	if res.Valid() {
		return nil
	}
	errs := res.Errors()
	// Report a stable error regardless of the order the validator found them in.
	sort.Slice(errs, func(i, j int) bool {
		if a, b := errs[i].Field(), errs[j].Field(); a != b {
			return a < b
		}
		return errs[i].Type() < errs[j].Type()
	})
	return &DecodingError{Kind: k, Path: fieldPath(errs[0]), Reason: errs[0].Description()}
}

// fieldPath converts the location of a validation error into a dotted path
// rooted at "spec".
func fieldPath(e gojsonschema.ResultError) string {
	p := []string{"spec"}
	if f := e.Field(); f != "" && f != rootPath {
		p = append(p, f)
	}
	switch e.Type() {
	case "required", "additional_property_not_allowed":
		if prop, ok := e.Details()["property"].(string); ok && p[len(p)-1] != prop {
			p = append(p, prop)
		}
	}
	return strings.Join(p, ".")
}
