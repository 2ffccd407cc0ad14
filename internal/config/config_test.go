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

package config

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/mod/sumdb/note"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if got, want := c.Rekor.Parsed().String(), "https://rekor.sigstore.dev"; got != want {
		t.Errorf("Rekor URL = %q, want %q", got, want)
	}
	if got, want := c.Fulcio.Parsed().Host, "fulcio.sigstore.dev"; got != want {
		t.Errorf("Fulcio host = %q, want %q", got, want)
	}
	if c.PollInterval != 5*time.Minute {
		t.Errorf("PollInterval = %v, want 5m", c.PollInterval)
	}
	if len(c.Shards) != 1 || c.Shards[0].Verifier != nil {
		t.Errorf("unexpected shards %+v", c.Shards)
	}
}

func TestParse(t *testing.T) {
	_, vkey, err := note.GenerateKey(rand.Reader, "example.com/log")
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		desc    string
		yaml    string
		wantErr bool
	}{
		{
			desc: "verified shard",
			yaml: fmt.Sprintf("Rekor:\n  URL: http://localhost:8080\nShards:\n  - TreeID: \"1\"\n    Origin: example.com/log - 1\n    PublicKey: %s\n", vkey),
		}, {
			desc:    "unknown key",
			yaml:    "Rekor:\n  URL: http://localhost:8080\n  Timeout: 3s\n",
			wantErr: true,
		}, {
			desc:    "relative URL",
			yaml:    "Fulcio:\n  URL: fulcio\n",
			wantErr: true,
		}, {
			desc:    "duplicate shard",
			yaml:    "Shards:\n  - TreeID: \"1\"\n  - TreeID: \"1\"\n",
			wantErr: true,
		}, {
			desc:    "key without origin",
			yaml:    fmt.Sprintf("Shards:\n  - TreeID: \"1\"\n    PublicKey: %s\n", vkey),
			wantErr: true,
		}, {
			desc:    "bad key",
			yaml:    "Shards:\n  - TreeID: \"1\"\n    Origin: o\n    PublicKey: nope\n",
			wantErr: true,
		}, {
			desc:    "negative interval",
			yaml:    "PollInterval: -1s\n",
			wantErr: true,
		}, {
			desc: "empty",
			yaml: "",
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			c, err := Parse([]byte(test.yaml))
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Fatalf("Parse() = %v, want error %t", err, test.wantErr)
			}
			if err == nil && len(c.Shards) > 0 && c.Shards[0].PublicKey != "" && c.Shards[0].Verifier == nil {
				t.Error("Verifier not set")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte("PollInterval: 30s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if c.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", c.PollInterval)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file succeeded")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	_, vkey, err := note.GenerateKey(rand.Reader, "example.com/log")
	if err != nil {
		t.Fatal(err)
	}
	in := Config{
		Rekor:        Service{URL: "http://localhost:8090"},
		PollInterval: 10 * time.Second,
		Shards:       []Shard{{TreeID: "2", Origin: "example.com/log - 2", PublicKey: vkey}},
	}
	raw, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal(): %v", err)
	}
	c, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%s): %v", raw, err)
	}
	if c.PollInterval != in.PollInterval || c.Rekor.Parsed().Host != "localhost:8090" {
		t.Errorf("Parse() = %+v, want %+v", c, in)
	}
	if len(c.Shards) != 1 || c.Shards[0].Verifier == nil {
		t.Errorf("Shards = %+v, want one verified shard", c.Shards)
	}
}

func TestParseServiceURL(t *testing.T) {
	for _, test := range []struct {
		in      string
		wantErr bool
	}{
		{in: "https://rekor.sigstore.dev"},
		{in: "http://localhost:8090/prefix"},
		{in: "localhost:8090", wantErr: true},
		{in: "ftp://example.com", wantErr: true},
		{in: "/api/v1", wantErr: true},
	} {
		if _, err := ParseServiceURL(test.in); (err != nil) != test.wantErr {
			t.Errorf("ParseServiceURL(%q) = %v, want error %t", test.in, err, test.wantErr)
		}
	}
}
