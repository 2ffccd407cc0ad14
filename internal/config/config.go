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

// Package config reads the description of the services to talk to and the
// log shards to monitor.
package config

import (
	"bytes"
	_ "embed" // embed is needed to embed files as constants
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	f_note "github.com/transparency-dev/formats/note"
	"golang.org/x/mod/sumdb/note"
	"gopkg.in/yaml.v3"
)

var (
	// DefaultConfig points at the Sigstore public good instance.
	//go:embed default.yaml
	DefaultConfig []byte
)

// Config is the parsed configuration.
type Config struct {
	Rekor  Service `yaml:"Rekor"`
	Fulcio Service `yaml:"Fulcio"`
	// PollInterval is how often each shard is checked.
	PollInterval time.Duration `yaml:"PollInterval"`
	Shards       []Shard       `yaml:"Shards"`
}

// Service locates one of the services.
type Service struct {
	URL string `yaml:"URL"`

	parsed *url.URL
}

// Parsed returns the service's base URL.
func (s Service) Parsed() *url.URL {
	return s.parsed
}

// Shard is a tree of the log to monitor.
type Shard struct {
	TreeID string `yaml:"TreeID"`
	// Origin is the expected first line of the shard's checkpoints.
	Origin string `yaml:"Origin"`
	// PublicKey is the serialised note-compliant vkey for the shard.
	PublicKey string `yaml:"PublicKey"`

	// Verifier is set when PublicKey is.
	Verifier note.Verifier `yaml:"-"`
}

// Load reads the configuration at path, or DefaultConfig if path is empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(DefaultConfig)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %v", err)
	}
	return Parse(raw)
}

// Parse parses and checks a YAML configuration. Unknown keys are rejected.
func Parse(raw []byte) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config: %v", err)
	}
	for name, s := range map[string]*Service{"Rekor": &c.Rekor, "Fulcio": &c.Fulcio} {
		if s.URL == "" {
			continue
		}
		u, err := ParseServiceURL(s.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid %s URL: %v", name, err)
		}
		s.parsed = u
	}
	if c.PollInterval < 0 {
		return nil, fmt.Errorf("negative PollInterval %v", c.PollInterval)
	}
	seen := make(map[string]bool)
	for i := range c.Shards {
		s := &c.Shards[i]
		if s.TreeID == "" {
			return nil, fmt.Errorf("shard %d has no TreeID", i)
		}
		if seen[s.TreeID] {
			return nil, fmt.Errorf("shard %s configured twice", s.TreeID)
		}
		seen[s.TreeID] = true
		if s.PublicKey == "" {
			continue
		}
		if s.Origin == "" {
			return nil, fmt.Errorf("shard %s has a PublicKey but no Origin", s.TreeID)
		}
		v, err := f_note.NewVerifier(s.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create signature verifier for shard %s: %v", s.TreeID, err)
		}
		s.Verifier = v
	}
	return c, nil
}

// ParseServiceURL parses the base URL of a service, which must be absolute.
func ParseServiceURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return u, nil
}
