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

// Package inmemory provides a persistence implementation that lives only in memory.
package inmemory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/trailofbits/sigstore-apis/internal/persistence"
)

// NewPersistence returns a persistence object that lives only in memory.
func NewPersistence() persistence.StateStore {
	return &inMemoryPersistence{
		states: make(map[string]persistence.ShardState),
	}
}

type inMemoryPersistence struct {
	// mu allows states to be read concurrently, but
	// exclusively locked for writing.
	mu     sync.RWMutex
	states map[string]persistence.ShardState
}

func (p *inMemoryPersistence) Init(_ context.Context) error {
	return nil
}

func (p *inMemoryPersistence) Shards(_ context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res := make([]string, 0, len(p.states))
	for k := range p.states {
		res = append(res, k)
	}
	sort.Strings(res)
	return res, nil
}

func (p *inMemoryPersistence) Latest(_ context.Context, treeID string) (*persistence.ShardState, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.getLocked(treeID), nil
}

// getLocked returns a copy, so callers cannot modify what is stored.
func (p *inMemoryPersistence) getLocked(treeID string) *persistence.ShardState {
	s, ok := p.states[treeID]
	if !ok {
		return nil
	}
	s.RootHash = bytes.Clone(s.RootHash)
	s.Checkpoint = bytes.Clone(s.Checkpoint)
	return &s
}

func (p *inMemoryPersistence) Update(_ context.Context, treeID string, f persistence.UpdateFn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	u, err := f(p.getLocked(treeID))
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	s := *u
	s.RootHash = bytes.Clone(s.RootHash)
	s.Checkpoint = bytes.Clone(s.Checkpoint)
	p.states[treeID] = s
	return nil
}
