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

// Package persistence provides conformance tests for StateStore implementations.
package persistence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/trailofbits/sigstore-apis/internal/persistence"
)

// TestUpdate exposes a test that can be invoked by tests for specific implementations of persistence.
func TestUpdate(t *testing.T, storeFactory func() (persistence.StateStore, func() error)) {
	t.Helper()
	treeID := "1193050959916656506"

	s, close := storeFactory()
	defer func() {
		if err := close(); err != nil {
			t.Fatalf("close(): %v", err)
		}
	}()
	if err := s.Init(t.Context()); err != nil {
		t.Fatalf("Init(): %v", err)
	}
	// Init must be idempotent.
	if err := s.Init(t.Context()); err != nil {
		t.Fatalf("second Init(): %v", err)
	}

	if got, err := s.Latest(t.Context(), treeID); err != nil || got != nil {
		t.Fatalf("Latest() on empty store = %v, %v, want nil, nil", got, err)
	}

	// Test that a successful update is visible.
	first := &persistence.ShardState{
		TreeSize:   10,
		RootHash:   []byte("root10"),
		Checkpoint: []byte("origin\n10\ncm9vdDEw\n"),
		VerifiedAt: time.Unix(1700000000, 0).UTC(),
	}
	if err := checkAndSet(t.Context(), s, treeID, nil, first); err != nil {
		t.Fatalf("checkAndSet(nil, %v): %v", first, err)
	}
	got, err := s.Latest(t.Context(), treeID)
	if err != nil {
		t.Fatalf("Latest(): %v", err)
	}
	if d := cmp.Diff(first, got); d != "" {
		t.Errorf("Unexpected state (-want +got):\n%s", d)
	}

	// Test that modifying what was returned does not change what is stored.
	got.RootHash[0] = 'X'
	if again, _ := s.Latest(t.Context(), treeID); !bytes.Equal(again.RootHash, first.RootHash) {
		t.Errorf("stored root changed to %q", again.RootHash)
	}

	// Test that a nil update leaves the state alone.
	if err := s.Update(t.Context(), treeID, func(*persistence.ShardState) (*persistence.ShardState, error) {
		return nil, nil
	}); err != nil {
		t.Fatalf("Update(nil): %v", err)
	}
	second := &persistence.ShardState{TreeSize: 12, RootHash: []byte("root12"), VerifiedAt: time.Unix(1700000100, 0).UTC()}
	if err := checkAndSet(t.Context(), s, treeID, first, second); err != nil {
		t.Fatalf("checkAndSet(%v, %v): %v", first, second, err)
	}

	// Test that errors from the update function are returned as they are.
	{
		wantErr := errors.New("log shrank")
		err := s.Update(t.Context(), treeID, func(_ *persistence.ShardState) (*persistence.ShardState, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Fatalf("Got %[1]v (%[1]T), want %[2]v (%[2]T)", err, wantErr)
		}
		if err := checkAndSet(t.Context(), s, treeID, second, second); err != nil {
			t.Errorf("state changed by failed update: %v", err)
		}
	}

	shards, err := s.Shards(t.Context())
	if err != nil {
		t.Fatalf("Shards(): %v", err)
	}
	if d := cmp.Diff([]string{treeID}, shards); d != "" {
		t.Errorf("Unexpected shards (-want +got):\n%s", d)
	}
}

func checkAndSet(ctx context.Context, s persistence.StateStore, treeID string, expect, write *persistence.ShardState) error {
	if err := s.Update(ctx, treeID, func(current *persistence.ShardState) (*persistence.ShardState, error) {
		if d := cmp.Diff(expect, current); d != "" {
			return nil, fmt.Errorf("unexpected current state (-want +got):\n%s", d)
		}
		return write, nil
	}); err != nil {
		return fmt.Errorf("Update(%s): %w", treeID, err)
	}
	return nil
}
