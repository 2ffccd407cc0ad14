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

// Package persistence defines interfaces and tests for storing the latest
// verified state of monitored log shards.
package persistence

import (
	"context"
	"time"
)

// ShardState is what was last verified about a tree of the log.
type ShardState struct {
	TreeSize uint64
	RootHash []byte
	// Checkpoint is the signed checkpoint the state was taken from. It is empty
	// when the log's signature is not being checked.
	Checkpoint []byte
	VerifiedAt time.Time
}

// StateStore is a handle on persistent storage for shard states.
type StateStore interface {
	// Init sets up the persistence layer. This should be idempotent,
	// and will be called once per process startup.
	Init(ctx context.Context) error

	// Shards returns the tree IDs of all shards with a stored state.
	Shards(ctx context.Context) ([]string, error)

	// Latest returns the stored state for the tree, or nil if there is none.
	Latest(ctx context.Context, treeID string) (*ShardState, error)

	// Update atomically replaces the stored state for the tree.
	//
	// f is passed the current state (nil if there is none) and returns the
	// state to store. If f returns an error it is returned unwrapped by
	// Update and nothing is written; if it returns a nil state the stored
	// state is left as it is.
	Update(ctx context.Context, treeID string, f UpdateFn) error
}

// UpdateFn takes the currently stored state and returns the one which should
// replace it.
type UpdateFn func(current *ShardState) (next *ShardState, err error)
