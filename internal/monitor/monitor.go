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

// Package monitor checks that the shards of a transparency log only ever grow
// by appending entries, by verifying consistency proofs between the states it
// observes over time.
package monitor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/client/rekor"
	"github.com/trailofbits/sigstore-apis/internal/persistence"
	"github.com/trailofbits/sigstore-apis/monitoring"
	"github.com/transparency-dev/merkle"
	"github.com/transparency-dev/merkle/proof"
	"github.com/transparency-dev/merkle/rfc6962"
	"golang.org/x/mod/sumdb/note"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

var (
	doOnce                         sync.Once
	counterCheckAttempt            monitoring.Counter
	counterCheckSuccess            monitoring.Counter
	counterInvalidConsistency      monitoring.Counter
	counterInconsistentCheckpoints monitoring.Counter
)

func initMetrics() {
	doOnce.Do(func() {
		mf := monitoring.GetMetricFactory()
		const treeIDLabel = "treeid"
		counterCheckAttempt = mf.NewCounter("monitor_check_request", "Number of attempted checks of the shard", treeIDLabel)
		counterCheckSuccess = mf.NewCounter("monitor_check_success", "Number of checks of the shard which verified a new state", treeIDLabel)
		counterInvalidConsistency = mf.NewCounter("monitor_check_invalid_consistency", "Number of times the log returned a bad consistency proof for the shard", treeIDLabel)
		counterInconsistentCheckpoints = mf.NewCounter("monitor_check_inconsistent_checkpoints", "Number of times the log returned different roots for the same size of the shard", treeIDLabel)
	})
}

// LogClient is the part of the log's API the monitor needs.
type LogClient interface {
	GetLogInfo(ctx context.Context, opts ...rekor.LogInfoOption) (*api.LogInfo, error)
	GetLogProof(ctx context.Context, firstSize, lastSize int64, treeID string) (*api.ConsistencyProof, error)
}

// Shard is a tree of the log to monitor.
type Shard struct {
	TreeID string
	// Origin is the expected first line of the shard's checkpoints.
	Origin string
	// Verifier checks the log's signature on checkpoints. If nil, checkpoints
	// are not parsed and the reported tree size and root are used instead.
	Verifier note.Verifier
}

// Opts is the options passed to a monitor.
type Opts struct {
	Store  persistence.StateStore
	Log    LogClient
	Shards []Shard
	// Hasher defaults to RFC 6962.
	Hasher merkle.LogHasher
	// Now defaults to time.Now.
	Now func() time.Time
}

// Monitor follows a set of shards of a log.
type Monitor struct {
	store  persistence.StateStore
	log    LogClient
	shards map[string]Shard
	order  []string
	hasher merkle.LogHasher
	now    func() time.Time
}

// New creates a monitor, initialising its store.
func New(ctx context.Context, o Opts) (*Monitor, error) {
	initMetrics()

	if err := o.Store.Init(ctx); err != nil {
		return nil, fmt.Errorf("Store.Init(): %v", err)
	}
	m := &Monitor{
		store:  o.Store,
		log:    o.Log,
		shards: make(map[string]Shard, len(o.Shards)),
		hasher: o.Hasher,
		now:    o.Now,
	}
	if m.hasher == nil {
		m.hasher = rfc6962.DefaultHasher
	}
	if m.now == nil {
		m.now = time.Now
	}
	for _, s := range o.Shards {
		if _, ok := m.shards[s.TreeID]; ok {
			return nil, fmt.Errorf("shard %s configured twice", s.TreeID)
		}
		m.shards[s.TreeID] = s
		m.order = append(m.order, s.TreeID)
	}
	return m, nil
}

// Shards returns the tree IDs of the monitored shards, in configuration order.
func (m *Monitor) Shards() []string {
	return append([]string(nil), m.order...)
}

// Latest returns the last verified state of the shard, or nil if it has never
// been checked.
func (m *Monitor) Latest(ctx context.Context, treeID string) (*persistence.ShardState, error) {
	return m.store.Latest(ctx, treeID)
}

// Check fetches the current state of the shard from the log and, if it is
// consistent with the last verified state, stores it. The first state seen
// for a shard is trusted.
//
// Failures of the log client are returned wrapped as they are. Otherwise:
//   - codes.NotFound if the shard is unknown, here or to the log
//   - codes.InvalidArgument if the checkpoint cannot be verified
//   - codes.AlreadyExists if the shard is smaller than it was
//   - codes.FailedPrecondition if the shard is inconsistent with what was seen
//   - codes.Aborted if the stored state changed during the check
func (m *Monitor) Check(ctx context.Context, treeID string) (*persistence.ShardState, error) {
	shard, ok := m.shards[treeID]
	if !ok {
		return nil, status.Errorf(codes.NotFound, "shard %q not monitored", treeID)
	}
	counterCheckAttempt.Inc(treeID)

	prev, err := m.store.Latest(ctx, treeID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "couldn't retrieve latest state: %v", err)
	}
	var opts []rekor.LogInfoOption
	if prev != nil {
		opts = append(opts, rekor.StableIndexHint(int64(prev.TreeSize)))
	}
	li, err := m.log.GetLogInfo(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch log info: %w", err)
	}
	si, ok := li.Shard(treeID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "log has no shard %q", treeID)
	}
	next, err := m.stateOf(shard, si)
	if err != nil {
		return nil, err
	}

	// Fetch the proof outside of the update, which must not wait on the log.
	var cProof [][]byte
	if prev != nil && prev.TreeSize > 0 && next.TreeSize > prev.TreeSize {
		p, err := m.log.GetLogProof(ctx, int64(prev.TreeSize), int64(next.TreeSize), treeID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch consistency proof: %w", err)
		}
		if cProof, err = p.Decode(); err != nil {
			return nil, fmt.Errorf("failed to decode consistency proof: %w", err)
		}
	}

	err = m.store.Update(ctx, treeID, func(cur *persistence.ShardState) (*persistence.ShardState, error) {
		if !sameState(cur, prev) {
			return nil, status.Errorf(codes.Aborted, "state of shard %s changed during check", treeID)
		}
		if cur == nil {
			klog.Infof("%s: trusting first state @%d: %x", treeID, next.TreeSize, next.RootHash)
			return next, nil
		}
		return m.verify(treeID, cur, next, cProof)
	})
	if err != nil {
		return nil, err
	}
	counterCheckSuccess.Inc(treeID)
	return next, nil
}

// CheckAll checks every shard once, in configuration order, and returns the
// failures joined.
func (m *Monitor) CheckAll(ctx context.Context) error {
	var errs []error
	for _, id := range m.order {
		if _, err := m.Check(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// stateOf extracts the state to verify from what the log reported.
func (m *Monitor) stateOf(shard Shard, si api.ShardInfo) (*persistence.ShardState, error) {
	s := &persistence.ShardState{VerifiedAt: m.now().UTC()}
	if shard.Verifier != nil {
		cp, err := si.Checkpoint(shard.Origin, shard.Verifier)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "couldn't verify checkpoint: %v", err)
		}
		s.TreeSize, s.RootHash, s.Checkpoint = cp.Size, cp.Hash, []byte(si.SignedTreeHead)
		return s, nil
	}
	root, err := si.Root()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid root hash %q: %v", si.RootHash, err)
	}
	if si.TreeSize < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "negative tree size %d", si.TreeSize)
	}
	s.TreeSize, s.RootHash = uint64(si.TreeSize), root
	return s, nil
}

// verify returns next if it is a valid successor of prev.
func (m *Monitor) verify(treeID string, prev, next *persistence.ShardState, cProof [][]byte) (*persistence.ShardState, error) {
	if next.TreeSize < prev.TreeSize {
		return nil, status.Errorf(codes.AlreadyExists, "cannot prove consistency backwards (%d < %d)", next.TreeSize, prev.TreeSize)
	}
	if next.TreeSize == prev.TreeSize {
		if !bytes.Equal(next.RootHash, prev.RootHash) {
			klog.Errorf("%s: INCONSISTENT STATES!:\n@%d: %x\n@%d: %x", treeID, prev.TreeSize, prev.RootHash, next.TreeSize, next.RootHash)
			counterInconsistentCheckpoints.Inc(treeID)
			return nil, status.Errorf(codes.FailedPrecondition, "same size shard with differing hash (got %x, have %x)", next.RootHash, prev.RootHash)
		}
		// Store it anyway, so VerifiedAt shows freshness.
		return next, nil
	}
	if prev.TreeSize == 0 {
		// Empty trees have nothing to prove consistency with.
		return next, nil
	}
	if err := proof.VerifyConsistency(m.hasher, prev.TreeSize, next.TreeSize, cProof, prev.RootHash, next.RootHash); err != nil {
		counterInvalidConsistency.Inc(treeID)
		return nil, status.Errorf(codes.FailedPrecondition, "failed to verify consistency proof: %v", err)
	}
	klog.V(1).Infof("%s: verified @%d -> @%d: %x", treeID, prev.TreeSize, next.TreeSize, next.RootHash)
	return next, nil
}

func sameState(a, b *persistence.ShardState) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.TreeSize == b.TreeSize && bytes.Equal(a.RootHash, b.RootHash)
}
