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

package api

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/trailofbits/sigstore-apis/entry"
	"github.com/transparency-dev/formats/log"
	"golang.org/x/mod/sumdb/note"
)

// ShardInfo is the state of one tree of the log.
type ShardInfo struct {
	// RootHash is the hex encoded root hash of the tree.
	RootHash string `json:"rootHash"`
	TreeSize int64  `json:"treeSize"`
	// SignedTreeHead is the checkpoint for the tree, as a signed note.
	SignedTreeHead string `json:"signedTreeHead"`
	TreeID         string `json:"treeID"`
}

// Checkpoint parses and verifies the signed tree head of the shard.
func (s ShardInfo) Checkpoint(origin string, v note.Verifier) (*log.Checkpoint, error) {
	cp, _, _, err := log.ParseCheckpoint([]byte(s.SignedTreeHead), origin, v)
	if err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint of tree %s: %v", s.TreeID, err)
	}
	if cp.Size != uint64(s.TreeSize) {
		return nil, fmt.Errorf("checkpoint of tree %s has size %d, but treeSize is %d", s.TreeID, cp.Size, s.TreeSize)
	}
	if got := hex.EncodeToString(cp.Hash); got != s.RootHash {
		return nil, fmt.Errorf("checkpoint of tree %s has root %s, but rootHash is %s", s.TreeID, got, s.RootHash)
	}
	return cp, nil
}

// Root decodes the root hash.
func (s ShardInfo) Root() ([]byte, error) {
	return hex.DecodeString(s.RootHash)
}

// LogInfo is the state of the log as returned by the getLogInfo operation.
// The active shard is embedded; frozen shards are listed in InactiveShards.
type LogInfo struct {
	ShardInfo
	InactiveShards []ShardInfo `json:"inactiveShards,omitempty"`
}

// TotalSize returns the number of entries across all shards, which bounds the
// log indexes the log can serve.
func (li LogInfo) TotalSize() int64 {
	n := li.TreeSize
	for _, s := range li.InactiveShards {
		n += s.TreeSize
	}
	return n
}

// Shard returns the state of the tree with the given ID.
func (li LogInfo) Shard(treeID string) (ShardInfo, bool) {
	if li.TreeID == treeID {
		return li.ShardInfo, true
	}
	for _, s := range li.InactiveShards {
		if s.TreeID == treeID {
			return s, true
		}
	}
	return ShardInfo{}, false
}

// InclusionProof proves that an entry is committed to by a checkpoint.
type InclusionProof struct {
	LogIndex int64 `json:"logIndex"`
	RootHash string `json:"rootHash"`
	TreeSize int64  `json:"treeSize"`
	// Hashes are hex encoded.
	Hashes     []string `json:"hashes"`
	Checkpoint string   `json:"checkpoint,omitempty"`
}

// Verification holds the material for offline verification of a LogEntry.
type Verification struct {
	InclusionProof       *InclusionProof `json:"inclusionProof,omitempty"`
	SignedEntryTimestamp []byte          `json:"signedEntryTimestamp,omitempty"`
}

// Attestation is the optional attestation stored alongside an entry.
type Attestation struct {
	Data []byte `json:"data,omitempty"`
}

// LogEntry is a single entry integrated into the log.
type LogEntry struct {
	// UUID is the key the entry is returned under; it is not part of the
	// entry's JSON encoding.
	UUID string `json:"-"`
	// Body is the canonicalized entry.
	Body           []byte        `json:"body"`
	IntegratedTime int64         `json:"integratedTime"`
	LogID          string        `json:"logID"`
	LogIndex       int64         `json:"logIndex"`
	Verification   *Verification `json:"verification,omitempty"`
	Attestation    *Attestation  `json:"attestation,omitempty"`
}

// Entry decodes the body of the log entry. Only intoto bodies at apiVersion
// 0.0.2 are supported; older intoto bodies yield an *entry.DecodingError.
func (e LogEntry) Entry() (entry.ProposedEntry, error) {
	return entry.Unmarshal(e.Body)
}

// IntegratedAt returns the time the entry was integrated into the log.
func (e LogEntry) IntegratedAt() time.Time {
	return time.Unix(e.IntegratedTime, 0).UTC()
}

// LogEntries is the wire form of log entries: a map keyed by UUID.
type LogEntries map[string]LogEntry

// Flatten returns the entries with their UUID filled in, in no particular order.
func (le LogEntries) Flatten() []LogEntry {
	r := make([]LogEntry, 0, len(le))
	for uuid, e := range le {
		e.UUID = uuid
		r = append(r, e)
	}
	return r
}

// SearchLogQuery selects entries of the log by content, UUID or index.
type SearchLogQuery struct {
	Entries    []entry.ProposedEntry `json:"entries,omitempty"`
	EntryUUIDs []string              `json:"entryUUIDs,omitempty"`
	LogIndexes []int64               `json:"logIndexes,omitempty"`
}

// IsEmpty returns true if no selector of the query has any items.
func (q SearchLogQuery) IsEmpty() bool {
	return len(q.Entries) == 0 && len(q.EntryUUIDs) == 0 && len(q.LogIndexes) == 0
}

// Len returns the total number of items across all selectors.
func (q SearchLogQuery) Len() int {
	return len(q.Entries) + len(q.EntryUUIDs) + len(q.LogIndexes)
}

// ConsistencyProof proves that one size of a tree is a prefix of a larger one.
type ConsistencyProof struct {
	// Hashes are hex encoded.
	Hashes   []string `json:"hashes"`
	RootHash string   `json:"rootHash"`
}

// Decode returns the proof's hashes as bytes.
func (p ConsistencyProof) Decode() ([][]byte, error) {
	r := make([][]byte, 0, len(p.Hashes))
	for i, h := range p.Hashes {
		b, err := hex.DecodeString(h)
		if err != nil {
			return nil, fmt.Errorf("invalid proof hash %d: %v", i, err)
		}
		r = append(r, b)
	}
	return r, nil
}

// ErrorBody is the payload the log returns with a failed request.
type ErrorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
