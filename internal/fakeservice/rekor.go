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

package fakeservice

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/entry"
	"github.com/transparency-dev/formats/log"
	"github.com/transparency-dev/merkle/rfc6962"
	"github.com/transparency-dev/merkle/testonly"
	"golang.org/x/mod/sumdb/note"
	"k8s.io/klog/v2"
)

// ErrDuplicate is returned by Rekor.Add for an entry the log already holds.
var ErrDuplicate = errors.New("entry already exists")

// Rekor is an in-memory transparency log with a single tree.
type Rekor struct {
	outage

	treeID   string
	origin   string
	signer   note.Signer
	verifier note.Verifier
	vkey     string
	pubPEM   []byte
	logID    string
	now      func() time.Time

	mu      sync.RWMutex
	tree    *testonly.Tree
	entries []api.LogEntry
	byUUID  map[string]int64
}

// NewRekor returns an empty log whose tree has the given ID. Checkpoints are
// signed with a fresh key.
func NewRekor(treeID string) (*Rekor, error) {
	skey, _, err := note.GenerateKey(rand.Reader, "fake-rekor")
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %v", err)
	}
	return NewRekorWithKey(treeID, skey)
}

// NewRekorWithKey returns an empty log whose tree has the given ID, signing
// checkpoints with the note signer key skey. The key must be Ed25519.
func NewRekorWithKey(treeID, skey string) (*Rekor, error) {
	s, err := note.NewSigner(skey)
	if err != nil {
		return nil, fmt.Errorf("failed to create signer: %v", err)
	}
	vkey, err := verifierKey(skey)
	if err != nil {
		return nil, err
	}
	v, err := note.NewVerifier(vkey)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier: %v", err)
	}
	der, err := PublicKeyDER(vkey)
	if err != nil {
		return nil, err
	}
	logID := sha256.Sum256(der)
	return &Rekor{
		treeID:   treeID,
		origin:   fmt.Sprintf("%s - %s", s.Name(), treeID),
		signer:   s,
		verifier: v,
		vkey:     vkey,
		pubPEM:   pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}),
		logID:    hex.EncodeToString(logID[:]),
		now:      time.Now,
		tree:     testonly.New(rfc6962.DefaultHasher),
		byUUID:   make(map[string]int64),
	}, nil
}

// TreeID returns the ID of the log's tree.
func (f *Rekor) TreeID() string { return f.treeID }

// Origin returns the first line of the log's checkpoints.
func (f *Rekor) Origin() string { return f.origin }

// Verifier returns a verifier for the log's checkpoints.
func (f *Rekor) Verifier() note.Verifier { return f.verifier }

// VKey returns the note verifier key for the log's checkpoints.
func (f *Rekor) VKey() string { return f.vkey }

// Size returns the number of entries in the log.
func (f *Rekor) Size() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return int64(len(f.entries))
}

// Add integrates e into the log.
func (f *Rekor) Add(e entry.ProposedEntry) (api.LogEntry, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return api.LogEntry{}, err
	}
	uuid := hex.EncodeToString(rfc6962.DefaultHasher.HashLeaf(body))

	f.mu.Lock()
	defer f.mu.Unlock()
	if idx, ok := f.byUUID[uuid]; ok {
		return f.entries[idx], ErrDuplicate
	}
	idx := int64(len(f.entries))
	f.tree.AppendData(body)
	size := f.tree.Size()
	hashes, err := f.tree.InclusionProof(uint64(idx), size)
	if err != nil {
		return api.LogEntry{}, fmt.Errorf("failed to build inclusion proof: %v", err)
	}
	cp, err := f.checkpointLocked(size)
	if err != nil {
		return api.LogEntry{}, err
	}
	le := api.LogEntry{
		UUID:           uuid,
		Body:           body,
		IntegratedTime: f.now().Unix(),
		LogID:          f.logID,
		LogIndex:       idx,
		Verification: &api.Verification{
			InclusionProof: &api.InclusionProof{
				LogIndex:   idx,
				RootHash:   hex.EncodeToString(f.tree.HashAt(size)),
				TreeSize:   int64(size),
				Hashes:     hexAll(hashes),
				Checkpoint: string(cp),
			},
		},
	}
	f.entries = append(f.entries, le)
	f.byUUID[uuid] = idx
	return le, nil
}

func (f *Rekor) checkpointLocked(size uint64) ([]byte, error) {
	cp := log.Checkpoint{Origin: f.origin, Size: size, Hash: f.tree.HashAt(size)}
	n, err := note.Sign(&note.Note{Text: string(cp.Marshal())}, f.signer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign checkpoint: %v", err)
	}
	return n, nil
}

// LogInfo returns the current state of the log.
func (f *Rekor) LogInfo() (*api.LogInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	size := f.tree.Size()
	cp, err := f.checkpointLocked(size)
	if err != nil {
		return nil, err
	}
	return &api.LogInfo{ShardInfo: api.ShardInfo{
		RootHash:       hex.EncodeToString(f.tree.HashAt(size)),
		TreeSize:       int64(size),
		SignedTreeHead: string(cp),
		TreeID:         f.treeID,
	}}, nil
}

func hexAll(hs [][]byte) []string {
	r := make([]string, 0, len(hs))
	for _, h := range hs {
		r = append(r, hex.EncodeToString(h))
	}
	return r
}

// lookup accepts both UUIDs and entry IDs (the UUID prefixed by the tree ID).
func (f *Rekor) lookup(id string) (api.LogEntry, bool) {
	if len(id) == 80 {
		id = id[16:]
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	idx, ok := f.byUUID[strings.ToLower(id)]
	if !ok {
		return api.LogEntry{}, false
	}
	return f.entries[idx], true
}

func (f *Rekor) at(idx int64) (api.LogEntry, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if idx < 0 || idx >= int64(len(f.entries)) {
		return api.LogEntry{}, false
	}
	return f.entries[idx], true
}

func single(e api.LogEntry) api.LogEntries {
	return api.LogEntries{e.UUID: e}
}

func (f *Rekor) getLogInfo(w http.ResponseWriter, r *http.Request) {
	li, err := f.LogInfo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, li)
}

func (f *Rekor) getLogEntryByIndex(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.ParseInt(r.URL.Query().Get("logIndex"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid logIndex: %v", err)
		return
	}
	e, ok := f.at(idx)
	if !ok {
		writeError(w, http.StatusNotFound, "no entry at index %d", idx)
		return
	}
	writeJSON(w, http.StatusOK, single(e))
}

func (f *Rekor) getLogEntryByUUID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["uuid"]
	e, ok := f.lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "no entry with UUID %s", id)
		return
	}
	writeJSON(w, http.StatusOK, single(e))
}

func (f *Rekor) searchLogQuery(w http.ResponseWriter, r *http.Request) {
	var q api.SearchLogQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid query: %v", err)
		return
	}
	if len(q.Entries) > api.MaxSearchQueryItems || len(q.EntryUUIDs) > api.MaxSearchQueryItems || len(q.LogIndexes) > api.MaxSearchQueryItems {
		writeError(w, http.StatusUnprocessableEntity, "at most %d items per selector", api.MaxSearchQueryItems)
		return
	}
	r2 := []api.LogEntries{}
	for _, pe := range q.Entries {
		body, err := json.Marshal(pe)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid entry: %v", err)
			return
		}
		if e, ok := f.lookup(hex.EncodeToString(rfc6962.DefaultHasher.HashLeaf(body))); ok {
			r2 = append(r2, single(e))
		}
	}
	for _, id := range q.EntryUUIDs {
		if e, ok := f.lookup(id); ok {
			r2 = append(r2, single(e))
		}
	}
	for _, idx := range q.LogIndexes {
		if e, ok := f.at(idx); ok {
			r2 = append(r2, single(e))
		}
	}
	writeJSON(w, http.StatusOK, r2)
}

func (f *Rekor) createLogEntry(w http.ResponseWriter, r *http.Request) {
	var pe entry.ProposedEntry
	if err := json.NewDecoder(r.Body).Decode(&pe); err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry: %v", err)
		return
	}
	e, err := f.Add(pe)
	if e.UUID != "" {
		w.Header().Set("Location", fmt.Sprintf(api.HTTPGetLogEntryByUUID, e.UUID))
	}
	switch {
	case errors.Is(err, ErrDuplicate):
		writeError(w, http.StatusConflict, "an equivalent entry already exists in the log")
	case err != nil:
		writeError(w, http.StatusInternalServerError, "%v", err)
	default:
		writeJSON(w, http.StatusCreated, single(e))
	}
}

func (f *Rekor) getLogProof(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if id := q.Get("treeID"); id != "" && id != f.treeID {
		writeError(w, http.StatusNotFound, "unknown tree %s", id)
		return
	}
	first, err1 := strconv.ParseUint(q.Get("firstSize"), 10, 64)
	last, err2 := strconv.ParseUint(q.Get("lastSize"), 10, 64)
	if err := errors.Join(err1, err2); err != nil {
		writeError(w, http.StatusBadRequest, "invalid size: %v", err)
		return
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if first < 1 || first > last || last > f.tree.Size() {
		writeError(w, http.StatusBadRequest, "cannot prove %d to %d in a tree of size %d", first, last, f.tree.Size())
		return
	}
	p, err := f.tree.ConsistencyProof(first, last)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	writeJSON(w, http.StatusOK, api.ConsistencyProof{Hashes: hexAll(p), RootHash: hex.EncodeToString(f.tree.HashAt(last))})
}

func (f *Rekor) getPublicKey(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("treeID"); id != "" && id != f.treeID {
		writeError(w, http.StatusNotFound, "unknown tree %s", id)
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	if _, err := w.Write(f.pubPEM); err != nil {
		klog.Warningf("Error writing response: %v", err)
	}
}

// RegisterHandlers registers the log's endpoints on r.
func (f *Rekor) RegisterHandlers(r *mux.Router) {
	r.HandleFunc(api.HTTPGetLogInfo, f.guard(f.getLogInfo)).Methods(http.MethodGet)
	r.HandleFunc(api.HTTPGetLogProof, f.guard(f.getLogProof)).Methods(http.MethodGet)
	r.HandleFunc(api.HTTPGetPublicKey, f.guard(f.getPublicKey)).Methods(http.MethodGet)
	r.HandleFunc(api.HTTPSearchLogQuery, f.guard(f.searchLogQuery)).Methods(http.MethodPost)
	r.HandleFunc(api.HTTPLogEntries, f.guard(f.getLogEntryByIndex)).Methods(http.MethodGet).Queries("logIndex", "{logIndex}")
	r.HandleFunc(api.HTTPLogEntries, f.guard(f.createLogEntry)).Methods(http.MethodPost)
	r.HandleFunc(fmt.Sprintf(api.HTTPGetLogEntryByUUID, "{uuid:[0-9a-fA-F]+}"), f.guard(f.getLogEntryByUUID)).Methods(http.MethodGet)
}
