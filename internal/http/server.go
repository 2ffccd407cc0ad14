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

// Package http serves the state the log monitor has verified.
package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/trailofbits/sigstore-apis/internal/persistence"
	"k8s.io/klog/v2"
)

const (
	// HTTPGetShards is the path of the URL to list the monitored shards.
	HTTPGetShards = "/monitor/v1/shards"
	// HTTPGetShardState is the path of the URL to get the last verified state
	// of a shard. The placeholder is for the tree ID.
	HTTPGetShardState = "/monitor/v1/shards/%s"
	// HTTPGetShardCheckpoint is the path of the URL to get the last verified
	// signed checkpoint of a shard. The placeholder is for the tree ID.
	HTTPGetShardCheckpoint = "/monitor/v1/shards/%s/checkpoint"
)

// Monitor is the part of the monitor the server reads from.
type Monitor interface {
	Shards() []string
	Latest(ctx context.Context, treeID string) (*persistence.ShardState, error)
}

// ShardState is the JSON form of a verified shard state.
type ShardState struct {
	TreeID     string    `json:"treeID"`
	TreeSize   uint64    `json:"treeSize"`
	RootHash   string    `json:"rootHash"`
	VerifiedAt time.Time `json:"verifiedAt"`
	Signed     bool      `json:"signed"`
}

// Server is the handler implementation of the monitor's status API.
type Server struct {
	m Monitor
}

// NewServer creates a new server.
func NewServer(m Monitor) *Server {
	return &Server{
		m: m,
	}
}

// latest returns the state of the shard named in the request, having written
// an error response if there isn't one.
func (s *Server) latest(w http.ResponseWriter, r *http.Request) (string, *persistence.ShardState, bool) {
	treeID := mux.Vars(r)["treeid"]
	if !slices.Contains(s.m.Shards(), treeID) {
		http.Error(w, "unknown shard", http.StatusNotFound)
		return "", nil, false
	}
	st, err := s.m.Latest(r.Context(), treeID)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to get state: %v", err), http.StatusInternalServerError)
		return "", nil, false
	} else if st == nil {
		http.Error(w, "shard not yet verified", http.StatusNotFound)
		return "", nil, false
	}
	return treeID, st, true
}

// getState returns the last verified state of a shard.
func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	treeID, st, ok := s.latest(w, r)
	if !ok {
		return
	}
	writeJSON(w, ShardState{
		TreeID:     treeID,
		TreeSize:   st.TreeSize,
		RootHash:   hex.EncodeToString(st.RootHash),
		VerifiedAt: st.VerifiedAt.UTC(),
		Signed:     len(st.Checkpoint) > 0,
	})
}

// getCheckpoint returns the signed checkpoint a shard was last verified at.
func (s *Server) getCheckpoint(w http.ResponseWriter, r *http.Request) {
	_, st, ok := s.latest(w, r)
	if !ok {
		return
	}
	if len(st.Checkpoint) == 0 {
		http.Error(w, "shard checkpoints are not verified", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write(st.Checkpoint); err != nil {
		klog.Warningf("Error writing response: %v", err)
	}
}

// getShards returns the tree IDs of all monitored shards.
func (s *Server) getShards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.m.Shards())
}

func writeJSON(w http.ResponseWriter, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to convert to JSON: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(raw); err != nil {
		klog.Warningf("Error writing response: %v", err)
	}
}

// RegisterHandlers registers HTTP handlers for the status endpoints.
func (s *Server) RegisterHandlers(r *mux.Router) {
	treeStr := "{treeid:[0-9]+}"
	r.HandleFunc(fmt.Sprintf(HTTPGetShardCheckpoint, treeStr), s.getCheckpoint).Methods(http.MethodGet)
	r.HandleFunc(fmt.Sprintf(HTTPGetShardState, treeStr), s.getState).Methods(http.MethodGet)
	r.HandleFunc(HTTPGetShards, s.getShards).Methods(http.MethodGet)
}
