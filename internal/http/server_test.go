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

package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/trailofbits/sigstore-apis/internal/persistence"
	"github.com/trailofbits/sigstore-apis/internal/persistence/inmemory"
)

var verifiedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeMonitor struct {
	shards []string
	store  persistence.StateStore
}

func (f fakeMonitor) Shards() []string { return f.shards }

func (f fakeMonitor) Latest(ctx context.Context, treeID string) (*persistence.ShardState, error) {
	return f.store.Latest(ctx, treeID)
}

// newMonitor returns a monitor of shards "1", "2" and "3", where "1" has been
// verified with a checkpoint and "2" without one.
func newMonitor(t *testing.T) fakeMonitor {
	t.Helper()
	ctx := context.Background()
	s := inmemory.NewPersistence()
	for id, st := range map[string]*persistence.ShardState{
		"1": {TreeSize: 5, RootHash: []byte{0xab, 0xcd}, Checkpoint: []byte("origin\n5\nq80=\n\n- sig\n"), VerifiedAt: verifiedAt},
		"2": {TreeSize: 9, RootHash: []byte{0x01}, VerifiedAt: verifiedAt},
	} {
		if err := s.Update(ctx, id, func(*persistence.ShardState) (*persistence.ShardState, error) { return st, nil }); err != nil {
			t.Fatalf("Update(%s): %v", id, err)
		}
	}
	return fakeMonitor{shards: []string{"1", "2", "3"}, store: s}
}

func createTestEnv(m Monitor) (*httptest.Server, func()) {
	r := mux.NewRouter()
	server := NewServer(m)
	server.RegisterHandlers(r)
	ts := httptest.NewServer(r)
	return ts, ts.Close
}

func get(t *testing.T, ts *httptest.Server, path string) (int, []byte) {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("Get(%s): %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, body
}

func TestGetShards(t *testing.T) {
	ts, closeFn := createTestEnv(newMonitor(t))
	defer closeFn()

	code, body := get(t, ts, HTTPGetShards)
	if code != http.StatusOK {
		t.Fatalf("status code got %d, want %d", code, http.StatusOK)
	}
	var got []string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("failed to unmarshal body: %v", err)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, got); diff != "" {
		t.Errorf("unexpected shards (-want +got):\n%s", diff)
	}
}

func TestGetState(t *testing.T) {
	for _, test := range []struct {
		desc       string
		treeID     string
		wantStatus int
		want       *ShardState
	}{
		{
			desc:       "signed",
			treeID:     "1",
			wantStatus: http.StatusOK,
			want:       &ShardState{TreeID: "1", TreeSize: 5, RootHash: "abcd", VerifiedAt: verifiedAt, Signed: true},
		}, {
			desc:       "unsigned",
			treeID:     "2",
			wantStatus: http.StatusOK,
			want:       &ShardState{TreeID: "2", TreeSize: 9, RootHash: "01", VerifiedAt: verifiedAt},
		}, {
			desc:       "not yet verified",
			treeID:     "3",
			wantStatus: http.StatusNotFound,
		}, {
			desc:       "unknown shard",
			treeID:     "4",
			wantStatus: http.StatusNotFound,
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			ts, closeFn := createTestEnv(newMonitor(t))
			defer closeFn()

			code, body := get(t, ts, fmt.Sprintf(HTTPGetShardState, test.treeID))
			if code != test.wantStatus {
				t.Fatalf("status code got %d, want %d", code, test.wantStatus)
			}
			if test.want == nil {
				return
			}
			got := &ShardState{}
			if err := json.Unmarshal(body, got); err != nil {
				t.Fatalf("failed to unmarshal body: %v", err)
			}
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("unexpected state (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGetCheckpoint(t *testing.T) {
	for _, test := range []struct {
		desc       string
		treeID     string
		wantStatus int
		wantBody   string
	}{
		{
			desc:       "happy path",
			treeID:     "1",
			wantStatus: http.StatusOK,
			wantBody:   "origin\n5\nq80=\n\n- sig\n",
		}, {
			desc:       "unsigned",
			treeID:     "2",
			wantStatus: http.StatusNotFound,
		}, {
			desc:       "nothing there",
			treeID:     "3",
			wantStatus: http.StatusNotFound,
		}, {
			desc:       "not a tree ID",
			treeID:     "monkeys",
			wantStatus: http.StatusNotFound,
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			ts, closeFn := createTestEnv(newMonitor(t))
			defer closeFn()

			code, body := get(t, ts, fmt.Sprintf(HTTPGetShardCheckpoint, test.treeID))
			if code != test.wantStatus {
				t.Fatalf("status code got %d, want %d", code, test.wantStatus)
			}
			if test.wantBody != "" && string(body) != test.wantBody {
				t.Errorf("body got %q, want %q", body, test.wantBody)
			}
		})
	}
}
