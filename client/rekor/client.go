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

// Package rekor is a client for the Rekor transparency log.
package rekor

import (
	"bytes"
	"cmp"
	"context"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"slices"
	"strconv"

	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/entry"
	"github.com/trailofbits/sigstore-apis/internal/transport"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// maxConcurrentSearches bounds the requests in flight for one SearchLogQuery.
const maxConcurrentSearches = 4

// NewClient returns a Client for the log rooted at u, using the given HTTP client.
func NewClient(u *url.URL, c *http.Client) *Client {
	return NewClientWithBinding(NewHTTPBinding(u, c))
}

// NewClientWithBinding returns a Client which makes its calls through b.
func NewClientWithBinding(b Binding) *Client {
	return &Client{b: b}
}

// Client queries the log. It holds no state between calls, never retries, and
// is safe for concurrent use.
//
// Every error returned is an *api.Error.
type Client struct {
	b Binding
}

// LogInfoOption configures a GetLogInfo call.
type LogInfoOption func(*logInfoOpts)

type logInfoOpts struct {
	stableIndexHint int64
	hinted          bool
}

// StableIndexHint asks for the log's stable checkpoint, which must cover at
// least size entries.
func StableIndexHint(size int64) LogInfoOption {
	return func(o *logInfoOpts) {
		o.stableIndexHint = size
		o.hinted = true
	}
}

// GetLogInfo returns the current state of the log.
//
// With StableIndexHint, the call fails with api.ErrNotAvailable if the log
// holds fewer entries than the hint, and with api.ErrInvalidQuery if the hint
// is negative.
func (c *Client) GetLogInfo(ctx context.Context, opts ...LogInfoOption) (*api.LogInfo, error) {
	var o logInfoOpts
	for _, opt := range opts {
		opt(&o)
	}
	var subject string
	if o.hinted {
		subject = strconv.FormatInt(o.stableIndexHint, 10)
		if o.stableIndexHint < 0 {
			return nil, api.Errorf(OpGetLogInfo, subject, api.ErrInvalidQuery, "negative stable index hint")
		}
	}
	li, err := c.b.GetLogInfo(ctx, o.hinted)
	if err != nil {
		return nil, transport.AsAPIError(OpGetLogInfo, subject, err)
	}
	if li.TreeSize < 0 {
		return nil, api.Errorf(OpGetLogInfo, subject, api.ErrInvalidResponse, "negative tree size %d", li.TreeSize)
	}
	if o.hinted && li.TotalSize() < o.stableIndexHint {
		return nil, api.Errorf(OpGetLogInfo, subject, api.ErrNotAvailable, "log has %d entries", li.TotalSize())
	}
	return li, nil
}

// GetLogEntryByIndex returns the entry at the given global index.
//
// Negative indexes, and indexes beyond the end of the log, fail with
// api.ErrNotFound.
func (c *Client) GetLogEntryByIndex(ctx context.Context, index int64) (*api.LogEntry, error) {
	subject := strconv.FormatInt(index, 10)
	if index < 0 {
		return nil, api.Errorf(OpGetLogEntryByIndex, subject, api.ErrNotFound, "negative index")
	}
	le, err := c.b.GetLogEntryByIndex(ctx, index)
	if err != nil {
		return nil, transport.AsAPIError(OpGetLogEntryByIndex, subject, err)
	}
	e, err := single(OpGetLogEntryByIndex, subject, le)
	if err != nil {
		return nil, err
	}
	if e.LogIndex != index {
		return nil, api.Errorf(OpGetLogEntryByIndex, subject, api.ErrInvalidResponse, "got entry at index %d", e.LogIndex)
	}
	return e, nil
}

// GetLogEntryByUUID returns the entry with the given UUID. Both the bare
// 64 character UUID and the 80 character form prefixed by the tree ID are
// accepted.
func (c *Client) GetLogEntryByUUID(ctx context.Context, uuid string) (*api.LogEntry, error) {
	if err := checkUUID(uuid); err != nil {
		return nil, api.Errorf(OpGetLogEntryByUUID, uuid, api.ErrInvalidQuery, "%v", err)
	}
	le, err := c.b.GetLogEntryByUUID(ctx, uuid)
	if err != nil {
		return nil, transport.AsAPIError(OpGetLogEntryByUUID, uuid, err)
	}
	return single(OpGetLogEntryByUUID, uuid, le)
}

// SearchLogQuery returns the entries matching any item of any selector of q,
// each exactly once, ordered by log index.
//
// The log limits how many items each request may carry, so larger queries
// are split and the pieces sent concurrently. A query with no items fails
// with api.ErrInvalidQuery.
func (c *Client) SearchLogQuery(ctx context.Context, q api.SearchLogQuery) ([]api.LogEntry, error) {
	if q.IsEmpty() {
		return nil, api.Errorf(OpSearchLogQuery, "", api.ErrInvalidQuery, "no entries, UUIDs or log indexes given")
	}
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	chunks := split(q)
	results := make([][]api.LogEntries, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSearches)
	for i, chunk := range chunks {
		g.Go(func() error {
			r, err := c.b.SearchLogQuery(gctx, chunk)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, transport.AsAPIError(OpSearchLogQuery, "", err)
	}
	klog.V(2).Infof("%s: %d items in %d requests", OpSearchLogQuery, q.Len(), len(chunks))
	return merge(results)
}

// CreateLogEntry submits e to the log and returns the integrated entry.
//
// If the log already holds e the call fails with api.ErrAlreadyExists and the
// error's Subject is the UUID of the existing entry.
func (c *Client) CreateLogEntry(ctx context.Context, e entry.ProposedEntry) (*api.LogEntry, error) {
	if e.IsZero() {
		return nil, api.Errorf(OpCreateLogEntry, "", api.ErrInvalidQuery, "empty entry")
	}
	le, err := c.b.CreateLogEntry(ctx, e)
	if err != nil {
		var se *transport.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
			return nil, &api.Error{Op: OpCreateLogEntry, Subject: path.Base(se.Header.Get("Location")), Err: api.ErrAlreadyExists, Detail: se.Message()}
		}
		return nil, transport.AsAPIError(OpCreateLogEntry, "", err)
	}
	return single(OpCreateLogEntry, "", le)
}

// GetLogProof returns a consistency proof between two sizes of the given
// tree. An empty treeID selects the active tree.
func (c *Client) GetLogProof(ctx context.Context, firstSize, lastSize int64, treeID string) (*api.ConsistencyProof, error) {
	subject := fmt.Sprintf("%d,%d", firstSize, lastSize)
	if firstSize < 1 || lastSize < firstSize {
		return nil, api.Errorf(OpGetLogProof, subject, api.ErrInvalidQuery, "need 1 <= firstSize <= lastSize")
	}
	p, err := c.b.GetLogProof(ctx, firstSize, lastSize, treeID)
	if err != nil {
		return nil, transport.AsAPIError(OpGetLogProof, subject, err)
	}
	if _, err := p.Decode(); err != nil {
		return nil, &api.Error{Op: OpGetLogProof, Subject: subject, Err: api.ErrInvalidResponse, Cause: err}
	}
	return p, nil
}

// GetPublicKey returns the PEM encoded key which signs the checkpoints of the
// given tree. An empty treeID selects the active tree.
func (c *Client) GetPublicKey(ctx context.Context, treeID string) ([]byte, error) {
	k, err := c.b.GetPublicKey(ctx, treeID)
	if err != nil {
		return nil, transport.AsAPIError(OpGetPublicKey, treeID, err)
	}
	if b, _ := pem.Decode(k); b == nil {
		return nil, api.Errorf(OpGetPublicKey, treeID, api.ErrInvalidResponse, "no PEM block in response")
	}
	return k, nil
}

func single(op, subject string, le api.LogEntries) (*api.LogEntry, error) {
	es := le.Flatten()
	if len(es) != 1 {
		return nil, api.Errorf(op, subject, api.ErrInvalidResponse, "got %d entries, want 1", len(es))
	}
	return &es[0], nil
}

func checkUUID(uuid string) error {
	if l := len(uuid); l != 64 && l != 80 {
		return fmt.Errorf("UUID has %d characters, want 64 or 80", l)
	}
	if _, err := hex.DecodeString(uuid); err != nil {
		return fmt.Errorf("UUID is not hex: %v", err)
	}
	return nil
}

func checkQuery(q api.SearchLogQuery) error {
	for i, e := range q.Entries {
		if e.IsZero() {
			return api.Errorf(OpSearchLogQuery, fmt.Sprintf("entries[%d]", i), api.ErrInvalidQuery, "empty entry")
		}
	}
	for i, u := range q.EntryUUIDs {
		if err := checkUUID(u); err != nil {
			return api.Errorf(OpSearchLogQuery, fmt.Sprintf("entryUUIDs[%d]", i), api.ErrInvalidQuery, "%v", err)
		}
	}
	for i, idx := range q.LogIndexes {
		if idx < 0 {
			return api.Errorf(OpSearchLogQuery, fmt.Sprintf("logIndexes[%d]", i), api.ErrInvalidQuery, "negative index %d", idx)
		}
	}
	return nil
}

// split breaks q into queries which each carry items of one selector only,
// and no more than the log accepts.
func split(q api.SearchLogQuery) []api.SearchLogQuery {
	var r []api.SearchLogQuery
	for c := range slices.Chunk(q.Entries, api.MaxSearchQueryItems) {
		r = append(r, api.SearchLogQuery{Entries: c})
	}
	for c := range slices.Chunk(q.EntryUUIDs, api.MaxSearchQueryItems) {
		r = append(r, api.SearchLogQuery{EntryUUIDs: c})
	}
	for c := range slices.Chunk(q.LogIndexes, api.MaxSearchQueryItems) {
		r = append(r, api.SearchLogQuery{LogIndexes: c})
	}
	return r
}

// merge flattens the responses of all chunks, keeping one copy of each entry.
// Entries are identified by log index, since the same entry may be keyed by
// different forms of its UUID.
func merge(results [][]api.LogEntries) ([]api.LogEntry, error) {
	byIndex := make(map[int64]api.LogEntry)
	for _, r := range results {
		for _, le := range r {
			for _, e := range le.Flatten() {
				prev, ok := byIndex[e.LogIndex]
				if !ok {
					byIndex[e.LogIndex] = e
					continue
				}
				if !bytes.Equal(prev.Body, e.Body) {
					return nil, api.Errorf(OpSearchLogQuery, strconv.FormatInt(e.LogIndex, 10), api.ErrInvalidResponse, "entries %s and %s differ at the same index", prev.UUID, e.UUID)
				}
			}
		}
	}
	es := make([]api.LogEntry, 0, len(byIndex))
	for _, e := range byIndex {
		es = append(es, e)
	}
	slices.SortFunc(es, func(a, b api.LogEntry) int {
		return cmp.Compare(a.LogIndex, b.LogIndex)
	})
	return es, nil
}
