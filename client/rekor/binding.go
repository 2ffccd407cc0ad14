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

package rekor

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/entry"
	"github.com/trailofbits/sigstore-apis/internal/transport"
)

// Names of the operations of the log, as used in errors and metrics.
const (
	OpGetLogInfo         = "getLogInfo"
	OpGetLogEntryByIndex = "getLogEntryByIndex"
	OpGetLogEntryByUUID  = "getLogEntryByUUID"
	OpSearchLogQuery     = "searchLogQuery"
	OpCreateLogEntry     = "createLogEntry"
	OpGetLogProof        = "getLogProof"
	OpGetPublicKey       = "getPublicKey"
)

// Binding makes single calls to the log, one method per remote operation.
//
// Implementations perform no validation beyond what the wire format needs,
// and return transport level errors; Client maps those onto the api errors.
type Binding interface {
	GetLogInfo(ctx context.Context, stable bool) (*api.LogInfo, error)
	GetLogEntryByIndex(ctx context.Context, index int64) (api.LogEntries, error)
	GetLogEntryByUUID(ctx context.Context, uuid string) (api.LogEntries, error)
	// SearchLogQuery returns one map per matched entry, as the log does.
	SearchLogQuery(ctx context.Context, q api.SearchLogQuery) ([]api.LogEntries, error)
	CreateLogEntry(ctx context.Context, e entry.ProposedEntry) (api.LogEntries, error)
	GetLogProof(ctx context.Context, firstSize, lastSize int64, treeID string) (*api.ConsistencyProof, error)
	// GetPublicKey returns the PEM encoded key.
	GetPublicKey(ctx context.Context, treeID string) ([]byte, error)
}

// NewHTTPBinding returns a Binding for the log rooted at u, using the
// given HTTP client.
func NewHTTPBinding(u *url.URL, c *http.Client) HTTPBinding {
	return HTTPBinding{t: transport.New("rekor", u, c)}
}

// HTTPBinding calls the log's REST API.
type HTTPBinding struct {
	t transport.Client
}

// GetLogInfo fetches the state of the log. If stable is set the log returns
// its most recently published checkpoint rather than the freshest one.
func (b HTTPBinding) GetLogInfo(ctx context.Context, stable bool) (*api.LogInfo, error) {
	var q url.Values
	if stable {
		q = url.Values{"stable": {"true"}}
	}
	li := &api.LogInfo{}
	if _, err := b.t.JSON(ctx, transport.Request{Op: OpGetLogInfo, Method: http.MethodGet, Path: api.HTTPGetLogInfo, Query: q}, li); err != nil {
		return nil, err
	}
	return li, nil
}

// GetLogEntryByIndex fetches the entry at the given global index.
func (b HTTPBinding) GetLogEntryByIndex(ctx context.Context, index int64) (api.LogEntries, error) {
	q := url.Values{"logIndex": {strconv.FormatInt(index, 10)}}
	le := api.LogEntries{}
	if _, err := b.t.JSON(ctx, transport.Request{Op: OpGetLogEntryByIndex, Method: http.MethodGet, Path: api.HTTPLogEntries, Query: q}, &le); err != nil {
		return nil, err
	}
	return le, nil
}

// GetLogEntryByUUID fetches the entry with the given UUID or entry ID.
func (b HTTPBinding) GetLogEntryByUUID(ctx context.Context, uuid string) (api.LogEntries, error) {
	le := api.LogEntries{}
	if _, err := b.t.JSON(ctx, transport.Request{Op: OpGetLogEntryByUUID, Method: http.MethodGet, Path: fmt.Sprintf(api.HTTPGetLogEntryByUUID, url.PathEscape(uuid))}, &le); err != nil {
		return nil, err
	}
	return le, nil
}

// SearchLogQuery retrieves the entries matching q.
func (b HTTPBinding) SearchLogQuery(ctx context.Context, q api.SearchLogQuery) ([]api.LogEntries, error) {
	var les []api.LogEntries
	if _, err := b.t.JSON(ctx, transport.Request{Op: OpSearchLogQuery, Method: http.MethodPost, Path: api.HTTPSearchLogQuery, Body: q}, &les); err != nil {
		return nil, err
	}
	return les, nil
}

// CreateLogEntry submits e to the log.
func (b HTTPBinding) CreateLogEntry(ctx context.Context, e entry.ProposedEntry) (api.LogEntries, error) {
	le := api.LogEntries{}
	if _, err := b.t.JSON(ctx, transport.Request{Op: OpCreateLogEntry, Method: http.MethodPost, Path: api.HTTPLogEntries, Body: e}, &le); err != nil {
		return nil, err
	}
	return le, nil
}

// GetLogProof fetches a consistency proof between two sizes of a tree. An
// empty treeID selects the active tree.
func (b HTTPBinding) GetLogProof(ctx context.Context, firstSize, lastSize int64, treeID string) (*api.ConsistencyProof, error) {
	q := url.Values{
		"firstSize": {strconv.FormatInt(firstSize, 10)},
		"lastSize":  {strconv.FormatInt(lastSize, 10)},
	}
	if treeID != "" {
		q.Set("treeID", treeID)
	}
	p := &api.ConsistencyProof{}
	if _, err := b.t.JSON(ctx, transport.Request{Op: OpGetLogProof, Method: http.MethodGet, Path: api.HTTPGetLogProof, Query: q}, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPublicKey fetches the key of a tree. An empty treeID selects the active tree.
func (b HTTPBinding) GetPublicKey(ctx context.Context, treeID string) ([]byte, error) {
	var q url.Values
	if treeID != "" {
		q = url.Values{"treeID": {treeID}}
	}
	rsp, err := b.t.Do(ctx, transport.Request{Op: OpGetPublicKey, Method: http.MethodGet, Path: api.HTTPGetPublicKey, Query: q, Accept: "application/x-pem-file"})
	if err != nil {
		return nil, err
	}
	return rsp.Body, nil
}
