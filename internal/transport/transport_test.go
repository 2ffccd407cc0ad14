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

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/trailofbits/sigstore-apis/api"
)

type echo struct {
	Path  string `json:"path"`
	Query string `json:"query"`
	Body  string `json:"body,omitempty"`
}

func newTestClient(t *testing.T) Client {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/prefix/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"path": %q, "query": %q}`, r.URL.Path, r.URL.RawQuery)
	}).Methods(http.MethodGet)
	r.HandleFunc("/prefix/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code": 404, "message": "entry not found"}`)
	})
	r.HandleFunc("/prefix/broken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"path": `)
	})
	r.HandleFunc("/prefix/overloaded", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "try later", http.StatusServiceUnavailable)
	})
	r.HandleFunc("/prefix/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/prefix/ok", http.StatusFound)
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	u, err := url.Parse(ts.URL + "/prefix")
	if err != nil {
		t.Fatal(err)
	}
	return New("test", u, ts.Client())
}

func TestJSON(t *testing.T) {
	c := newTestClient(t)
	var got echo
	if _, err := c.JSON(context.Background(), Request{Op: "ok", Method: http.MethodGet, Path: "ok", Query: url.Values{"logIndex": {"3"}}}, &got); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	want := echo{Path: "/prefix/ok", Query: "logIndex=3"}
	if d := cmp.Diff(want, got); d != "" {
		t.Errorf("Unexpected response (-want +got):\n%s", d)
	}
}

func TestErrors(t *testing.T) {
	c := newTestClient(t)
	for _, test := range []struct {
		desc       string
		method     string
		path       string
		want       error
		wantDetail string
	}{
		{desc: "not found", method: http.MethodGet, path: "missing", want: api.ErrNotFound, wantDetail: "entry not found"},
		{desc: "malformed body", method: http.MethodGet, path: "broken", want: api.ErrInvalidResponse},
		{desc: "unavailable", method: http.MethodGet, path: "overloaded", want: api.ErrServiceUnavailable, wantDetail: "try later"},
		{desc: "post redirected", method: http.MethodPost, path: "moved", want: api.ErrServiceUnavailable},
	} {
		t.Run(test.desc, func(t *testing.T) {
			var got echo
			_, err := c.JSON(context.Background(), Request{Op: test.desc, Method: test.method, Path: test.path, Body: map[string]int{"a": 1}}, &got)
			err = AsAPIError(test.desc, "", err)
			if !errors.Is(err, test.want) {
				t.Fatalf("JSON() = %v, want %v", err, test.want)
			}
			var ae *api.Error
			if !errors.As(err, &ae) {
				t.Fatalf("JSON() = %T, want *api.Error", err)
			}
			if ae.Detail != test.wantDetail {
				t.Errorf("Detail = %q, want %q", ae.Detail, test.wantDetail)
			}
		})
	}
}

func TestUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(ts.URL)
	ts.Close()
	c := New("test", u, http.DefaultClient)
	_, err := c.Do(context.Background(), Request{Op: "getLogInfo", Method: http.MethodGet, Path: "/api/v1/log"})
	if err := AsAPIError("getLogInfo", "", err); !errors.Is(err, api.ErrServiceUnavailable) {
		t.Errorf("Do() = %v, want ErrServiceUnavailable", err)
	}
}

func TestCanceled(t *testing.T) {
	c := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Do(ctx, Request{Op: "ok", Method: http.MethodGet, Path: "ok"})
	if err := AsAPIError("ok", "", err); !errors.Is(err, context.Canceled) {
		t.Errorf("Do() = %v, want context.Canceled", err)
	}
}

func TestAsAPIErrorPassesThrough(t *testing.T) {
	orig := api.Errorf("getLogEntryByIndex", "-1", api.ErrNotFound, "negative index")
	if got := AsAPIError("other", "", orig); got != error(orig) {
		t.Errorf("AsAPIError() = %v, want original error", got)
	}
	if AsAPIError("op", "", nil) != nil {
		t.Error("AsAPIError(nil) != nil")
	}
}
