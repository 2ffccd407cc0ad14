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

// Package fakeservice provides in-memory Rekor and Fulcio services which speak
// the same REST APIs as the real ones, for tests and local development.
package fakeservice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/trailofbits/sigstore-apis/api"
	"k8s.io/klog/v2"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to marshal response: %v", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(raw); err != nil {
		klog.Warningf("Error writing response: %v", err)
	}
}

// writeError replies with the error payload the services use.
func writeError(w http.ResponseWriter, code int, format string, args ...any) {
	raw, _ := json.Marshal(api.ErrorBody{Code: code, Message: fmt.Sprintf(format, args...)})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(raw); err != nil {
		klog.Warningf("Error writing response: %v", err)
	}
}

// outage makes a service answer every request with 503 while it is set.
type outage struct {
	down atomic.Bool
}

// SetUnavailable makes the service fail every request until it is called again
// with false.
func (o *outage) SetUnavailable(down bool) {
	o.down.Store(down)
}

func (o *outage) guard(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if o.down.Load() {
			writeError(w, http.StatusServiceUnavailable, "service unavailable")
			return
		}
		h(w, r)
	}
}
