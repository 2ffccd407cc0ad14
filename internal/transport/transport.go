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

// Package transport sends JSON requests to the log and CA services.
//
// It reports failures to reach a service as plain errors, and responses with
// a non-2xx status as *StatusError; mapping either onto the api error
// taxonomy is left to the service bindings.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/monitoring"
	"k8s.io/klog/v2"
)

// maxBodySize bounds how much of a response is read.
const maxBodySize = 32 << 20

var (
	doOnce         sync.Once
	counterRequest monitoring.Counter
	histLatency    monitoring.Histogram
)

func initMetrics() {
	doOnce.Do(func() {
		mf := monitoring.GetMetricFactory()
		counterRequest = mf.NewCounter("client_request", "Number of requests made to a service, by status code", "service", "op", "code")
		histLatency = mf.NewHistogram("client_request_latency_seconds", "Latency of requests made to a service", "service", "op")
	})
}

// Request describes a single call to a service.
type Request struct {
	// Op names the operation, for logs and metrics.
	Op     string
	Method string
	// Path is joined to the client's base URL.
	Path  string
	Query url.Values
	// Body is encoded as JSON if set.
	Body any
	// Accept defaults to application/json.
	Accept string
}

// Response is a successful (2xx) response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError is returned for responses with a status outside 2xx.
type StatusError struct {
	Op         string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *StatusError) Error() string {
	if m := e.Message(); m != "" {
		return fmt.Sprintf("%s: %s returned %d: %s", e.Op, e.URL, e.StatusCode, m)
	}
	return fmt.Sprintf("%s: %s returned %d", e.Op, e.URL, e.StatusCode)
}

// Message returns the message the service gave for the failure, if any.
func (e *StatusError) Message() string {
	var b api.ErrorBody
	if err := json.Unmarshal(e.Body, &b); err == nil && b.Message != "" {
		return b.Message
	}
	if len(e.Body) > 0 && len(e.Body) <= 256 && bytes.IndexByte(e.Body, '{') < 0 {
		return string(bytes.TrimSpace(e.Body))
	}
	return ""
}

// Client sends requests to a single service.
type Client struct {
	service string
	base    *url.URL
	hc      *http.Client
}

// New returns a client for the service rooted at base. The service name is
// only used to label metrics.
func New(service string, base *url.URL, hc *http.Client) Client {
	initMetrics()
	if hc == nil {
		hc = http.DefaultClient
	}
	return Client{service: service, base: base, hc: hc}
}

// Do performs the request and returns the response if it has a 2xx status.
func (c Client) Do(ctx context.Context, r Request) (*Response, error) {
	u := c.base.JoinPath(r.Path)
	if len(r.Query) > 0 {
		u.RawQuery = r.Query.Encode()
	}
	var body io.Reader
	if r.Body != nil {
		raw, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s request: %v", r.Op, err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	accept := r.Accept
	if accept == "" {
		accept = "application/json"
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	klog.V(2).Infof("%s: %s %s", r.Op, r.Method, u)
	start := time.Now()
	rsp, err := c.hc.Do(req)
	histLatency.Observe(time.Since(start).Seconds(), c.service, r.Op)
	if err != nil {
		counterRequest.Inc(c.service, r.Op, "none")
		return nil, fmt.Errorf("failed to make request to %q: %w", u.String(), err)
	}
	defer func() {
		if err := rsp.Body.Close(); err != nil {
			klog.Errorf("Failed to close response body: %v", err)
		}
	}()
	counterRequest.Inc(c.service, r.Op, strconv.Itoa(rsp.StatusCode))

	if rsp.Request != nil && rsp.Request.Method != r.Method {
		return nil, fmt.Errorf("%s request to %q was converted to %s request to %q", r.Method, u.String(), rsp.Request.Method, rsp.Request.URL)
	}

	raw, err := io.ReadAll(io.LimitReader(rsp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read body from %q: %w", u.String(), err)
	}
	if rsp.StatusCode < 200 || rsp.StatusCode > 299 {
		return nil, &StatusError{Op: r.Op, URL: u.String(), StatusCode: rsp.StatusCode, Header: rsp.Header, Body: raw}
	}
	return &Response{StatusCode: rsp.StatusCode, Header: rsp.Header, Body: raw}, nil
}

// JSON performs the request and decodes the response body into out.
func (c Client) JSON(ctx context.Context, r Request, out any) (*Response, error) {
	rsp, err := c.Do(ctx, r)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rsp.Body, out); err != nil {
		klog.V(1).Infof("Got body:\n%s", string(rsp.Body))
		return nil, &DecodeError{Op: r.Op, Err: err}
	}
	return rsp, nil
}

// DecodeError is returned when a 2xx response body is not the expected JSON.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: failed to unmarshal response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
