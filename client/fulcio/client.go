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

// Package fulcio is a client for the Fulcio certificate authority.
package fulcio

import (
	"context"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/internal/transport"
)

// Names of the operations of the CA, as used in errors and metrics.
const (
	OpGetConfiguration = "getConfiguration"
	OpGetTrustBundle   = "getTrustBundle"
)

// Binding makes single calls to the CA, one method per remote operation.
type Binding interface {
	GetConfiguration(ctx context.Context) (*api.Configuration, error)
	GetTrustBundle(ctx context.Context) (*api.TrustBundle, error)
}

// NewHTTPBinding returns a Binding for the CA rooted at u, using the given
// HTTP client.
func NewHTTPBinding(u *url.URL, c *http.Client) HTTPBinding {
	return HTTPBinding{t: transport.New("fulcio", u, c)}
}

// HTTPBinding calls the CA's REST API.
type HTTPBinding struct {
	t transport.Client
}

// GetConfiguration fetches the CA's configuration.
func (b HTTPBinding) GetConfiguration(ctx context.Context) (*api.Configuration, error) {
	cfg := &api.Configuration{}
	if _, err := b.t.JSON(ctx, transport.Request{Op: OpGetConfiguration, Method: http.MethodGet, Path: api.HTTPGetConfiguration}, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetTrustBundle fetches the CA's certificate chains.
func (b HTTPBinding) GetTrustBundle(ctx context.Context) (*api.TrustBundle, error) {
	tb := &api.TrustBundle{}
	if _, err := b.t.JSON(ctx, transport.Request{Op: OpGetTrustBundle, Method: http.MethodGet, Path: api.HTTPGetTrustBundle}, tb); err != nil {
		return nil, err
	}
	return tb, nil
}

// NewClient returns a Client for the CA rooted at u, using the given HTTP client.
func NewClient(u *url.URL, c *http.Client) *Client {
	return NewClientWithBinding(NewHTTPBinding(u, c))
}

// NewClientWithBinding returns a Client which makes its calls through b.
func NewClientWithBinding(b Binding) *Client {
	return &Client{b: b}
}

// Client queries the CA. It never retries and is safe for concurrent use.
//
// Every error returned is an *api.Error.
type Client struct {
	b Binding
}

// GetConfiguration returns the identity providers the CA accepts.
//
// A CA which cannot be reached, fails, or reports no issuers at all is
// api.ErrServiceUnavailable.
func (c *Client) GetConfiguration(ctx context.Context) (*api.Configuration, error) {
	cfg, err := c.b.GetConfiguration(ctx)
	if err != nil {
		return nil, asAPIError(OpGetConfiguration, err)
	}
	if len(cfg.Issuers) == 0 {
		return nil, api.Errorf(OpGetConfiguration, "", api.ErrServiceUnavailable, "configuration has no issuers")
	}
	for i, iss := range cfg.Issuers {
		if iss.Mechanism() == api.MechanismUnknown {
			return nil, api.Errorf(OpGetConfiguration, fmt.Sprintf("issuers[%d]", i), api.ErrInvalidResponse, "issuer must set exactly one of issuerUrl, wildcardIssuerUrl or ciProvider")
		}
	}
	return cfg, nil
}

// GetTrustBundle returns the certificate chains the CA issues under.
func (c *Client) GetTrustBundle(ctx context.Context) (*api.TrustBundle, error) {
	tb, err := c.b.GetTrustBundle(ctx)
	if err != nil {
		return nil, asAPIError(OpGetTrustBundle, err)
	}
	if len(tb.Chains) == 0 {
		return nil, api.Errorf(OpGetTrustBundle, "", api.ErrServiceUnavailable, "trust bundle has no chains")
	}
	for i, ch := range tb.Chains {
		for j, cert := range ch.Certificates {
			if b, _ := pem.Decode([]byte(cert)); b == nil || b.Type != "CERTIFICATE" {
				return nil, api.Errorf(OpGetTrustBundle, fmt.Sprintf("chains[%d].certificates[%d]", i, j), api.ErrInvalidResponse, "not a PEM encoded certificate")
			}
		}
	}
	return tb, nil
}

// asAPIError maps binding errors onto the api errors. The CA's operations take
// no input, so no status the CA returns is the caller's fault.
func asAPIError(op string, err error) error {
	err = transport.AsAPIError(op, "", err)
	var ae *api.Error
	if errors.As(err, &ae) {
		switch ae.Err {
		case api.ErrNotFound, api.ErrInvalidQuery, api.ErrAlreadyExists:
			ae.Err = api.ErrServiceUnavailable
		}
	}
	return err
}
