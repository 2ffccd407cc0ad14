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

package fulcio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/internal/fakeservice"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestClient(t *testing.T) (*Client, *fakeservice.Fulcio) {
	t.Helper()
	f, err := fakeservice.NewFulcio()
	if err != nil {
		t.Fatalf("NewFulcio: %v", err)
	}
	r := mux.NewRouter()
	f.RegisterHandlers(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	return NewClient(u, ts.Client()), f
}

func TestGetConfiguration(t *testing.T) {
	c, _ := newTestClient(t)
	cfg, err := c.GetConfiguration(context.Background())
	if err != nil {
		t.Fatalf("GetConfiguration: %v", err)
	}
	if d := cmp.Diff(fakeservice.DefaultIssuers, cfg.Issuers); d != "" {
		t.Errorf("Unexpected issuers (-want +got):\n%s", d)
	}
	if len(cfg.KeyAlgorithms) == 0 {
		t.Error("no key algorithms")
	}
}

func TestGetConfigurationErrors(t *testing.T) {
	for _, test := range []struct {
		desc  string
		setup func(*fakeservice.Fulcio)
		want  error
	}{
		{
			desc:  "down",
			setup: func(f *fakeservice.Fulcio) { f.SetUnavailable(true) },
			want:  api.ErrServiceUnavailable,
		}, {
			desc:  "no issuers",
			setup: func(f *fakeservice.Fulcio) { f.SetConfiguration(api.Configuration{}) },
			want:  api.ErrServiceUnavailable,
		}, {
			desc: "ambiguous issuer",
			setup: func(f *fakeservice.Fulcio) {
				f.SetConfiguration(api.Configuration{Issuers: []api.Issuer{{IssuerURL: "https://a", WildcardIssuerURL: "https://*.a"}}})
			},
			want: api.ErrInvalidResponse,
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			c, f := newTestClient(t)
			test.setup(f)
			cfg, err := c.GetConfiguration(context.Background())
			if !errors.Is(err, test.want) {
				t.Fatalf("GetConfiguration() = %v, %v, want %v", cfg, err, test.want)
			}
			if cfg != nil {
				t.Errorf("GetConfiguration() returned %v with error", cfg)
			}
		})
	}
}

func TestGetConfigurationNotServed(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()
	u, _ := url.Parse(ts.URL)
	_, err := NewClient(u, ts.Client()).GetConfiguration(context.Background())
	if got := status.Code(err); got != codes.Unavailable {
		t.Errorf("status.Code() = %v, want Unavailable", got)
	}
}

func TestGetConfigurationUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	u, _ := url.Parse(ts.URL)
	ts.Close()
	_, err := NewClient(u, http.DefaultClient).GetConfiguration(context.Background())
	if !errors.Is(err, api.ErrServiceUnavailable) {
		t.Errorf("GetConfiguration() = %v, want ErrServiceUnavailable", err)
	}
}

func TestGetTrustBundle(t *testing.T) {
	c, _ := newTestClient(t)
	tb, err := c.GetTrustBundle(context.Background())
	if err != nil {
		t.Fatalf("GetTrustBundle: %v", err)
	}
	if len(tb.Chains) != 1 || len(tb.Chains[0].Certificates) != 1 {
		t.Errorf("unexpected bundle shape: %+v", tb)
	}
}

type badBundle struct {
	Binding
}

func (badBundle) GetTrustBundle(context.Context) (*api.TrustBundle, error) {
	return &api.TrustBundle{Chains: []api.CertificateChain{{Certificates: []string{"not a cert"}}}}, nil
}

func TestGetTrustBundleChecksCertificates(t *testing.T) {
	_, err := NewClientWithBinding(badBundle{}).GetTrustBundle(context.Background())
	var ae *api.Error
	if !errors.As(err, &ae) || ae.Err != api.ErrInvalidResponse {
		t.Fatalf("GetTrustBundle() = %v, want ErrInvalidResponse", err)
	}
	if want := "chains[0].certificates[0]"; ae.Subject != want {
		t.Errorf("Subject = %q, want %q", ae.Subject, want)
	}
}
