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
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/trailofbits/sigstore-apis/api"
)

// DefaultIssuers is the identity providers a new Fulcio accepts.
var DefaultIssuers = []api.Issuer{
	{IssuerURL: "https://accounts.google.com", Audience: "sigstore", ChallengeClaim: "email"},
	{IssuerURL: "https://token.actions.githubusercontent.com", Audience: "sigstore", ChallengeClaim: "sub"},
	{WildcardIssuerURL: "https://oidc.eks.*.amazonaws.com/id/*", Audience: "sigstore", ChallengeClaim: "sub"},
	{CIProvider: "gitlab-pipeline", Audience: "sigstore", ChallengeClaim: "sub"},
}

// Fulcio is an in-memory certificate authority which serves its
// configuration and trust bundle. It does not issue certificates.
type Fulcio struct {
	outage

	mu     sync.RWMutex
	cfg    api.Configuration
	bundle api.TrustBundle
}

// NewFulcio returns a CA accepting DefaultIssuers, with a fresh self-signed root.
func NewFulcio() (*Fulcio, error) {
	root, err := selfSigned()
	if err != nil {
		return nil, err
	}
	return &Fulcio{
		cfg: api.Configuration{
			Issuers:       append([]api.Issuer(nil), DefaultIssuers...),
			KeyAlgorithms: []string{"ecdsa-p256", "ecdsa-p384", "ed25519", "rsa-2048"},
		},
		bundle: api.TrustBundle{Chains: []api.CertificateChain{{Certificates: []string{root}}}},
	}, nil
}

func selfSigned() (string, error) {
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate key: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"fake-fulcio"}, CommonName: "fake-fulcio root"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &k.PublicKey, k)
	if err != nil {
		return "", fmt.Errorf("failed to create certificate: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})), nil
}

// SetConfiguration replaces the configuration the CA serves.
func (f *Fulcio) SetConfiguration(cfg api.Configuration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = cfg
}

func (f *Fulcio) getConfiguration(w http.ResponseWriter, r *http.Request) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	writeJSON(w, http.StatusOK, f.cfg)
}

func (f *Fulcio) getTrustBundle(w http.ResponseWriter, r *http.Request) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	writeJSON(w, http.StatusOK, f.bundle)
}

// RegisterHandlers registers the CA's endpoints on r.
func (f *Fulcio) RegisterHandlers(r *mux.Router) {
	r.HandleFunc(api.HTTPGetConfiguration, f.guard(f.getConfiguration)).Methods(http.MethodGet)
	r.HandleFunc(api.HTTPGetTrustBundle, f.guard(f.getTrustBundle)).Methods(http.MethodGet)
}
