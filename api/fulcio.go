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

package api

// Mechanism names the way an issuer's identity tokens are bound to a subject.
type Mechanism string

const (
	// MechanismIssuer is an exact issuer URL.
	MechanismIssuer Mechanism = "issuer"
	// MechanismWildcardIssuer is an issuer URL pattern, e.g. one per Kubernetes cluster.
	MechanismWildcardIssuer Mechanism = "wildcard-issuer"
	// MechanismCIProvider is a CI system whose tokens carry build metadata.
	MechanismCIProvider Mechanism = "ci-provider"
	// MechanismUnknown is returned for issuers which set none, or more than one,
	// of the identifying fields.
	MechanismUnknown Mechanism = ""
)

// Issuer is an OIDC identity provider accepted by the CA.
type Issuer struct {
	IssuerURL         string `json:"issuerUrl,omitempty"`
	WildcardIssuerURL string `json:"wildcardIssuerUrl,omitempty"`
	CIProvider        string `json:"ciProvider,omitempty"`
	Audience          string `json:"audience,omitempty"`
	// ChallengeClaim is the token claim the CA proves possession of, e.g. "email".
	ChallengeClaim    string `json:"challengeClaim,omitempty"`
	SPIFFETrustDomain string `json:"spiffeTrustDomain,omitempty"`
}

// Mechanism returns which of the identifying fields is set.
func (i Issuer) Mechanism() Mechanism {
	var m []Mechanism
	if i.IssuerURL != "" {
		m = append(m, MechanismIssuer)
	}
	if i.WildcardIssuerURL != "" {
		m = append(m, MechanismWildcardIssuer)
	}
	if i.CIProvider != "" {
		m = append(m, MechanismCIProvider)
	}
	if len(m) != 1 {
		return MechanismUnknown
	}
	return m[0]
}

// Identifier returns the value of whichever identifying field is set.
func (i Issuer) Identifier() string {
	switch i.Mechanism() {
	case MechanismIssuer:
		return i.IssuerURL
	case MechanismWildcardIssuer:
		return i.WildcardIssuerURL
	case MechanismCIProvider:
		return i.CIProvider
	}
	return ""
}

// Configuration is the CA's description of the identities it will certify.
type Configuration struct {
	Issuers []Issuer `json:"issuers"`
	// KeyAlgorithms lists the signing key types the CA accepts, when the CA
	// reports them.
	KeyAlgorithms []string `json:"keyAlgorithms,omitempty"`
}

// CertificateChain is a PEM encoded chain, leaf first.
type CertificateChain struct {
	Certificates []string `json:"certificates"`
}

// TrustBundle is the set of chains the CA issues under.
type TrustBundle struct {
	Chains []CertificateChain `json:"chains"`
}
