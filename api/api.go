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

// Package api provides the wire types and HTTP endpoints of the Rekor
// transparency log and the Fulcio certificate authority, along with the
// errors returned by the clients of both services.
package api

const (
	// HTTPGetLogInfo is the path of the URL to get the current state of the log.
	HTTPGetLogInfo = "/api/v1/log"
	// HTTPGetLogProof is the path of the URL to get a consistency proof between
	// two sizes of the log.
	HTTPGetLogProof = "/api/v1/log/proof"
	// HTTPGetPublicKey is the path of the URL to get the PEM encoded key which
	// signs the log's checkpoints.
	HTTPGetPublicKey = "/api/v1/log/publicKey"
	// HTTPLogEntries is the path of the URL which takes new entries via POST,
	// and returns a single entry for a GET with a logIndex query parameter.
	HTTPLogEntries = "/api/v1/log/entries"
	// HTTPGetLogEntryByUUID is the path of the URL to get an entry by its UUID.
	// The placeholder is for the UUID (a hex string).
	HTTPGetLogEntryByUUID = "/api/v1/log/entries/%s"
	// HTTPSearchLogQuery is the path of the URL to retrieve several entries at
	// once, given as a SearchLogQuery in the POST body.
	HTTPSearchLogQuery = "/api/v1/log/entries/retrieve"

	// HTTPGetConfiguration is the path of the URL to get the CA's configuration.
	HTTPGetConfiguration = "/api/v2/configuration"
	// HTTPGetTrustBundle is the path of the URL to get the CA's certificate chains.
	HTTPGetTrustBundle = "/api/v2/trustBundle"
)

// MaxSearchQueryItems is the largest number of items the log accepts in any
// one selector of a SearchLogQuery.
const MaxSearchQueryItems = 10
