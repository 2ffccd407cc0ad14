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

// generate_keys creates a note signing key for a local fake log, along with
// the identifiers clients of that log will see.
package main

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/trailofbits/sigstore-apis/internal/config"
	"github.com/trailofbits/sigstore-apis/internal/fakeservice"
	"golang.org/x/mod/sumdb/note"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

var (
	name    = flag.String("name", "fake-rekor", "Key name. Checkpoint origins of the log are \"<name> - <tree ID>\".")
	treeID  = flag.String("tree_id", "1193050959916656506", "Tree ID the key will sign for, used in the printed shard config.")
	outPriv = flag.String("out_priv", "", "Output file for the private key, to pass to fakesigstore --private_key_file.")
	outPub  = flag.String("out_pub", "", "Output file for the note verifier key.")
	outPEM  = flag.String("out_pem", "", "Output file for the PEM public key, as served by the log.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *name == "" || strings.ContainsAny(*name, "+ \n") {
		klog.Exit("--name must be non-empty and contain no '+' or whitespace")
	}

	skey, vkey, err := note.GenerateKey(rand.Reader, *name)
	if err != nil {
		klog.Exitf("Unable to create key: %v", err)
	}
	der, err := fakeservice.PublicKeyDER(vkey)
	if err != nil {
		klog.Exitf("Unable to encode public key: %v", err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	logID := sha256.Sum256(der)

	for _, o := range []struct {
		path string
		data []byte
	}{
		{*outPriv, []byte(skey)},
		{*outPub, []byte(vkey)},
		{*outPEM, pemKey},
	} {
		if o.path == "" {
			continue
		}
		if err := writeFileIfNotExists(o.path, o.data); err != nil {
			klog.Exit(err)
		}
	}
	if *outPriv == "" {
		klog.Warning("No --out_priv given, so the private key is not kept")
	}

	shard, err := yaml.Marshal(config.Config{Shards: []config.Shard{{
		TreeID:    *treeID,
		Origin:    fmt.Sprintf("%s - %s", *name, *treeID),
		PublicKey: vkey,
	}}})
	if err != nil {
		klog.Exitf("Unable to marshal shard config: %v", err)
	}
	fmt.Printf("# Log ID: %s\n", hex.EncodeToString(logID[:]))
	fmt.Printf("# Public key:\n#   %s\n", strings.ReplaceAll(strings.TrimSpace(string(pemKey)), "\n", "\n#   "))
	if _, err := os.Stdout.Write(shard); err != nil {
		klog.Exitf("Unable to write shard config: %v", err)
	}
}

// writeFileIfNotExists ensures files do not already exist to avoid accidental overwriting.
func writeFileIfNotExists(filename string, data []byte) error {
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("unable to create new key file %q: %w", filename, err)
	}
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("unable to write new key file %q: %w", filename, err)
	}
	return file.Close()
}
