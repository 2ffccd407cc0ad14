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

// fulcioconfig prints the identity providers a Fulcio CA accepts, and
// optionally the certificate chains it issues under.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/trailofbits/sigstore-apis/client/fulcio"
	"github.com/trailofbits/sigstore-apis/internal/config"
	"k8s.io/klog/v2"
)

var (
	fulcioURL   = flag.String("fulcio_url", "https://fulcio.sigstore.dev", "Base URL of the CA")
	httpTimeout = flag.Duration("http_timeout", 30*time.Second, "HTTP timeout for requests to the CA")
	asJSON      = flag.Bool("json", false, "Print the configuration as JSON")
	trustBundle = flag.Bool("trust_bundle", false, "Also print the CA's certificate chains")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	u, err := config.ParseServiceURL(*fulcioURL)
	if err != nil {
		klog.Exitf("Invalid --fulcio_url: %v", err)
	}
	c := fulcio.NewClient(u, &http.Client{Timeout: *httpTimeout})
	ctx := context.Background()

	cfg, err := c.GetConfiguration(ctx)
	if err != nil {
		klog.Exitf("Failed to get configuration: %v", err)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			klog.Exitf("Failed to write configuration: %v", err)
		}
	} else {
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MECHANISM\tIDENTIFIER\tAUDIENCE\tCLAIM")
		for _, iss := range cfg.Issuers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", iss.Mechanism(), iss.Identifier(), iss.Audience, iss.ChallengeClaim)
		}
		if err := tw.Flush(); err != nil {
			klog.Exitf("Failed to write configuration: %v", err)
		}
		if len(cfg.KeyAlgorithms) > 0 {
			fmt.Printf("\nKey algorithms: %v\n", cfg.KeyAlgorithms)
		}
	}

	if !*trustBundle {
		return
	}
	tb, err := c.GetTrustBundle(ctx)
	if err != nil {
		klog.Exitf("Failed to get trust bundle: %v", err)
	}
	for i, ch := range tb.Chains {
		fmt.Printf("\n# Chain %d\n", i)
		for _, cert := range ch.Certificates {
			fmt.Print(cert)
		}
	}
}
