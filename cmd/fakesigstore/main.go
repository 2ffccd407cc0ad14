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

// fakesigstore serves an in-memory Rekor log and Fulcio CA, for exercising
// clients and the log monitor locally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/trailofbits/sigstore-apis/internal/config"
	"github.com/trailofbits/sigstore-apis/internal/fakeservice"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"
)

var (
	addr      = flag.String("listen", "localhost:8090", "Address to listen on")
	treeID    = flag.String("tree_id", "1193050959916656506", "Tree ID of the log's active shard")
	seed      = flag.Int("seed", 0, "Number of sample entries to add to the log at startup")
	growEvery = flag.Duration("grow_interval", 0, "If set, a sample entry is added to the log this often")
	configOut = flag.String("config_out", "", "If set, a logmonitor config for this server is written to this path")
	keyFile   = flag.String("private_key_file", "", "File holding the note signing key for the log, as made by generate_keys. A fresh key is used if unset.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var rekor *fakeservice.Rekor
	var err error
	if *keyFile != "" {
		skey, rerr := os.ReadFile(*keyFile)
		if rerr != nil {
			klog.Exitf("Failed to read key: %v", rerr)
		}
		rekor, err = fakeservice.NewRekorWithKey(*treeID, strings.TrimSpace(string(skey)))
	} else {
		rekor, err = fakeservice.NewRekor(*treeID)
	}
	if err != nil {
		klog.Exitf("Failed to create log: %v", err)
	}
	if err := rekor.Populate(0, *seed); err != nil {
		klog.Exitf("Failed to seed log: %v", err)
	}
	fulcio, err := fakeservice.NewFulcio()
	if err != nil {
		klog.Exitf("Failed to create CA: %v", err)
	}

	r := mux.NewRouter()
	rekor.RegisterHandlers(r)
	fulcio.RegisterHandlers(r)

	l, err := net.Listen("tcp", *addr)
	if err != nil {
		klog.Exitf("Failed to listen on %q: %v", *addr, err)
	}
	base := fmt.Sprintf("http://%s", l.Addr())
	klog.Infof("Serving log %q with %d entries on %s", rekor.Origin(), rekor.Size(), base)
	klog.Infof("Log verifier key: %s", rekor.VKey())

	if *configOut != "" {
		if err := writeConfig(*configOut, base, rekor); err != nil {
			klog.Exitf("Failed to write config: %v", err)
		}
		klog.Infof("Wrote logmonitor config to %q", *configOut)
	}

	if *growEvery > 0 {
		go grow(ctx, rekor, *seed, *growEvery)
	}

	srv := &http.Server{
		Handler:      h2c.NewHandler(r, &http2.Server{}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := srv.Shutdown(sctx); err != nil {
			klog.Warningf("Shutdown: %v", err)
		}
	}()
	if err := srv.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		klog.Exitf("Serve: %v", err)
	}
}

// grow adds one sample entry to the log each interval, numbering them from
// next, until ctx is done.
func grow(ctx context.Context, rekor *fakeservice.Rekor, next int, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		if err := rekor.Populate(next, 1); err != nil {
			klog.Errorf("Failed to add entry %d: %v", next, err)
			continue
		}
		next++
		klog.V(1).Infof("Log grew to %d entries", rekor.Size())
	}
}

func writeConfig(path, base string, rekor *fakeservice.Rekor) error {
	cfg := config.Config{
		Rekor:        config.Service{URL: base},
		Fulcio:       config.Service{URL: base},
		PollInterval: 10 * time.Second,
		Shards: []config.Shard{{
			TreeID:    rekor.TreeID(),
			Origin:    rekor.Origin(),
			PublicKey: rekor.VKey(),
		}},
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
