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

// logmonitor follows the shards of a Rekor log, checking that each new
// checkpoint is consistent with the last one it saw.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trailofbits/sigstore-apis/client/rekor"
	"github.com/trailofbits/sigstore-apis/internal/config"
	ihttp "github.com/trailofbits/sigstore-apis/internal/http"
	"github.com/trailofbits/sigstore-apis/internal/monitor"
	"github.com/trailofbits/sigstore-apis/internal/persistence"
	"github.com/trailofbits/sigstore-apis/internal/persistence/inmemory"
	psql "github.com/trailofbits/sigstore-apis/internal/persistence/sql"
	"github.com/trailofbits/sigstore-apis/monitoring"
	"github.com/trailofbits/sigstore-apis/monitoring/prometheus"
	"k8s.io/klog/v2"

	_ "github.com/mattn/go-sqlite3" // Load drivers for sqlite3
)

var (
	addr        = flag.String("listen", "", "Address to serve verified shard states on, or empty to not serve them")
	configFile  = flag.String("config", "", "Path to a YAML config file. The public good instance is monitored if unset.")
	metricsAddr = flag.String("metrics_listen", ":8081", "Address to listen on for metrics")
	dbFile      = flag.String("db_file", "", "path to a file to be used as sqlite3 storage for verified checkpoints, e.g. /tmp/shards.db")
	httpTimeout = flag.Duration("http_timeout", 30*time.Second, "HTTP timeout for outbound requests")
	rekorURL    = flag.String("rekor_url", "", "Overrides the Rekor URL from the config")

	pollInterval = flag.Duration("poll_interval", 0, "Overrides the PollInterval from the config")
	maxQPS       = flag.Float64("max_qps", 1, "Maximum number of checks to start per second")
	maxTries     = flag.Uint("max_tries", 3, "Attempts made by each check while the log is unavailable")
	once         = flag.Bool("once", false, "Check every shard once and exit")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		klog.Exitf("Failed to load config: %v", err)
	}
	rekorBase := cfg.Rekor.Parsed()
	if *rekorURL != "" {
		if rekorBase, err = config.ParseServiceURL(*rekorURL); err != nil {
			klog.Exitf("Invalid --rekor_url: %v", err)
		}
	}
	if rekorBase == nil {
		klog.Exit("No Rekor URL configured")
	}
	if len(cfg.Shards) == 0 {
		klog.Exit("No shards configured")
	}
	interval := cfg.PollInterval
	if *pollInterval > 0 {
		interval = *pollInterval
	}

	if *metricsAddr == "" {
		klog.Info("No metrics_listen address provided so skipping prometheus setup")
		monitoring.SetMetricFactory(monitoring.InertMetricFactory{})
	} else {
		monitoring.SetMetricFactory(prometheus.MetricFactory{
			Prefix: "logmonitor_",
		})

		go func() {
			http.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{
				Addr:         *metricsAddr,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 10 * time.Second,
			}
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				klog.Errorf("Error serving metrics: %v", err)
			}
		}()
		klog.Infof("Prometheus configured to listen on %q", *metricsAddr)
	}

	var store persistence.StateStore
	if len(*dbFile) > 0 {
		klog.Infof("Connecting to local DB at %q", *dbFile)
		db, err := sql.Open("sqlite3", *dbFile)
		if err != nil {
			klog.Exitf("Failed to connect to DB: %v", err)
		}
		// Avoid "database locked" issues with multiple concurrent updates.
		db.SetMaxOpenConns(1)
		store = psql.NewPersistence(db)
	} else {
		klog.Warning("No persistence configured. Restarts will trust the log's next checkpoint for each shard. Use --db_file for production deployments.")
		store = inmemory.NewPersistence()
	}

	shards := make([]monitor.Shard, 0, len(cfg.Shards))
	for _, s := range cfg.Shards {
		if s.Verifier == nil {
			klog.Warningf("Shard %s has no PublicKey; checkpoint signatures will not be verified", s.TreeID)
		}
		shards = append(shards, monitor.Shard{
			TreeID:   s.TreeID,
			Origin:   s.Origin,
			Verifier: s.Verifier,
		})
	}

	hc := &http.Client{Timeout: *httpTimeout}
	m, err := monitor.New(ctx, monitor.Opts{
		Store:  store,
		Log:    rekor.NewClient(rekorBase, hc),
		Shards: shards,
	})
	if err != nil {
		klog.Exitf("Failed to create monitor: %v", err)
	}

	if *once {
		if err := m.CheckAll(ctx); err != nil {
			klog.Exitf("Check failed: %v", err)
		}
		for _, id := range m.Shards() {
			st, err := m.Latest(ctx, id)
			if err != nil || st == nil {
				continue
			}
			klog.Infof("Shard %s verified at size %d (root %x)", id, st.TreeSize, st.RootHash)
		}
		return
	}

	if *addr != "" {
		r := mux.NewRouter()
		ihttp.NewServer(m).RegisterHandlers(r)
		srv := &http.Server{
			Addr:         *addr,
			Handler:      r,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				klog.Errorf("Error serving shard states: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			_ = srv.Close()
		}()
		klog.Infof("Serving shard states on %q", *addr)
	}

	klog.Infof("Monitoring %d shard(s) of %s every %v", len(shards), rekorBase, interval)
	if err := m.Run(ctx, monitor.RunOpts{
		Interval: interval,
		MaxQPS:   *maxQPS,
		MaxTries: *maxTries,
	}); err != nil && ctx.Err() == nil {
		klog.Exitf("Run failed: %v", err)
	}
}
