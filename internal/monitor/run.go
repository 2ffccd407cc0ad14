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

package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/trailofbits/sigstore-apis/api"
	"github.com/trailofbits/sigstore-apis/monitoring"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"k8s.io/klog/v2"
)

var (
	runDoOnce            sync.Once
	counterCheckResponse monitoring.Counter
	histCheckLatency     monitoring.Histogram
)

func initRunMetrics() {
	runDoOnce.Do(func() {
		mf := monitoring.GetMetricFactory()
		counterCheckResponse = mf.NewCounter("monitor_check_response", "Outcomes of scheduled checks of the shard", "treeid", "status")
		histCheckLatency = mf.NewHistogram("monitor_check_latency_seconds", "Time taken by scheduled checks, including retries", "treeid")
	})
}

// RunOpts is the configuration to use for Run.
type RunOpts struct {
	// Interval is how often each shard is checked. Defaults to 5 minutes.
	Interval time.Duration
	// MaxQPS is the maximum number of checks to start per second across all
	// shards. Defaults to 1.
	MaxQPS float64
	// MaxTries bounds the attempts made by a check when the log is
	// unavailable. Defaults to 3.
	MaxTries uint
	// BackOff defaults to an exponential backoff.
	BackOff backoff.BackOff
}

// Run checks every shard each interval until the context is done.
//
// This is a long-running function which will only return when the context is
// done. Failed checks are logged and counted but do not stop the monitor.
func (m *Monitor) Run(ctx context.Context, opts RunOpts) error {
	initRunMetrics()

	if opts.Interval == 0 {
		opts.Interval = 5 * time.Minute
	}
	if opts.MaxQPS == 0 {
		opts.MaxQPS = 1
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = 3
	}

	eg, ctx := errgroup.WithContext(ctx)
	// A goroutine per shard, each fed by its own work channel. A shard whose
	// previous check is still running skips a round.
	klog.Infof("Starting %d monitor worker(s)", len(m.order))
	chans := make(map[string]chan struct{}, len(m.order))
	for _, id := range m.order {
		c := make(chan struct{}, 1)
		chans[id] = c
		eg.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-c:
					start := time.Now()
					_, err := m.checkWithRetry(ctx, id, opts)
					histCheckLatency.Observe(time.Since(start).Seconds(), id)
					counterCheckResponse.Inc(id, statusForError(err))
					if err != nil {
						// Log this, but keep going until the context is done.
						klog.Warningf("[MonitorWorker] Check of %s failed: %v", id, err)
					}
				}
			}
		})
	}

	eg.Go(func() error {
		klog.Infof("Starting monitor scheduler")
		rl := rate.NewLimiter(rate.Limit(opts.MaxQPS), 1)
		t := time.NewTicker(opts.Interval)
		defer t.Stop()
		for {
			for _, id := range m.order {
				if err := rl.Wait(ctx); err != nil {
					return fmt.Errorf("rate limit failed: %w", err)
				}
				select {
				case chans[id] <- struct{}{}:
					klog.V(1).Infof("Scheduled check of %s", id)
				default:
					klog.V(1).Infof("Skipping check of %s, worker busy", id)
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
	})

	return eg.Wait()
}

// checkWithRetry retries a check while the log reports it is unavailable.
func (m *Monitor) checkWithRetry(ctx context.Context, treeID string, opts RunOpts) (bool, error) {
	b := opts.BackOff
	if b == nil {
		b = backoff.NewExponentialBackOff()
	}
	op := func() (bool, error) {
		_, err := m.Check(ctx, treeID)
		switch {
		case err == nil:
			return true, nil
		case api.Retriable(err), status.Code(err) == codes.Aborted:
			klog.V(1).Infof("%s: retrying: %v", treeID, err)
			return false, err
		default:
			return false, backoff.Permanent(err)
		}
	}
	return backoff.Retry(ctx, op, backoff.WithBackOff(b), backoff.WithMaxTries(opts.MaxTries))
}

// statusForError returns a string to be used as the status label for monitor
// metrics given the error returned.
func statusForError(e error) string {
	switch {
	case e == nil:
		return "ok"
	case errors.Is(e, api.ErrServiceUnavailable):
		return "unavailable"
	case errors.Is(e, api.ErrNotAvailable):
		return "behind"
	case errors.Is(e, context.Canceled), errors.Is(e, context.DeadlineExceeded):
		return "canceled"
	}
	switch status.Code(e) {
	case codes.FailedPrecondition:
		return "inconsistent"
	case codes.AlreadyExists:
		return "shrunk"
	case codes.InvalidArgument:
		return "invalid_checkpoint"
	case codes.NotFound:
		return "unknown_shard"
	case codes.Aborted:
		return "aborted"
	default:
		return "unknown_error"
	}
}
