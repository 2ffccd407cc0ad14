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

package prometheus

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	mf := MetricFactory{Prefix: "test_", Registerer: reg}
	c := mf.NewCounter("requests", "Requests made.", "op")
	c.Inc("getLogInfo")
	c.Inc("getLogInfo")
	c.Inc()
	got := testutil.ToFloat64(c.(*Counter).vec.WithLabelValues("getLogInfo"))
	if got != 2 {
		t.Errorf("counter = %f, want 2", got)
	}
}

func TestHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	mf := MetricFactory{Registerer: reg}
	h := mf.NewHistogram("latency_seconds", "Latency.", "op")
	h.Observe(0.2, "getLogInfo")
	n, err := testutil.GatherAndCount(reg, "latency_seconds")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if n != 1 {
		t.Errorf("GatherAndCount() = %d, want 1", n)
	}
}
