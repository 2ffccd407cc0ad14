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

// Package monitoring contains interfaces and bindings for collecting metrics
// about calls made to the log and CA services.
package monitoring

import "sync"

var (
	mu sync.Mutex
	mf MetricFactory
)

// SetMetricFactory sets a singleton instance of a MetricFactory that will
// be used throughout the application. Only the first call to this method
// has any effect, and it must happen before any client is constructed for
// that client's metrics to be exported.
func SetMetricFactory(imf MetricFactory) {
	if imf == nil {
		panic("MetricFactory cannot be nil")
	}
	mu.Lock()
	defer mu.Unlock()
	if mf == nil {
		mf = imf
	}
}

// GetMetricFactory returns the singleton MetricFactory for this application,
// or an InertMetricFactory if none has been set.
func GetMetricFactory() MetricFactory {
	mu.Lock()
	defer mu.Unlock()
	if mf == nil {
		return InertMetricFactory{}
	}
	return mf
}

// MetricFactory allows the creation of different types of metric.
type MetricFactory interface {
	NewCounter(name, help string, labelNames ...string) Counter
	NewHistogram(name, help string, labelNames ...string) Histogram
}

// Counter is a metric class for numeric values that increase.
type Counter interface {
	Inc(labelVals ...string)
}

// Histogram is a metric class that tracks the distribution of a collection
// of observations.
type Histogram interface {
	Observe(val float64, labelVals ...string)
}
