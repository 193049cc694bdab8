// Copyright 2024 The ProgressiveQL Authors.
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

package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the scheduler's Prometheus instrumentation (SPEC_FULL.md
// §4.3 ambient-stack expansion), grounded on dshills-langgraph-go's
// graph/metrics.go pattern of a small struct of pre-registered
// collectors owned by the component that emits them, registered into
// a caller-supplied registry rather than the global default one so
// multiple sessions in a process don't collide.
type metrics struct {
	tasksTotal         *prometheus.CounterVec
	queueDepth         prometheus.Gauge
	tickDurationSeconds prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		tasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flowengine_session_tasks_total",
			Help: "Number of scheduler tasks dispatched, by task type.",
		}, []string{"type"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flowengine_session_queue_depth",
			Help: "Number of tasks currently queued in the active run_incremental call.",
		}),
		tickDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "flowengine_session_tick_duration_seconds",
			Help:    "Wall-clock time to execute a single scheduler task.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.tasksTotal, m.queueDepth, m.tickDurationSeconds)
	}
	return m
}

func (m *metrics) observeTask(t TaskType, depth int, dur time.Duration) {
	m.tasksTotal.WithLabelValues(string(t)).Inc()
	m.queueDepth.Set(float64(depth))
	m.tickDurationSeconds.Observe(dur.Seconds())
}
