// Copyright 2025 Blink Labs Software
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

package bridge

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

type bridgeMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	active      prometheus.Gauge
	returned    prometheus.Counter
}

func newBridgeMetrics(promRegistry prometheus.Registerer) *bridgeMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &bridgeMetrics{
		transitions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_transitions_total",
				Help: "total bridge state transitions by instruction and result",
			},
			[]string{"instruction", "result"},
		),
		duration: promautoFactory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_transition_duration_seconds",
				Help:    "bridge state transition latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"instruction"},
		),
		active: promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_tokens_active",
				Help: "tokens with an active local representation",
			},
		),
		returned: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "bridge_tokens_returned_total",
				Help: "tokens burned and returned to their origin chain",
			},
		),
	}
}
