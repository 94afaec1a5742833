/*
Copyright 2025 The ibc-apps Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// --- Subsystems ---
	RateLimitSubsystem = "relay_ratelimit"
	ForwardSubsystem   = "relay_forward"
	CallbackSubsystem  = "relay_callbacks"

	// --- Direction label values ---
	DirectionSend    = "send"
	DirectionReceive = "receive"

	// --- Outcome label values ---
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRefunded = "refunded"
	OutcomeGasError = "out_of_gas"
)

var (
	// --- Common Label Sets ---
	FlowLabels     = []string{"channel", "value_class", "direction"}
	ChannelLabels  = []string{"channel"}
	CallbackLabels = []string{"callback_type", "outcome"}

	rateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: RateLimitSubsystem,
			Name:      "rejections_total",
			Help:      "Counter of packets rejected by quota admission checks, per channel, value class and direction.",
		},
		FlowLabels,
	)

	rateLimitReverts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: RateLimitSubsystem,
			Name:      "reverts_total",
			Help:      "Counter of optimistic send records undone after a failure acknowledgement or timeout.",
		},
		FlowLabels,
	)

	forwardsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: ForwardSubsystem,
			Name:      "started_total",
			Help:      "Counter of packets entering the in-flight forward ledger.",
		},
		ChannelLabels,
	)

	forwardRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: ForwardSubsystem,
			Name:      "retries_total",
			Help:      "Counter of forwarded hops re-sent after a failure acknowledgement or timeout.",
		},
		ChannelLabels,
	)

	forwardsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: ForwardSubsystem,
			Name:      "resolved_total",
			Help:      "Counter of in-flight forwards reaching a terminal state, per outcome.",
		},
		[]string{"channel", "outcome"},
	)

	forwardsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: ForwardSubsystem,
			Name:      "in_flight",
			Help:      "Number of forwards currently pending resolution.",
		},
	)

	callbackExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: CallbackSubsystem,
			Name:      "executions_total",
			Help:      "Counter of contract callback executions, per lifecycle point and outcome.",
		},
		CallbackLabels,
	)

	callbackGasUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: CallbackSubsystem,
			Name:      "gas_used_total",
			Help:      "Total gas consumed by contract callbacks, per lifecycle point.",
		},
		[]string{"callback_type"},
	)
)

var registerOnce sync.Once

// Register registers all middleware collectors with the given registerer.
// Calling it more than once is a no-op.
func Register(registerer prometheus.Registerer) {
	registerOnce.Do(func() {
		registerer.MustRegister(
			rateLimitRejections,
			rateLimitReverts,
			forwardsStarted,
			forwardRetries,
			forwardsResolved,
			forwardsInFlight,
			callbackExecutions,
			callbackGasUsed,
		)
	})
}

// RecordRateLimitRejection records a packet rejected by an admission check.
func RecordRateLimitRejection(channel, valueClass, direction string) {
	rateLimitRejections.WithLabelValues(channel, valueClass, direction).Inc()
}

// RecordRateLimitRevert records an optimistic flow record being undone.
func RecordRateLimitRevert(channel, valueClass, direction string) {
	rateLimitReverts.WithLabelValues(channel, valueClass, direction).Inc()
}

// RecordForwardStarted records a new in-flight forward.
func RecordForwardStarted(channel string) {
	forwardsStarted.WithLabelValues(channel).Inc()
	forwardsInFlight.Inc()
}

// RecordForwardRetry records a forwarded hop being re-sent.
func RecordForwardRetry(channel string) {
	forwardRetries.WithLabelValues(channel).Inc()
}

// RecordForwardResolved records an in-flight forward reaching a terminal
// state.
func RecordForwardResolved(channel, outcome string) {
	forwardsResolved.WithLabelValues(channel, outcome).Inc()
	forwardsInFlight.Dec()
}

// RecordCallback records one contract callback execution.
func RecordCallback(callbackType, outcome string, gasUsed uint64) {
	callbackExecutions.WithLabelValues(callbackType, outcome).Inc()
	callbackGasUsed.WithLabelValues(callbackType).Add(float64(gasUsed))
}
