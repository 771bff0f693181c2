// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beckon_commands_total",
		Help: "Commands dispatched, by outcome kind and status.",
	}, []string{"kind", "status"})

	CommandDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "beckon_command_duration_seconds",
		Help:    "Time spent dispatching one command.",
		Buckets: prometheus.DefBuckets,
	})

	UtterancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beckon_utterances_total",
		Help: "Speech captures, by engine and result.",
	}, []string{"engine", "result"})

	WakeWordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "beckon_wake_words_total",
		Help: "Times the wake word was heard.",
	})

	TransportRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "beckon_transport_requests_total",
		Help: "Commands received over a transport.",
	}, []string{"transport"})
)

// Status renders a success flag as a label value.
func Status(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
