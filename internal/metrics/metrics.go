// Package metrics provides Prometheus metrics for the discovery pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// DiscoveryRuns counts discovery runs by outcome.
	DiscoveryRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscan",
			Subsystem: "discovery",
			Name:      "runs_total",
			Help:      "Number of discovery runs by outcome.",
		},
		[]string{"outcome"},
	)
	// CandidatesFound counts candidates discovered, by source class.
	CandidatesFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscan",
			Subsystem: "discovery",
			Name:      "candidates_total",
			Help:      "Number of candidates discovered by source class.",
		},
		[]string{"source"},
	)
	// VerificationResults counts probe verdicts.
	VerificationResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscan",
			Subsystem: "verify",
			Name:      "results_total",
			Help:      "Number of verification verdicts by result.",
		},
		[]string{"result"},
	)
	// HTTPRequests counts outbound probe/fetch requests.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "streamscan",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Number of outbound HTTP requests by result.",
		},
		[]string{"result"},
	)
	// StoredStreams tracks the number of persisted working streams.
	StoredStreams = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "streamscan",
			Subsystem: "playlist",
			Name:      "streams",
			Help:      "Number of streams currently persisted in the playlist.",
		},
	)
	// StoredChannels tracks the number of persisted channels.
	StoredChannels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "streamscan",
			Subsystem: "playlist",
			Name:      "channels",
			Help:      "Number of channels currently persisted in the playlist.",
		},
	)
)

func init() {
	prometheus.MustRegister(DiscoveryRuns)
	prometheus.MustRegister(CandidatesFound)
	prometheus.MustRegister(VerificationResults)
	prometheus.MustRegister(HTTPRequests)
	prometheus.MustRegister(StoredStreams)
	prometheus.MustRegister(StoredChannels)
}
