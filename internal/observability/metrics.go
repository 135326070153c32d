// Package observability holds the prometheus instrumentation shared by
// the assistant core and the voice service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IntentsClassified counts intents assigned to transcripts.
	IntentsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicepilot",
		Name:      "intents_classified_total",
		Help:      "Intents assigned to transcripts, by intent.",
	}, []string{"intent"})

	// ElementResolutions counts resolution outcomes (found or miss).
	ElementResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "voicepilot",
		Name:      "element_resolutions_total",
		Help:      "Element resolution outcomes.",
	}, []string{"outcome"})

	// PageExtractions counts structure snapshots taken.
	PageExtractions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voicepilot",
		Name:      "page_extractions_total",
		Help:      "Page structure extractions performed.",
	})

	// BackendFallbacks counts turns answered locally after a backend failure.
	BackendFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "voicepilot",
		Name:      "backend_fallbacks_total",
		Help:      "Turns answered by the local rule engine after a backend failure.",
	})

	// ActiveSessions tracks open voice sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "voicepilot",
		Name:      "active_sessions",
		Help:      "Currently active voice sessions.",
	})

	// RequestDuration observes HTTP latency per route.
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "voicepilot",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route, method and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method", "status"})
)
