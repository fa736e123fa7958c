package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the capture-to-searchable-index pipeline, exposed on
// /metrics by the HTTP server.
var (
	VisitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagetrail_visits_total",
		Help: "Visit events received by the capture endpoint.",
	})
	VisitsBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagetrail_visits_blocked_total",
		Help: "Visit events dropped by the privacy blacklist.",
	})
	PagesEmbedded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagetrail_pages_embedded_total",
		Help: "Pages successfully embedded and written to the vector store.",
	})
	PagesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagetrail_pages_skipped_total",
		Help: "Pages skipped because the embedding provider kept failing.",
	})
	Searches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagetrail_searches_total",
		Help: "Semantic queries served.",
	})
)
