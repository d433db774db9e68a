package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Capture pipeline metrics
	EventsCaptured = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layerlens_collector_events_captured_total",
			Help: "Total number of events accepted from capture bridges",
		},
		[]string{"source"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "layerlens_collector_events_dropped_total",
			Help: "Total number of bridge payloads dropped before storage",
		},
		[]string{"reason"},
	)

	// Bridge metrics
	BridgeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layerlens_collector_bridge_connections",
			Help: "Currently attached capture bridges",
		},
	)

	// Store metrics
	StoredEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layerlens_collector_stored_events",
			Help: "Events currently held across all tab buffers",
		},
	)

	ActiveTabs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "layerlens_collector_active_tabs",
			Help: "Tabs with at least one buffered event",
		},
	)

	// Archive metrics
	ArchivedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "layerlens_collector_archived_events_total",
			Help: "Events handed to the archive sink",
		},
	)

	ArchiveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "layerlens_collector_archive_errors_total",
			Help: "Archive indexing failures",
		},
	)
)
