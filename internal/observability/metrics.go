package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WorkflowTransitions counts status changes by workflow, action and outcome.
	WorkflowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idportal_workflow_transitions_total",
		Help: "Status transitions by workflow, action and outcome",
	}, []string{"workflow", "action", "outcome"})

	// Submissions counts accepted submissions by workflow.
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idportal_submissions_total",
		Help: "Accepted submissions by workflow",
	}, []string{"workflow"})

	// IdentifierAllocations counts identifiers handed out by class.
	IdentifierAllocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idportal_identifier_allocations_total",
		Help: "Generated identifiers by class",
	}, []string{"class"})

	// IdentifierCollisions counts unique violations that triggered a retry.
	IdentifierCollisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idportal_identifier_collisions_total",
		Help: "Identifier unique-constraint collisions that were retried",
	}, []string{"workflow"})

	// DocumentsStored counts stored attachments by document type.
	DocumentsStored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idportal_documents_stored_total",
		Help: "Stored document attachments by type",
	}, []string{"document_type"})

	// StorageLatency records object-store write latency by backend.
	StorageLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "idportal_storage_write_seconds",
		Help:    "Document store write latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})

	// TrackingLookups counts public lookups by result source.
	TrackingLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idportal_tracking_lookups_total",
		Help: "Public tracking lookups by resolution",
	}, []string{"resolved"})

	// EventsPublished counts status events by backend and outcome.
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idportal_status_events_total",
		Help: "Published status-change events",
	}, []string{"backend", "outcome"})

	// WebSocketDrops counts status messages dropped for slow or closed feeds.
	WebSocketDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "idportal_websocket_drops_total",
		Help: "Status feed messages dropped by reason",
	}, []string{"reason"})
)

// RecordTransition increments the transition counter.
func RecordTransition(workflow, action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	WorkflowTransitions.WithLabelValues(workflow, action, outcome).Inc()
}

// ObserveStorage returns a func that records write latency when called.
func ObserveStorage(backend string) func() {
	start := time.Now()
	return func() {
		StorageLatency.WithLabelValues(backend).Observe(time.Since(start).Seconds())
	}
}
