package offline

import (
	"github.com/mattstvartak/fieldledgr-app/pkg/queue"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for monitoring queue replay.
var (
	// actionsProcessed tracks replay outcomes by status and action type.
	// Labels:
	//   - status: "success", "retry", or "failed"
	//   - type: action kind (e.g., "clock-in", "add-photo")
	actionsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldledgr_sync_processed_total",
		Help: "The total number of replayed offline actions",
	}, []string{"status", "type"})

	// syncPassDuration tracks how long one full drain cycle takes,
	// including backoff delays.
	syncPassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fieldledgr_sync_pass_duration_seconds",
		Help:    "Duration of a sync drain cycle",
		Buckets: prometheus.DefBuckets,
	})

	// queueDepth tracks the number of actions in each collection.
	// Labels:
	//   - state: "pending" or "failed"
	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fieldledgr_queue_depth",
		Help: "Number of actions in the pending queue and failed set",
	}, []string{"state"})
)

func updateDepthGauges(s *queue.Store) {
	queueDepth.WithLabelValues("pending").Set(float64(s.PendingCount()))
	queueDepth.WithLabelValues("failed").Set(float64(s.FailedCount()))
}
