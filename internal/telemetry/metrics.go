package telemetry

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	JobsEnqueued     = prometheus.NewCounter(prometheus.CounterOpts{Name: "translation_jobs_enqueued_total", Help: "Translation jobs added to the queue"})
	JobsSkipped      = prometheus.NewCounter(prometheus.CounterOpts{Name: "translation_jobs_skipped_total", Help: "Enqueue requests skipped because a translation already exists"})
	JobsCompleted    = prometheus.NewCounter(prometheus.CounterOpts{Name: "translation_jobs_completed_total", Help: "Translation jobs completed"})
	JobsFailed       = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "translation_jobs_failed_total", Help: "Translation jobs failed, by reason"}, []string{"reason"})
	JobsPruned       = prometheus.NewCounter(prometheus.CounterOpts{Name: "translation_jobs_pruned_total", Help: "Jobs removed because their documents disappeared"})
	RateLimitRejects = prometheus.NewCounter(prometheus.CounterOpts{Name: "translation_rate_limit_rejects_total", Help: "Enqueue requests rejected by the rate limiter"})
	QueueDepth       = prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: "translation_queue_jobs", Help: "Jobs in the queue by status"}, []string{"status"})
	TickDuration     = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "translation_tick_duration_seconds",
		Help:    "Wall time of one queue tick",
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 30, 60, 120},
	})
)

// Handler exposes /metrics HTTP handler with a singleton registry.
func Handler() http.Handler {
	once.Do(func() {
		prometheus.MustRegister(
			JobsEnqueued,
			JobsSkipped,
			JobsCompleted,
			JobsFailed,
			JobsPruned,
			RateLimitRejects,
			QueueDepth,
			TickDuration,
		)
	})
	return promhttp.Handler()
}
