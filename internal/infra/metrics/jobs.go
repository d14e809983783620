package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, queueDepth, producerLatencyMs) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Total number of jobs processed, labeled by terminal status.",
	},
	[]string{"status"}, // 'completed', 'failed'
)

var queueDepth = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "admission_queue_depth",
		Help: "Number of jobs waiting for a worker.",
	},
)

var producerLatencyMs = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "producer_run_latency_ms",
		Help:    "End-to-end producer run latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
	},
)

func IncJob(status string) {
	jobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

func ObserveProducerLatency(ms int) {
	producerLatencyMs.Observe(float64(ms))
}
