package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(streamsActive, sseFramesTotal) }

var streamsActive = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "streams_active",
		Help: "Number of currently open event stream connections.",
	},
)

var sseFramesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sse_frames_total",
		Help: "Total number of SSE frames written, labeled by event kind.",
	},
	[]string{"kind"},
)

func StreamOpened() { streamsActive.Inc() }
func StreamClosed() { streamsActive.Dec() }

func IncSSEFrame(kind string) {
	sseFramesTotal.WithLabelValues(norm(kind)).Inc()
}
