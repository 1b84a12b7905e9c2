package bridge

import (
	"github.com/prometheus/client_golang/prometheus"

	"kinectxr/internal/bridge/broadcast"
)

// Metrics are namespaced the same way internal/httpapi/metrics.go
// registers its CounterVec/HistogramVec/GaugeVec set at init time.
var (
	clientsConnectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinectxr",
		Subsystem: "bridge",
		Name:      "clients_connected_total",
		Help:      "Total websocket clients that have connected since start.",
	})

	clientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "kinectxr",
		Subsystem: "bridge",
		Name:      "clients_active",
		Help:      "Currently connected websocket clients.",
	})

	framesSentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kinectxr",
		Subsystem: "bridge",
		Name:      "frames_sent_total",
		Help:      "Binary frames sent to clients, by stream.",
	}, []string{"stream"})

	framesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "kinectxr",
		Subsystem: "bridge",
		Name:      "frames_dropped_total",
		Help:      "Whole-frame intervals skipped by the broadcaster because it fell behind pace.",
	})

	motorCommandsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kinectxr",
		Subsystem: "bridge",
		Name:      "motor_commands_total",
		Help:      "Motor gateway commands, by type and outcome.",
	}, []string{"type", "outcome"})
)

func init() {
	prometheus.MustRegister(
		clientsConnectedTotal,
		clientsActive,
		framesSentTotal,
		framesDroppedTotal,
		motorCommandsTotal,
	)
}

// onFrameSent and onFramesDropped are wired into the broadcaster via
// SetMetricsHooks so /metrics reflects real traffic instead of staying at
// zero forever.
func onFrameSent(stream broadcast.StreamType) {
	framesSentTotal.WithLabelValues(streamLabel(stream)).Inc()
}

func onFramesDropped(count uint64) {
	framesDroppedTotal.Add(float64(count))
}

func streamLabel(stream broadcast.StreamType) string {
	switch stream {
	case broadcast.StreamTypeRGB:
		return "rgb"
	case broadcast.StreamTypeDepth:
		return "depth"
	default:
		return "unknown"
	}
}
