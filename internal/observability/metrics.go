// Package observability owns process-wide counters mirroring the per-endpoint
// acquisition stats. Counters register on the default registry; no scrape
// endpoint runs unless the admin listener is enabled.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	packetsOK = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensorlogd",
			Subsystem: "acquire",
			Name:      "packets_ok_total",
			Help:      "Frames accepted per endpoint.",
		},
		[]string{"endpoint"},
	)
	frameErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensorlogd",
			Subsystem: "acquire",
			Name:      "frame_errors_total",
			Help:      "Frame failures per endpoint and error class.",
		},
		[]string{"endpoint", "class"},
	)
	connectionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensorlogd",
			Subsystem: "session",
			Name:      "connection_errors_total",
			Help:      "Failed connect/handshake attempts per endpoint.",
		},
		[]string{"endpoint"},
	)
	reconnections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sensorlogd",
			Subsystem: "session",
			Name:      "reconnections_total",
			Help:      "Sessions abandoned and re-established per endpoint.",
		},
		[]string{"endpoint"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(packetsOK, frameErrors, connectionErrors, reconnections)
	})
}

func RecordPacket(endpoint string) {
	RegisterMetrics()
	packetsOK.WithLabelValues(endpoint).Inc()
}

func RecordFrameError(endpoint, class string) {
	RegisterMetrics()
	frameErrors.WithLabelValues(endpoint, class).Inc()
}

func RecordConnectionError(endpoint string) {
	RegisterMetrics()
	connectionErrors.WithLabelValues(endpoint).Inc()
}

func RecordReconnection(endpoint string) {
	RegisterMetrics()
	reconnections.WithLabelValues(endpoint).Inc()
}
