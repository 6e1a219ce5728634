// Package metrics exposes Prometheus counters for the codec.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	messagesDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "obacodec",
			Subsystem: "decoder",
			Name:      "messages_total",
			Help:      "Complete messages decoded.",
		},
		[]string{"grammar"},
	)
	suspensions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "obacodec",
			Subsystem: "decoder",
			Name:      "suspensions_total",
			Help:      "Decode calls that returned NeedMoreData.",
		},
		[]string{"grammar"},
	)
	decodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "obacodec",
			Subsystem: "decoder",
			Name:      "failures_total",
			Help:      "Decode failures by error kind.",
		},
		[]string{"grammar", "kind"},
	)
	bytesRead = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "obacodec",
			Subsystem: "stream",
			Name:      "bytes_read_total",
			Help:      "Bytes read from stream sources.",
		},
	)
	messagesEncoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "obacodec",
			Subsystem: "encoder",
			Name:      "messages_total",
			Help:      "Messages encoded.",
		},
		[]string{"type"},
	)
)

// Register registers the collectors with the default registry. It is safe
// to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(messagesDecoded, suspensions, decodeFailures, bytesRead, messagesEncoded)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

func RecordDecoded(grammar string) {
	Register()
	messagesDecoded.WithLabelValues(grammar).Inc()
}

func RecordSuspension(grammar string) {
	Register()
	suspensions.WithLabelValues(grammar).Inc()
}

func RecordFailure(grammar, kind string) {
	Register()
	decodeFailures.WithLabelValues(grammar, kind).Inc()
}

func RecordBytesRead(n int) {
	if n <= 0 {
		return
	}
	Register()
	bytesRead.Add(float64(n))
}

func RecordEncoded(messageType string) {
	Register()
	messagesEncoded.WithLabelValues(messageType).Inc()
}
