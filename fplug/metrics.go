package fplug

import (
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-fplug/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the controller collectors. A nil *metrics records nothing.
type metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	unknownFrames prometheus.Counter
	state         prometheus.Gauge
	queueDepth    prometheus.Gauge
}

// newMetrics registers the controller collectors with reg, labelled with the
// device address. Controllers for the same address share collectors.
func newMetrics(reg prometheus.Registerer, address string) (*metrics, error) {
	if reg == nil {
		return nil, nil
	}

	labels := prometheus.Labels{"device": address}
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "fplug",
			Name:        "requests_total",
			Help:        "Total requests resolved, by kind and outcome.",
			ConstLabels: labels,
		}, []string{"kind", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "fplug",
			Name:        "request_duration_seconds",
			Help:        "Time from dispatch to resolution of a request.",
			ConstLabels: labels,
			Buckets:     []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		}, []string{"kind"}),
		unknownFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "fplug",
			Name:        "unknown_frames_total",
			Help:        "Frames dropped because they matched no known response.",
			ConstLabels: labels,
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "fplug",
			Name:        "connection_state",
			Help:        "Connection state (0 disconnected, 1 connecting, 2 connected).",
			ConstLabels: labels,
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "fplug",
			Name:        "queue_depth",
			Help:        "Requests waiting behind the in-flight request.",
			ConstLabels: labels,
		}),
	}

	var err error
	if m.requests, err = register(reg, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	if m.unknownFrames, err = register(reg, m.unknownFrames); err != nil {
		return nil, err
	}
	if m.state, err = register(reg, m.state); err != nil {
		return nil, err
	}
	if m.queueDepth, err = register(reg, m.queueDepth); err != nil {
		return nil, err
	}

	return m, nil
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register metrics: %w", err)
	}
	return c, nil
}

func (m *metrics) observe(kind protocol.Kind, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind.String(), outcome(err)).Inc()
	if elapsed > 0 {
		m.duration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
	}
}

func (m *metrics) rejected(kind protocol.Kind) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(kind.String(), "queue_full").Inc()
}

func (m *metrics) unknownFrame() {
	if m == nil {
		return
	}
	m.unknownFrames.Inc()
}

func (m *metrics) setState(s State) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}

func (m *metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
