package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters of all motion detectors of the agent.
type Metrics struct {
	// Number of detectors in the running state.
	ActiveDetectors atomic.Int64

	FramesRead      *prometheus.CounterVec
	FramesProcessed *prometheus.CounterVec
	ReadErrors      *prometheus.CounterVec
	ProcessErrors   *prometheus.CounterVec
	RenderErrors    *prometheus.CounterVec
	MotionEvents    *prometheus.CounterVec
	Boxes           *prometheus.GaugeVec
	CycleLatency    *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	labels := []string{"camera"}

	m.FramesRead = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_frames_read_total",
		Help: "Total frames read from the camera",
	}, labels)
	m.FramesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_frames_processed_total",
		Help: "Total frames that went through motion detection",
	}, labels)
	m.ReadErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_read_errors_total",
		Help: "Total reads that returned no frame",
	}, labels)
	m.ProcessErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_process_errors_total",
		Help: "Total frames that could not be analysed",
	}, labels)
	m.RenderErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_render_errors_total",
		Help: "Total overlays that failed, the raw frame was served instead",
	}, labels)
	m.MotionEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agent_motion_events_total",
		Help: "Total motion onsets",
	}, labels)
	m.Boxes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "agent_motion_boxes",
		Help: "Number of motion boxes found in the last frame",
	}, labels)
	m.CycleLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agent_cycle_latency_seconds",
		Help:    "Time spent analysing one frame",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	}, labels)

	m.registry.MustRegister(
		m.FramesRead,
		m.FramesProcessed,
		m.ReadErrors,
		m.ProcessErrors,
		m.RenderErrors,
		m.MotionEvents,
		m.Boxes,
		m.CycleLatency,
	)
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "agent_active_detectors",
			Help: "Number of running motion detectors",
		},
		func() float64 { return float64(m.ActiveDetectors.Load()) },
	))
}

// ObserveCycle records one completed detection cycle.
func (m *Metrics) ObserveCycle(camera string, boxes int, duration time.Duration, renderFailed bool) {
	m.FramesRead.WithLabelValues(camera).Inc()
	m.FramesProcessed.WithLabelValues(camera).Inc()
	m.Boxes.WithLabelValues(camera).Set(float64(boxes))
	m.CycleLatency.WithLabelValues(camera).Observe(duration.Seconds())
	if renderFailed {
		m.RenderErrors.WithLabelValues(camera).Inc()
	}
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
