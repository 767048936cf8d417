// Package metrics exposes Prometheus metrics for frame analysis and sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/posecoach/internal/exercise"
)

const namespace = "posecoach"

// Metrics holds the collectors on a private registry. It implements
// session.Observer.
type Metrics struct {
	registry *prometheus.Registry

	framesAnalyzed   *prometheus.CounterVec
	frameScore       *prometheus.HistogramVec
	sessionsActive   prometheus.Gauge
	sessionsFinished *prometheus.CounterVec
	fallbacks        prometheus.Counter
	videoJobs        *prometheus.CounterVec
	detectErrors     prometheus.Counter
}

// New creates a Metrics instance with Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		framesAnalyzed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_analyzed_total",
			Help:      "Frames analyzed, by exercise and outcome.",
		}, []string{"exercise", "outcome"}),
		frameScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_score",
			Help:      "Overall score of scored frames.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}, []string{"exercise"}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently accepting frames.",
		}),
		sessionsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Sessions closed, by exercise and final status.",
		}, []string{"exercise", "status"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exercise_fallback_total",
			Help:      "Sessions whose requested exercise was unsupported and fell back to general.",
		}),
		videoJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "video_jobs_total",
			Help:      "Video pipeline jobs, by result.",
		}, []string{"result"}),
		detectErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detector_errors_total",
			Help:      "Video frames the pose detector failed to analyze.",
		}),
	}

	m.registry.MustRegister(
		m.framesAnalyzed,
		m.frameScore,
		m.sessionsActive,
		m.sessionsFinished,
		m.fallbacks,
		m.videoJobs,
		m.detectErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) SessionStarted(exerciseType string, usedFallback bool) {
	m.sessionsActive.Inc()
	if usedFallback {
		m.fallbacks.Inc()
	}
}

func (m *Metrics) FrameAnalyzed(exerciseType string, result exercise.FrameResult) {
	m.framesAnalyzed.WithLabelValues(exerciseType, string(result.Outcome)).Inc()
	if result.Outcome == exercise.Scored && result.Score != nil {
		m.frameScore.WithLabelValues(exerciseType).Observe(result.Score.Overall)
	}
}

func (m *Metrics) SessionEnded(exerciseType string, status string) {
	m.sessionsActive.Dec()
	m.sessionsFinished.WithLabelValues(exerciseType, status).Inc()
}

// VideoJob records the result of a video pipeline job: "completed",
// "cancelled" or "failed".
func (m *Metrics) VideoJob(result string) {
	m.videoJobs.WithLabelValues(result).Inc()
}

// DetectorError counts a video frame the detector could not analyze.
func (m *Metrics) DetectorError() {
	m.detectErrors.Inc()
}
