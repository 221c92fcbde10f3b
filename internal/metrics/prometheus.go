// SPDX-License-Identifier: MIT
package metrics

import (
	"errors"
	"net/http"
	"time"

	"lipsync/internal/analysis"
	"lipsync/internal/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the analysis worker. It
// implements worker.Observer.
type Metrics struct {
	// Worker queue
	FramesSubmitted prometheus.Counter
	QueueDepth      prometheus.Gauge
	WorkerUp        prometheus.Gauge
	WorkerFailures  prometheus.Counter

	// Analysis
	FramesAnalyzed  prometheus.Counter
	FramesSkipped   *prometheus.CounterVec
	AnalysisLatency prometheus.Histogram
	Confidence      prometheus.Histogram
	Level           prometheus.Gauge
	Vowels          *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector with reg. A nil reg selects a fresh
// registry, which keeps tests independent of the global default.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)

	m := &Metrics{
		FramesSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "lipsync_frames_submitted_total",
			Help: "Total number of sample buffers submitted to the worker",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "lipsync_queue_depth",
			Help: "Inputs waiting in the worker's inbound queue",
		}),
		WorkerUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "lipsync_worker_up",
			Help: "1 while the analysis worker is running",
		}),
		WorkerFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "lipsync_worker_failures_total",
			Help: "Number of times the worker exited abnormally",
		}),

		FramesAnalyzed: f.NewCounter(prometheus.CounterOpts{
			Name: "lipsync_frames_analyzed_total",
			Help: "Total number of frames that produced an estimate",
		}),
		FramesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lipsync_frames_skipped_total",
			Help: "Frames rejected by the analyzer, by reason",
		}, []string{"reason"}),
		AnalysisLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lipsync_analysis_duration_seconds",
			Help:    "Time spent analysing one frame",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12), // 50µs to ~100ms
		}),
		Confidence: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lipsync_confidence",
			Help:    "Loudness confidence of analysed frames",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		Level: f.NewGauge(prometheus.GaugeOpts{
			Name: "lipsync_input_level_db",
			Help: "RMS level of the most recent frame",
		}),
		Vowels: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lipsync_vowels_total",
			Help: "Smoothed vowel estimates, by vowel",
		}, []string{"vowel"}),

		gatherer: reg,
	}
	m.WorkerUp.Set(1)
	return m
}

// FrameSubmitted records one submitted buffer and the resulting queue depth.
func (m *Metrics) FrameSubmitted(queueDepth int) {
	m.FramesSubmitted.Inc()
	m.QueueDepth.Set(float64(queueDepth))
}

// FrameProcessed records a successful analysis.
func (m *Metrics) FrameProcessed(elapsed time.Duration, est analysis.Estimate) {
	m.FramesAnalyzed.Inc()
	m.AnalysisLatency.Observe(elapsed.Seconds())
	m.Confidence.Observe(est.Amount)
	m.Level.Set(est.Level)
	m.Vowels.WithLabelValues(est.Vowel.String()).Inc()
}

// FrameSkipped records a rejected frame.
func (m *Metrics) FrameSkipped(err error) {
	reason := "error"
	if errors.Is(err, analysis.ErrInsufficientInput) {
		reason = "short_input"
	}
	m.FramesSkipped.WithLabelValues(reason).Inc()
}

// Stopped records the worker's exit.
func (m *Metrics) Stopped(failed bool) {
	m.WorkerUp.Set(0)
	m.QueueDepth.Set(0)
	if failed {
		m.WorkerFailures.Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until the returned server is closed.
func (m *Metrics) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger := log.New("metrics")
	go func() {
		logger.Infof("serving /metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("server error: %v", err)
		}
	}()
	return srv
}
