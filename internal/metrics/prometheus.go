package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the audio ingestion service
type Metrics struct {
	// Ingestion metrics
	ClipsReceived  prometheus.Counter
	ClipBytes      prometheus.Histogram
	IngestOutcomes *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec

	// VAD metrics
	VADVerdicts       *prometheus.CounterVec
	VADFailures       *prometheus.CounterVec
	VADProcessingTime prometheus.Histogram

	// Staging metrics
	StagedFiles            prometheus.Counter
	StagingCleanupFailures prometheus.Counter
	StaleFilesRemoved      prometheus.Counter

	// Upload metrics
	UploadBytes    prometheus.Counter
	UploadFailures *prometheus.CounterVec

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		ClipsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "ingest_clips_received_total",
			Help: "Total number of audio clips received",
		}),
		ClipBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ingest_clip_size_bytes",
			Help:    "Size of received raw PCM clips in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 2, 14), // 1KB to ~8MB
		}),
		IngestOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ingest_outcomes_total",
			Help: "Ingestion results by terminal state",
		}, []string{"outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ingest_stage_duration_seconds",
			Help:    "Time spent in each ingestion stage",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"stage"}),

		// VAD metrics
		VADVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vad_verdicts_total",
			Help: "Voice activity verdicts by result",
		}, []string{"verdict"}),
		VADFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vad_failures_total",
			Help: "Classification failures absorbed as a no-voice verdict",
		}, []string{"reason"}),
		VADProcessingTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_processing_duration_seconds",
			Help:    "Time spent classifying a clip",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),

		// Staging metrics
		StagedFiles: factory.NewCounter(prometheus.CounterOpts{
			Name: "staging_files_written_total",
			Help: "Total number of clips written to the staging directory",
		}),
		StagingCleanupFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "staging_cleanup_failures_total",
			Help: "Total number of staged files that could not be removed",
		}),
		StaleFilesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "staging_stale_files_removed_total",
			Help: "Total number of orphaned staged files removed at startup",
		}),

		// Upload metrics
		UploadBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Total number of WAV bytes uploaded to the blob store",
		}),
		UploadFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "upload_failures_total",
			Help: "Upload failures by error kind",
		}, []string{"kind"}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// The Record* methods accept a nil receiver so components can run without metrics

// RecordClipReceived records an incoming clip and its size
func (m *Metrics) RecordClipReceived(sizeBytes int) {
	if m == nil {
		return
	}
	m.ClipsReceived.Inc()
	m.ClipBytes.Observe(float64(sizeBytes))
}

// RecordStage records the duration of one ingestion stage
func (m *Metrics) RecordStage(stage string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordOutcome records the terminal state of one ingestion request
func (m *Metrics) RecordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.IngestOutcomes.WithLabelValues(outcome).Inc()
}

// RecordVADVerdict records a classification verdict and its processing time
func (m *Metrics) RecordVADVerdict(hasVoice bool, processingTimeSeconds float64) {
	if m == nil {
		return
	}
	verdict := "novoice"
	if hasVoice {
		verdict = "voice"
	}
	m.VADVerdicts.WithLabelValues(verdict).Inc()
	m.VADProcessingTime.Observe(processingTimeSeconds)
}

// RecordVADFailure records a classification failure by reason
func (m *Metrics) RecordVADFailure(reason string) {
	if m == nil {
		return
	}
	m.VADFailures.WithLabelValues(reason).Inc()
}

// RecordStaged increments the staged files counter
func (m *Metrics) RecordStaged() {
	if m == nil {
		return
	}
	m.StagedFiles.Inc()
}

// RecordCleanupFailure increments the staging cleanup failures counter
func (m *Metrics) RecordCleanupFailure() {
	if m == nil {
		return
	}
	m.StagingCleanupFailures.Inc()
}

// RecordStaleRemoved adds n to the stale files removed counter
func (m *Metrics) RecordStaleRemoved(n int) {
	if m == nil {
		return
	}
	m.StaleFilesRemoved.Add(float64(n))
}

// RecordUpload records a successful upload
func (m *Metrics) RecordUpload(sizeBytes int64) {
	if m == nil {
		return
	}
	m.UploadBytes.Add(float64(sizeBytes))
}

// RecordUploadFailure records a failed upload by error kind
func (m *Metrics) RecordUploadFailure(kind string) {
	if m == nil {
		return
	}
	m.UploadFailures.WithLabelValues(kind).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	if m == nil {
		return
	}
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
