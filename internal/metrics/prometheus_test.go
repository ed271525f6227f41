package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordVADVerdict(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordVADVerdict(true, 0.01)
	m.RecordVADVerdict(false, 0.02)
	m.RecordVADVerdict(false, 0.03)

	if got := testutil.ToFloat64(m.VADVerdicts.WithLabelValues("voice")); got != 1 {
		t.Errorf("Expected 1 voice verdict, got %v", got)
	}
	if got := testutil.ToFloat64(m.VADVerdicts.WithLabelValues("novoice")); got != 2 {
		t.Errorf("Expected 2 novoice verdicts, got %v", got)
	}
}

func TestRecordCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordClipReceived(32000)
	m.RecordStaged()
	m.RecordCleanupFailure()
	m.RecordStaleRemoved(3)
	m.RecordUpload(32044)
	m.RecordUploadFailure("auth")
	m.RecordOutcome("uploaded")
	m.RecordHTTPError("POST", "/audio", "server_error")

	checks := []struct {
		name   string
		got    float64
		expect float64
	}{
		{"clips received", testutil.ToFloat64(m.ClipsReceived), 1},
		{"staged files", testutil.ToFloat64(m.StagedFiles), 1},
		{"cleanup failures", testutil.ToFloat64(m.StagingCleanupFailures), 1},
		{"stale removed", testutil.ToFloat64(m.StaleFilesRemoved), 3},
		{"upload bytes", testutil.ToFloat64(m.UploadBytes), 32044},
		{"auth failures", testutil.ToFloat64(m.UploadFailures.WithLabelValues("auth")), 1},
		{"uploaded outcomes", testutil.ToFloat64(m.IngestOutcomes.WithLabelValues("uploaded")), 1},
		{"http errors", testutil.ToFloat64(m.HTTPErrors.WithLabelValues("POST", "/audio", "server_error")), 1},
	}
	for _, c := range checks {
		if c.got != c.expect {
			t.Errorf("%s: expected %v, got %v", c.name, c.expect, c.got)
		}
	}
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics

	// None of these may panic
	m.RecordClipReceived(1)
	m.RecordStage("staged", 0.1)
	m.RecordOutcome("uploaded")
	m.RecordVADVerdict(true, 0.1)
	m.RecordVADFailure("decode")
	m.RecordStaged()
	m.RecordCleanupFailure()
	m.RecordStaleRemoved(1)
	m.RecordUpload(1)
	m.RecordUploadFailure("upload")
	m.RecordHTTPRequest("GET", "/health", "200", 0.1)
	m.RecordHTTPError("GET", "/health", "client_error")
}

func TestNewMetricsSeparateRegistries(t *testing.T) {
	// Each registry gets its own collectors, so repeated construction must not panic
	NewMetrics(prometheus.NewRegistry())
	NewMetrics(prometheus.NewRegistry())
}
