package ingest

import (
	"testing"
	"time"
)

func TestBaseIdentifier(t *testing.T) {
	ts := time.Date(2026, time.October, 9, 7, 3, 5, 999, time.Local)
	if got := BaseIdentifier(ts); got != "09_10_2026_07_03_05" {
		t.Errorf("Expected 09_10_2026_07_03_05, got %s", got)
	}
}

func TestObjectName(t *testing.T) {
	tests := []struct {
		hasVoice bool
		expected string
	}{
		{true, "19_10_2026_14_03_07_voice.wav"},
		{false, "19_10_2026_14_03_07_novoice.wav"},
	}

	for _, tt := range tests {
		if got := ObjectName("19_10_2026_14_03_07", tt.hasVoice); got != tt.expected {
			t.Errorf("Expected %s, got %s", tt.expected, got)
		}
	}
}
