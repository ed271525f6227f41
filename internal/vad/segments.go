package vad

import "time"

// negativeThresholdOffset is how far below the threshold a window must fall to count as silence
const negativeThresholdOffset = 0.15

// Segment is a run of speech, in samples from the start of the clip
type Segment struct {
	Start int
	End   int
}

// SegmentConfig controls how window probabilities become speech segments
type SegmentConfig struct {
	Threshold          float32
	MinSpeechDuration  time.Duration
	MinSilenceDuration time.Duration
	SampleRate         int
}

// SpeechSegments groups per-window probabilities into speech segments.
// A segment opens on a window at or above the threshold and closes once the
// probability has stayed below threshold-0.15 for MinSilenceDuration. Segments
// not longer than MinSpeechDuration are dropped.
func SpeechSegments(probs []float32, windowSize, totalSamples int, cfg SegmentConfig) []Segment {
	negThreshold := cfg.Threshold - negativeThresholdOffset
	minSpeechSamples := int(cfg.MinSpeechDuration.Seconds() * float64(cfg.SampleRate))
	minSilenceSamples := int(cfg.MinSilenceDuration.Seconds() * float64(cfg.SampleRate))

	var segments []Segment
	triggered := false
	start, tempEnd := 0, 0

	for i, p := range probs {
		current := i * windowSize

		if p >= cfg.Threshold && tempEnd != 0 {
			tempEnd = 0
		}

		if p >= cfg.Threshold && !triggered {
			triggered = true
			start = current
			continue
		}

		if p < negThreshold && triggered {
			if tempEnd == 0 {
				tempEnd = current
			}
			if current-tempEnd < minSilenceSamples {
				continue
			}

			if tempEnd-start > minSpeechSamples {
				segments = append(segments, Segment{Start: start, End: tempEnd})
			}
			triggered = false
			tempEnd = 0
		}
	}

	if triggered && totalSamples-start > minSpeechSamples {
		segments = append(segments, Segment{Start: start, End: totalSamples})
	}

	return segments
}
