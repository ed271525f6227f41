package vad

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/eric-edouard/life-recorder/internal/audio"
	"github.com/eric-edouard/life-recorder/internal/metrics"
)

// Failure reasons reported when a clip is classified as no voice by default
const (
	ReasonModelUnavailable = "model_unavailable"
	ReasonRead             = "read"
	ReasonDecode           = "decode"
	ReasonSampleRate       = "sample_rate"
	ReasonInference        = "inference"
	ReasonPanic            = "panic"
)

// GateConfig contains the verdict parameters
type GateConfig struct {
	Threshold          float32
	MinSpeechDuration  time.Duration
	MinSilenceDuration time.Duration
}

// DefaultGateConfig returns the thresholds used by the Silero speech timestamp helper
func DefaultGateConfig() GateConfig {
	return GateConfig{
		Threshold:          0.5,
		MinSpeechDuration:  250 * time.Millisecond,
		MinSilenceDuration: 100 * time.Millisecond,
	}
}

// Gate classifies staged WAV files for voice presence
type Gate struct {
	detector Detector
	config   GateConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewGate creates a gate around a shared detector. A nil detector is allowed and
// means the model could not be loaded; every clip is then classified as no voice.
func NewGate(detector Detector, cfg GateConfig, logger *slog.Logger, m *metrics.Metrics) *Gate {
	return &Gate{
		detector: detector,
		config:   cfg,
		logger:   logger,
		metrics:  m,
	}
}

// Available reports whether a detector is loaded
func (g *Gate) Available() bool {
	return g.detector != nil
}

// Classify reports whether the WAV file at path contains speech. It never
// fails: any error is logged, counted and turned into false.
func (g *Gate) Classify(ctx context.Context, path string) bool {
	startTime := time.Now()

	hasVoice, reason, err := g.classify(ctx, path)
	if err != nil {
		g.metrics.RecordVADFailure(reason)

		level := slog.LevelError
		if reason == ReasonModelUnavailable {
			level = slog.LevelWarn
		}
		g.logger.LogAttrs(ctx, level, "Voice detection failed, classifying as no voice",
			slog.String("path", path),
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
		return false
	}

	g.metrics.RecordVADVerdict(hasVoice, time.Since(startTime).Seconds())
	g.logger.Info("Voice detection result",
		slog.String("path", path),
		slog.Bool("has_voice", hasVoice),
		slog.Duration("duration", time.Since(startTime)),
	)

	return hasVoice
}

func (g *Gate) classify(ctx context.Context, path string) (hasVoice bool, reason string, err error) {
	defer func() {
		if r := recover(); r != nil {
			hasVoice, reason, err = false, ReasonPanic, fmt.Errorf("detector panic: %v", r)
		}
	}()

	if g.detector == nil {
		return false, ReasonModelUnavailable, fmt.Errorf("VAD model not loaded")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false, ReasonRead, fmt.Errorf("failed to read audio file: %w", err)
	}

	samples, sampleRate, err := audio.DecodeWAV(data)
	if err != nil {
		return false, ReasonDecode, fmt.Errorf("failed to decode audio file: %w", err)
	}

	if sampleRate != audio.SampleRate {
		return false, ReasonSampleRate, fmt.Errorf("unsupported sample rate %d, expected %d", sampleRate, audio.SampleRate)
	}

	probs, err := g.detector.Probabilities(ctx, audio.SamplesToFloat32(samples))
	if err != nil {
		return false, ReasonInference, err
	}

	segments := SpeechSegments(probs, g.detector.WindowSize(), len(samples), SegmentConfig{
		Threshold:          g.config.Threshold,
		MinSpeechDuration:  g.config.MinSpeechDuration,
		MinSilenceDuration: g.config.MinSilenceDuration,
		SampleRate:         sampleRate,
	})

	g.logger.Debug("Speech segments detected",
		slog.String("path", path),
		slog.Int("windows", len(probs)),
		slog.Int("segments", len(segments)),
	)

	return len(segments) > 0, "", nil
}
