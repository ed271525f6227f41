package vad

import (
	"context"
	"fmt"
	"math"
)

// Detector produces one speech probability per window of WindowSize samples.
// Implementations are shared by all requests and must be safe for concurrent use.
type Detector interface {
	Probabilities(ctx context.Context, samples []float32) ([]float32, error)
	WindowSize() int
	Close() error
}

// energyReference is the int16-scale RMS that maps to probability 1.0
const energyReference = 10000.0

// EnergyDetector is a pure-Go detector based on per-window RMS energy
type EnergyDetector struct {
	windowSize int
}

// NewEnergyDetector creates an energy detector with the given window size in samples
func NewEnergyDetector(windowSize int) (*EnergyDetector, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}
	return &EnergyDetector{windowSize: windowSize}, nil
}

// Probabilities returns the normalized RMS energy of each window.
// A trailing partial window is scored on the samples it has.
func (d *EnergyDetector) Probabilities(ctx context.Context, samples []float32) ([]float32, error) {
	probs := make([]float32, 0, len(samples)/d.windowSize+1)

	for start := 0; start < len(samples); start += d.windowSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + d.windowSize
		if end > len(samples) {
			end = len(samples)
		}

		probs = append(probs, windowEnergy(samples[start:end]))
	}

	return probs, nil
}

// WindowSize returns the window size in samples
func (d *EnergyDetector) WindowSize() int {
	return d.windowSize
}

// Close is a no-op; the energy detector holds no resources
func (d *EnergyDetector) Close() error {
	return nil
}

// windowEnergy maps the RMS of a window onto 0-1
func windowEnergy(window []float32) float32 {
	var energy float64
	for _, s := range window {
		v := float64(s) * 32768.0
		energy += v * v
	}
	energy = math.Sqrt(energy / float64(len(window)))

	normalized := energy / energyReference
	if normalized > 1.0 {
		normalized = 1.0
	}
	return float32(normalized)
}
