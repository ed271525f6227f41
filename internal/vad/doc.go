// Package vad decides whether a staged clip contains speech.
// A Detector turns samples into per-window speech probabilities (Silero ONNX model or an
// RMS energy fallback) and the Gate reduces them to a single boolean verdict, failing
// towards "no voice" whenever anything goes wrong.
package vad
