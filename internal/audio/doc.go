// Package audio frames raw PCM clips as canonical WAV objects and reads them back.
// Clips are always mono, 16 kHz, 16-bit little-endian PCM.
package audio
