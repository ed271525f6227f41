package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestBuildHeaderFields(t *testing.T) {
	header, err := BuildHeader(32000)
	if err != nil {
		t.Fatalf("BuildHeader failed: %v", err)
	}

	if len(header) != HeaderSize {
		t.Fatalf("Expected header size %d, got %d", HeaderSize, len(header))
	}

	checks := []struct {
		name   string
		got    uint32
		expect uint32
	}{
		{"file size", binary.LittleEndian.Uint32(header[4:8]), 32036},
		{"fmt chunk size", binary.LittleEndian.Uint32(header[16:20]), 16},
		{"format code", uint32(binary.LittleEndian.Uint16(header[20:22])), 1},
		{"channels", uint32(binary.LittleEndian.Uint16(header[22:24])), 1},
		{"sample rate", binary.LittleEndian.Uint32(header[24:28]), 16000},
		{"byte rate", binary.LittleEndian.Uint32(header[28:32]), 32000},
		{"block align", uint32(binary.LittleEndian.Uint16(header[32:34])), 2},
		{"bits per sample", uint32(binary.LittleEndian.Uint16(header[34:36])), 16},
		{"data length", binary.LittleEndian.Uint32(header[40:44]), 32000},
	}
	for _, c := range checks {
		if c.got != c.expect {
			t.Errorf("%s: expected %d, got %d", c.name, c.expect, c.got)
		}
	}

	for offset, tag := range map[int]string{0: "RIFF", 8: "WAVE", 12: "fmt ", 36: "data"} {
		if got := string(header[offset : offset+4]); got != tag {
			t.Errorf("Expected %q at offset %d, got %q", tag, offset, got)
		}
	}
}

func TestBuildHeaderSizes(t *testing.T) {
	for _, n := range []int64{0, 1, 2, 511, 32000, 1 << 20, math.MaxUint32 - 36} {
		header, err := BuildHeader(n)
		if err != nil {
			t.Fatalf("BuildHeader(%d) failed: %v", n, err)
		}

		if got := binary.LittleEndian.Uint32(header[4:8]); uint64(got) != uint64(n)+36 {
			t.Errorf("BuildHeader(%d): expected file size %d, got %d", n, n+36, got)
		}
		if got := binary.LittleEndian.Uint32(header[40:44]); int64(got) != n {
			t.Errorf("BuildHeader(%d): expected data length %d, got %d", n, n, got)
		}

		again, _ := BuildHeader(n)
		if again != header {
			t.Errorf("BuildHeader(%d) is not deterministic", n)
		}
	}
}

func TestBuildHeaderInvalidSize(t *testing.T) {
	for _, n := range []int64{-1, math.MaxUint32 - 35, math.MaxUint32 + 1} {
		_, err := BuildHeader(n)
		if !errors.Is(err, ErrInvalidClipSize) {
			t.Errorf("BuildHeader(%d): expected ErrInvalidClipSize, got %v", n, err)
		}
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	// 0.1 seconds of a 440Hz tone at 16kHz
	numSamples := 1600
	pcm := make([]byte, numSamples*2)
	for i := 0; i < numSamples; i++ {
		sample := int16(16383.0 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(sample))
	}

	env, err := NewEnvelope(pcm)
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}

	wavData := env.Bytes()
	if int64(len(wavData)) != env.Size() || len(wavData) != HeaderSize+len(pcm) {
		t.Fatalf("Expected WAV size %d, got %d", HeaderSize+len(pcm), len(wavData))
	}

	var buf bytes.Buffer
	if _, err := env.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), wavData) {
		t.Error("WriteTo and Bytes produced different output")
	}

	info, err := GetWAVInfo(wavData)
	if err != nil {
		t.Fatalf("Failed to get WAV info: %v", err)
	}
	if info.SampleRate != SampleRate {
		t.Errorf("Expected sample rate %d, got %d", SampleRate, info.SampleRate)
	}
	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}
	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}
	if info.DataSize != uint32(len(pcm)) {
		t.Errorf("Expected data size %d, got %d", len(pcm), info.DataSize)
	}
	if math.Abs(info.Duration-0.1) > 0.001 {
		t.Errorf("Expected duration 0.100, got %.3f", info.Duration)
	}

	samples, sampleRate, err := DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if sampleRate != SampleRate {
		t.Errorf("Expected sample rate %d, got %d", SampleRate, sampleRate)
	}
	if len(samples) != numSamples {
		t.Fatalf("Expected %d samples, got %d", numSamples, len(samples))
	}
	for i, s := range samples {
		if want := int16(binary.LittleEndian.Uint16(pcm[i*2:])); s != want {
			t.Fatalf("Sample %d: expected %d, got %d", i, want, s)
		}
	}
}

func TestDecodeWAVSilence(t *testing.T) {
	env, err := NewEnvelope(make([]byte, 32000))
	if err != nil {
		t.Fatalf("NewEnvelope failed: %v", err)
	}

	if env.Size() != 32044 {
		t.Errorf("Expected envelope size 32044, got %d", env.Size())
	}

	duration, err := GetWAVDuration(env.Bytes())
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}
	if math.Abs(duration-1.0) > 0.001 {
		t.Errorf("Expected duration 1.000, got %.3f", duration)
	}
}

func TestDecodeWAVErrors(t *testing.T) {
	empty, _ := NewEnvelope(nil)

	truncated, _ := NewEnvelope(make([]byte, 100))
	truncatedData := truncated.Bytes()[:HeaderSize+50]

	stereo, _ := NewEnvelope(make([]byte, 100))
	stereoData := stereo.Bytes()
	binary.LittleEndian.PutUint16(stereoData[22:24], 2)

	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{1, 2, 3}},
		{"empty payload", empty.Bytes()},
		{"truncated payload", truncatedData},
		{"stereo", stereoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeWAV(tt.data); err == nil {
				t.Error("Expected error but got none")
			}
		})
	}
}

func TestValidateWAV(t *testing.T) {
	if err := ValidateWAV([]byte{1, 2, 3}); err == nil {
		t.Error("Expected error for too short WAV data")
	}

	invalidWAV := make([]byte, 50)
	copy(invalidWAV[0:4], []byte("FAKE"))
	if err := ValidateWAV(invalidWAV); err == nil {
		t.Error("Expected error for invalid RIFF header")
	}

	env, _ := NewEnvelope([]byte{0, 0})
	if err := ValidateWAV(env.Bytes()); err != nil {
		t.Errorf("Generated WAV is invalid: %v", err)
	}
}

func TestSamplesToFloat32(t *testing.T) {
	out := SamplesToFloat32([]int16{0, -32768, 16384})
	expected := []float32{0, -1, 0.5}
	for i := range expected {
		if out[i] != expected[i] {
			t.Errorf("Sample %d: expected %f, got %f", i, expected[i], out[i])
		}
	}
}
