package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Fixed format of every clip accepted by the ingestion endpoint
const (
	NumChannels   = 1
	SampleRate    = 16000
	BitsPerSample = 16

	// HeaderSize is the size of the canonical PCM WAV header
	HeaderSize = 44
)

// ErrInvalidClipSize is returned when a clip cannot be described by a 32-bit data chunk
var ErrInvalidClipSize = errors.New("invalid clip size")

// WAVHeader represents the header structure of a WAV file
type WAVHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

// Envelope is a raw PCM payload paired with its canonical WAV header
type Envelope struct {
	Header  [HeaderSize]byte
	Payload []byte
}

// BuildHeader produces the 44-byte header for a mono 16 kHz 16-bit clip of dataLength bytes
func BuildHeader(dataLength int64) ([HeaderSize]byte, error) {
	var out [HeaderSize]byte

	if dataLength < 0 || dataLength > math.MaxUint32-36 {
		return out, fmt.Errorf("%w: %d bytes", ErrInvalidClipSize, dataLength)
	}

	header := WAVHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     uint32(dataLength) + 36,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   NumChannels,
		SampleRate:    SampleRate,
		ByteRate:      SampleRate * NumChannels * BitsPerSample / 8,
		BlockAlign:    NumChannels * BitsPerSample / 8,
		BitsPerSample: BitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: uint32(dataLength),
	}

	buf := bytes.NewBuffer(make([]byte, 0, HeaderSize))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return out, fmt.Errorf("failed to write WAV header: %w", err)
	}
	copy(out[:], buf.Bytes())

	return out, nil
}

// NewEnvelope wraps raw PCM bytes in a canonical WAV header
func NewEnvelope(pcm []byte) (Envelope, error) {
	header, err := BuildHeader(int64(len(pcm)))
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Header: header, Payload: pcm}, nil
}

// Size returns the total size of the WAV object in bytes
func (e Envelope) Size() int64 {
	return HeaderSize + int64(len(e.Payload))
}

// WriteTo writes the header followed by the payload
func (e Envelope) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.Header[:])
	if err != nil {
		return int64(n), err
	}
	m, err := w.Write(e.Payload)
	return int64(n + m), err
}

// Bytes returns the full WAV object as a single slice
func (e Envelope) Bytes() []byte {
	out := make([]byte, 0, e.Size())
	out = append(out, e.Header[:]...)
	return append(out, e.Payload...)
}

// ParseHeader reads and validates the canonical header at the start of data
func ParseHeader(data []byte) (*WAVHeader, error) {
	if err := ValidateWAV(data); err != nil {
		return nil, err
	}

	var header WAVHeader
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read WAV header: %w", err)
	}

	return &header, nil
}

// DecodeWAV decodes WAV format data back to PCM-16 samples
func DecodeWAV(data []byte) ([]int16, int, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, 0, err
	}

	if header.AudioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported audio format: %d (only PCM is supported)", header.AudioFormat)
	}

	if header.BitsPerSample != 16 {
		return nil, 0, fmt.Errorf("unsupported bit depth: %d (only 16-bit is supported)", header.BitsPerSample)
	}

	if header.NumChannels != 1 {
		return nil, 0, fmt.Errorf("unsupported channel count: %d (only mono is supported)", header.NumChannels)
	}

	payload := data[HeaderSize:]
	if uint64(header.Subchunk2Size) > uint64(len(payload)) {
		return nil, 0, fmt.Errorf("truncated data chunk: header declares %d bytes, found %d",
			header.Subchunk2Size, len(payload))
	}

	// A trailing odd byte is not a full sample and is ignored
	numSamples := int(header.Subchunk2Size) / 2
	if numSamples == 0 {
		return nil, 0, fmt.Errorf("no audio data found")
	}

	samples := make([]int16, numSamples)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[i*2:]))
	}

	return samples, int(header.SampleRate), nil
}

// ValidateWAV validates a WAV file format without decoding the entire audio data
func ValidateWAV(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("WAV data too short: need at least %d bytes, got %d", HeaderSize, len(data))
	}

	if string(data[0:4]) != "RIFF" {
		return fmt.Errorf("invalid WAV file: missing RIFF header")
	}

	if string(data[8:12]) != "WAVE" {
		return fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	if string(data[12:16]) != "fmt " {
		return fmt.Errorf("invalid WAV file: missing fmt chunk")
	}

	if string(data[36:40]) != "data" {
		return fmt.Errorf("invalid WAV file: missing data chunk")
	}

	return nil
}

// GetWAVDuration calculates the duration of a WAV file in seconds
func GetWAVDuration(data []byte) (float64, error) {
	info, err := GetWAVInfo(data)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// WAVInfo holds basic information about a WAV file
type WAVInfo struct {
	SampleRate    uint32  `json:"sample_rate"`
	Channels      uint16  `json:"channels"`
	BitsPerSample uint16  `json:"bits_per_sample"`
	Duration      float64 `json:"duration_seconds"`
	DataSize      uint32  `json:"data_size_bytes"`
	FileSize      uint32  `json:"file_size_bytes"`
	NumSamples    uint32  `json:"num_samples"`
}

// GetWAVInfo extracts metadata from a WAV file
func GetWAVInfo(data []byte) (*WAVInfo, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if header.SampleRate == 0 {
		return nil, fmt.Errorf("invalid sample rate: 0")
	}

	frameSize := uint32(header.BitsPerSample) / 8 * uint32(header.NumChannels)
	if frameSize == 0 {
		return nil, fmt.Errorf("invalid sample format: %d bits, %d channels", header.BitsPerSample, header.NumChannels)
	}

	numSamples := header.Subchunk2Size / frameSize
	duration := float64(numSamples) / float64(header.SampleRate)

	return &WAVInfo{
		SampleRate:    header.SampleRate,
		Channels:      header.NumChannels,
		BitsPerSample: header.BitsPerSample,
		Duration:      duration,
		DataSize:      header.Subchunk2Size,
		FileSize:      header.ChunkSize,
		NumSamples:    numSamples,
	}, nil
}

// SamplesToFloat32 converts PCM-16 samples to normalized float32 in [-1, 1)
func SamplesToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}
