package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognized by the service
const (
	EnvPort            = "PORT"
	EnvBucketName      = "GCS_BUCKET_NAME"
	EnvCredentialsJSON = "GOOGLE_APPLICATION_CREDENTIALS_JSON"
	EnvStorageBackend  = "STORAGE_BACKEND"
	EnvAWSRegion       = "AWS_REGION"
	EnvStagingDir      = "STAGING_DIR"
	EnvVADEngine       = "VAD_ENGINE"
	EnvVADModelPath    = "VAD_MODEL_PATH"
	EnvOnnxRuntimePath = "ONNX_RUNTIME_PATH"
	EnvVADThreshold    = "VAD_THRESHOLD"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
	EnvLogOutput       = "LOG_OUTPUT"
)

// Storage backends
const (
	BackendGCS = "gcs"
	BackendS3  = "s3"
)

// VAD engines
const (
	EngineSilero = "silero"
	EngineEnergy = "energy"
	EngineNone   = "none"
)

// Config represents the complete service configuration
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Staging StagingConfig `yaml:"staging"`
	Audio   AudioConfig   `yaml:"audio"`
	VAD     VADConfig     `yaml:"vad"`
	Logging LoggingConfig `yaml:"logging"`
}

// HTTPConfig contains HTTP server configuration
type HTTPConfig struct {
	Address      string `yaml:"address"`
	Port         int    `yaml:"port"`
	ReadTimeout  int    `yaml:"read_timeout"`  // seconds
	WriteTimeout int    `yaml:"write_timeout"` // seconds
}

// StorageConfig describes the blob store that receives finished clips.
// Bucket may be empty at startup; requests fail until it is set.
type StorageConfig struct {
	Backend        string `yaml:"backend"`
	Bucket         string `yaml:"bucket"`
	CredentialsEnv string `yaml:"credentials_env"`
	Region         string `yaml:"region"`
}

// StagingConfig controls where clips are written before upload
type StagingConfig struct {
	Dir        string `yaml:"dir"`
	StaleAfter int    `yaml:"stale_after"` // seconds, 0 disables the startup sweep
}

// AudioConfig contains the fixed PCM format of incoming clips
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BitDepth   int `yaml:"bit_depth"`
}

// VADConfig contains Voice Activity Detection configuration
type VADConfig struct {
	Engine             string  `yaml:"engine"`
	ModelPath          string  `yaml:"model_path"`
	OnnxRuntimePath    string  `yaml:"onnx_runtime_path"`
	Threshold          float32 `yaml:"threshold"`
	WindowSize         int     `yaml:"window_size"`          // samples
	MinSpeechDuration  float64 `yaml:"min_speech_duration"`  // seconds
	MinSilenceDuration float64 `yaml:"min_silence_duration"` // seconds
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file or environment overrides are present
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Address:      "0.0.0.0",
			Port:         8080,
			ReadTimeout:  60,
			WriteTimeout: 120,
		},
		Storage: StorageConfig{
			Backend:        BackendGCS,
			CredentialsEnv: EnvCredentialsJSON,
		},
		Staging: StagingConfig{
			Dir:        filepath.Join(os.TempDir(), "audio-ingest"),
			StaleAfter: 3600,
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			Channels:   1,
			BitDepth:   16,
		},
		VAD: VADConfig{
			Engine:             EngineSilero,
			ModelPath:          "./models/silero_vad.onnx",
			OnnxRuntimePath:    "./onnx/libonnxruntime.so",
			Threshold:          0.5,
			WindowSize:         512,
			MinSpeechDuration:  0.25,
			MinSilenceDuration: 0.1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the optional .env file, the optional YAML file at path and the
// process environment, in that order of increasing precedence
func Load(path string) (*Config, error) {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup function
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := config.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// applyEnv overlays environment variables on top of file values
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		value, ok := lookup(key)
		value = strings.TrimSpace(value)
		return value, ok && value != ""
	}

	if v, ok := get(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		c.HTTP.Port = port
	}

	if v, ok := get(EnvBucketName); ok {
		c.Storage.Bucket = v
	}
	if v, ok := get(EnvStorageBackend); ok {
		c.Storage.Backend = strings.ToLower(v)
	}
	if v, ok := get(EnvAWSRegion); ok {
		c.Storage.Region = v
	}

	if v, ok := get(EnvStagingDir); ok {
		c.Staging.Dir = v
	}

	if v, ok := get(EnvVADEngine); ok {
		c.VAD.Engine = strings.ToLower(v)
	}
	if v, ok := get(EnvVADModelPath); ok {
		c.VAD.ModelPath = v
	}
	if v, ok := get(EnvOnnxRuntimePath); ok {
		c.VAD.OnnxRuntimePath = v
	}
	if v, ok := get(EnvVADThreshold); ok {
		threshold, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvVADThreshold, v, err)
		}
		c.VAD.Threshold = float32(threshold)
	}

	if v, ok := get(EnvLogLevel); ok {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := get(EnvLogFormat); ok {
		c.Logging.Format = strings.ToLower(v)
	}
	if v, ok := get(EnvLogOutput); ok {
		c.Logging.Output = v
	}

	return nil
}

// Validate performs validation of every configuration section
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage config: %w", err)
	}

	if err := c.Staging.Validate(); err != nil {
		return fmt.Errorf("staging config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", h.Port)
	}

	if h.ReadTimeout < 0 {
		return fmt.Errorf("read_timeout cannot be negative, got %d", h.ReadTimeout)
	}

	if h.WriteTimeout < 0 {
		return fmt.Errorf("write_timeout cannot be negative, got %d", h.WriteTimeout)
	}

	return nil
}

// Validate validates storage configuration
func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case BackendGCS:
		if s.CredentialsEnv == "" {
			return fmt.Errorf("credentials_env cannot be empty for the gcs backend")
		}
	case BackendS3:
		if s.Region == "" {
			return fmt.Errorf("region cannot be empty for the s3 backend")
		}
	default:
		return fmt.Errorf("backend must be 'gcs' or 's3', got '%s'", s.Backend)
	}

	return nil
}

// Validate validates staging configuration
func (s *StagingConfig) Validate() error {
	if s.Dir == "" {
		return fmt.Errorf("dir cannot be empty")
	}

	if s.StaleAfter < 0 {
		return fmt.Errorf("stale_after cannot be negative, got %d", s.StaleAfter)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate != 16000 {
		return fmt.Errorf("sample_rate must be 16000 Hz, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", a.BitDepth)
	}

	return nil
}

// Validate validates VAD configuration
func (v *VADConfig) Validate() error {
	switch v.Engine {
	case EngineSilero:
		if v.ModelPath == "" {
			return fmt.Errorf("model_path cannot be empty for the silero engine")
		}
		if v.WindowSize != 512 {
			return fmt.Errorf("window_size must be 512 samples for the silero engine at 16 kHz, got %d", v.WindowSize)
		}
	case EngineEnergy, EngineNone:
	default:
		return fmt.Errorf("engine must be one of [silero, energy, none], got '%s'", v.Engine)
	}

	if v.Threshold <= 0 || v.Threshold >= 1 {
		return fmt.Errorf("threshold must be between 0 and 1 (exclusive), got %f", v.Threshold)
	}

	if v.WindowSize < 256 || v.WindowSize > 2048 {
		return fmt.Errorf("window_size must be between 256 and 2048 samples, got %d", v.WindowSize)
	}

	if v.MinSpeechDuration <= 0 {
		return fmt.Errorf("min_speech_duration must be positive, got %f", v.MinSpeechDuration)
	}

	if v.MinSilenceDuration <= 0 {
		return fmt.Errorf("min_silence_duration must be positive, got %f", v.MinSilenceDuration)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// ListenAddress returns the host:port the HTTP server listens on
func (h *HTTPConfig) ListenAddress() string {
	return fmt.Sprintf("%s:%d", h.Address, h.Port)
}

// GetReadTimeoutDuration returns the read timeout as a time.Duration
func (h *HTTPConfig) GetReadTimeoutDuration() time.Duration {
	return time.Duration(h.ReadTimeout) * time.Second
}

// GetWriteTimeoutDuration returns the write timeout as a time.Duration
func (h *HTTPConfig) GetWriteTimeoutDuration() time.Duration {
	return time.Duration(h.WriteTimeout) * time.Second
}

// GetStaleAfterDuration returns the staging sweep age as a time.Duration
func (s *StagingConfig) GetStaleAfterDuration() time.Duration {
	return time.Duration(s.StaleAfter) * time.Second
}

// GetMinSpeechDuration returns the minimum speech duration as a time.Duration
func (v *VADConfig) GetMinSpeechDuration() time.Duration {
	return time.Duration(v.MinSpeechDuration * float64(time.Second))
}

// GetMinSilenceDuration returns the minimum silence duration as a time.Duration
func (v *VADConfig) GetMinSilenceDuration() time.Duration {
	return time.Duration(v.MinSilenceDuration * float64(time.Second))
}
