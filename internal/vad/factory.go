package vad

import "fmt"

// Detector engines
const (
	EngineSilero = "silero"
	EngineEnergy = "energy"
	EngineNone   = "none"
)

// DetectorConfig selects and configures a detector
type DetectorConfig struct {
	Engine      string
	ModelPath   string
	OnnxLibPath string
	WindowSize  int // energy engine only; Silero always uses 512
}

// NewDetector builds the configured detector. EngineNone returns a nil
// detector, which a Gate treats as an unavailable model.
func NewDetector(cfg DetectorConfig) (Detector, error) {
	switch cfg.Engine {
	case EngineSilero:
		d, err := NewSileroDetector(SileroConfig{
			ModelPath:   cfg.ModelPath,
			OnnxLibPath: cfg.OnnxLibPath,
		})
		if err != nil {
			return nil, err
		}
		return d, nil
	case EngineEnergy:
		d, err := NewEnergyDetector(cfg.WindowSize)
		if err != nil {
			return nil, err
		}
		return d, nil
	case EngineNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown VAD engine %q", cfg.Engine)
	}
}
