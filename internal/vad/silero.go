package vad

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// The ONNX runtime environment is process-wide and is never torn down
var (
	onnxEnvOnce sync.Once
	onnxEnvErr  error
)

const (
	sileroSampleRate  = 16000
	sileroWindowSize  = 512 // samples per inference at 16 kHz
	sileroContextSize = 64  // samples carried over from the previous window
	sileroStateSize   = 2 * 1 * 128
)

// SileroConfig holds the paths needed to load the Silero VAD model
type SileroConfig struct {
	ModelPath   string // Path to the Silero ONNX model
	OnnxLibPath string // Path to the ONNX runtime shared library
}

// SileroDetector runs the Silero VAD model through ONNX runtime. The session
// and tensors are created once; inference is serialized by mu and the
// recurrent state is reset at the start of every clip.
type SileroDetector struct {
	mu sync.Mutex

	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	srTensor     *ort.Tensor[int64]
	stateTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	stateNTensor *ort.Tensor[float32]

	state   []float32
	context []float32
	closed  bool
}

// NewSileroDetector initializes the ONNX runtime and loads the model
func NewSileroDetector(cfg SileroConfig) (*SileroDetector, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("model path cannot be empty")
	}

	onnxEnvOnce.Do(func() {
		if cfg.OnnxLibPath != "" {
			ort.SetSharedLibraryPath(cfg.OnnxLibPath)
		}
		onnxEnvErr = ort.InitializeEnvironment()
	})
	if onnxEnvErr != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", onnxEnvErr)
	}

	d := &SileroDetector{
		state:   make([]float32, sileroStateSize),
		context: make([]float32, sileroContextSize),
	}

	if err := d.createSession(cfg.ModelPath); err != nil {
		d.destroy()
		return nil, err
	}

	return d, nil
}

// createSession creates the tensors and binds them to a new session
func (d *SileroDetector) createSession(modelPath string) error {
	inputTensor, err := ort.NewTensor(ort.NewShape(1, sileroContextSize+sileroWindowSize),
		make([]float32, sileroContextSize+sileroWindowSize))
	if err != nil {
		return fmt.Errorf("failed to create input tensor: %w", err)
	}
	d.inputTensor = inputTensor

	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{sileroSampleRate})
	if err != nil {
		return fmt.Errorf("failed to create sr tensor: %w", err)
	}
	d.srTensor = srTensor

	stateTensor, err := ort.NewTensor(ort.NewShape(2, 1, 128), make([]float32, sileroStateSize))
	if err != nil {
		return fmt.Errorf("failed to create state tensor: %w", err)
	}
	d.stateTensor = stateTensor

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		return fmt.Errorf("failed to create output tensor: %w", err)
	}
	d.outputTensor = outputTensor

	stateNTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(2, 1, 128))
	if err != nil {
		return fmt.Errorf("failed to create stateN tensor: %w", err)
	}
	d.stateNTensor = stateNTensor

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input", "sr", "state"},
		[]string{"output", "stateN"},
		[]ort.Value{d.inputTensor, d.srTensor, d.stateTensor},
		[]ort.Value{d.outputTensor, d.stateNTensor},
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create ONNX session for %s: %w", modelPath, err)
	}
	d.session = session

	return nil
}

// Probabilities runs the model over consecutive 512-sample windows. The last
// window is zero-padded.
func (d *SileroDetector) Probabilities(ctx context.Context, samples []float32) ([]float32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("silero detector is closed")
	}

	clear(d.state)
	clear(d.context)

	probs := make([]float32, 0, len(samples)/sileroWindowSize+1)
	window := make([]float32, sileroWindowSize)

	for start := 0; start < len(samples); start += sileroWindowSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n := copy(window, samples[start:])
		clear(window[n:])

		input := d.inputTensor.GetData()
		copy(input[:sileroContextSize], d.context)
		copy(input[sileroContextSize:], window)
		copy(d.stateTensor.GetData(), d.state)

		if err := d.session.Run(); err != nil {
			return nil, fmt.Errorf("inference failed at sample %d: %w", start, err)
		}

		probs = append(probs, d.outputTensor.GetData()[0])
		copy(d.state, d.stateNTensor.GetData())
		copy(d.context, input[len(input)-sileroContextSize:])
	}

	return probs, nil
}

// WindowSize returns the model window size in samples
func (d *SileroDetector) WindowSize() int {
	return sileroWindowSize
}

// Close releases the session and tensors. The ONNX environment stays alive.
func (d *SileroDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	d.destroy()
	return nil
}

// destroy releases whatever has been created so far
func (d *SileroDetector) destroy() {
	if d.session != nil {
		d.session.Destroy()
		d.session = nil
	}
	if d.inputTensor != nil {
		d.inputTensor.Destroy()
		d.inputTensor = nil
	}
	if d.srTensor != nil {
		d.srTensor.Destroy()
		d.srTensor = nil
	}
	if d.stateTensor != nil {
		d.stateTensor.Destroy()
		d.stateTensor = nil
	}
	if d.outputTensor != nil {
		d.outputTensor.Destroy()
		d.outputTensor = nil
	}
	if d.stateNTensor != nil {
		d.stateNTensor.Destroy()
		d.stateNTensor = nil
	}
}
