package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eric-edouard/life-recorder/internal/audio"
	"github.com/eric-edouard/life-recorder/internal/metrics"
	"github.com/eric-edouard/life-recorder/internal/staging"
	"github.com/eric-edouard/life-recorder/internal/storage"
)

// Failure exits of the pipeline. Returned errors wrap one of these and the cause.
var (
	ErrStagingFailed = errors.New("staging failed")
	ErrUploadFailed  = errors.New("upload failed")
)

// Outcome labels
const (
	OutcomeUploaded      = "uploaded"
	OutcomeStagingFailed = "staging_failed"
	OutcomeUploadFailed  = "upload_failed"
)

// Stager stages a WAV object for the duration of fn
type Stager interface {
	WithStaged(baseID string, env audio.Envelope, fn func(*staging.StagedFile) error) error
}

// Classifier reports whether a staged WAV file contains speech
type Classifier interface {
	Classify(ctx context.Context, path string) bool
}

// Request is one clip as received over HTTP
type Request struct {
	UID        string // advisory
	SampleRate string // advisory; clips are always framed as 16 kHz
	Body       []byte
}

// Timings holds the duration of each stage
type Timings struct {
	Stage    time.Duration
	Classify time.Duration
	Upload   time.Duration
	Total    time.Duration
}

// Result describes a successfully stored clip
type Result struct {
	ObjectName string
	HasVoice   bool
	Size       int64
	Timings    Timings
}

// Pipeline runs requests through staging, classification and upload
type Pipeline struct {
	stager     Stager
	classifier Classifier
	uploader   storage.Uploader
	bucket     string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// NewPipeline creates a pipeline uploading to bucket. An empty bucket is
// accepted here and reported on every request.
func NewPipeline(stager Stager, classifier Classifier, uploader storage.Uploader, bucket string, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		stager:     stager,
		classifier: classifier,
		uploader:   uploader,
		bucket:     bucket,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
	}
}

// Process stores one clip and returns the object name it was stored under
func (p *Pipeline) Process(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()
	p.metrics.RecordClipReceived(len(req.Body))

	logger := p.logger.With(
		slog.String("uid", req.UID),
		slog.String("sample_rate", req.SampleRate),
	)
	logger.Debug("Received audio clip", slog.Int("size_bytes", len(req.Body)))

	// Checked before staging so nothing touches disk without a destination
	if p.bucket == "" {
		err := &storage.ConfigError{Reason: "bucket name not set"}
		return nil, p.fail(logger, OutcomeUploadFailed, fmt.Errorf("%w: %w", ErrUploadFailed, err))
	}

	env, err := audio.NewEnvelope(req.Body)
	if err != nil {
		return nil, p.fail(logger, OutcomeStagingFailed, fmt.Errorf("%w: %w", ErrStagingFailed, err))
	}

	// Once bytes are staged the request runs to completion
	ctx = context.WithoutCancel(ctx)

	baseID := BaseIdentifier(p.now())
	result := &Result{Size: env.Size()}

	stageStart := time.Now()
	err = p.stager.WithStaged(baseID, env, func(staged *staging.StagedFile) error {
		result.Timings.Stage = time.Since(stageStart)
		p.metrics.RecordStage("stage", result.Timings.Stage.Seconds())

		classifyStart := time.Now()
		result.HasVoice = p.classifier.Classify(ctx, staged.Path)
		result.Timings.Classify = time.Since(classifyStart)
		p.metrics.RecordStage("classify", result.Timings.Classify.Seconds())

		result.ObjectName = ObjectName(staged.BaseID, result.HasVoice)

		uploadStart := time.Now()
		err := p.uploader.Upload(ctx, storage.UploadRequest{
			Bucket:      p.bucket,
			ObjectName:  result.ObjectName,
			FilePath:    staged.Path,
			ContentType: storage.ContentTypeWAV,
		})
		result.Timings.Upload = time.Since(uploadStart)
		p.metrics.RecordStage("upload", result.Timings.Upload.Seconds())

		if err != nil {
			p.metrics.RecordUploadFailure(storage.ErrorKind(err))
			return fmt.Errorf("%w: %w", ErrUploadFailed, err)
		}

		p.metrics.RecordUpload(staged.Size)
		return nil
	})
	if err != nil {
		outcome := OutcomeUploadFailed
		if !errors.Is(err, ErrUploadFailed) {
			outcome = OutcomeStagingFailed
			err = fmt.Errorf("%w: %w", ErrStagingFailed, err)
		}
		return nil, p.fail(logger, outcome, err)
	}

	result.Timings.Total = time.Since(startTime)
	p.metrics.RecordStage("total", result.Timings.Total.Seconds())
	p.metrics.RecordOutcome(OutcomeUploaded)

	logger.Info("Audio clip stored",
		slog.String("object", result.ObjectName),
		slog.Bool("has_voice", result.HasVoice),
		slog.Int64("size_bytes", result.Size),
		slog.Duration("stage", result.Timings.Stage),
		slog.Duration("classify", result.Timings.Classify),
		slog.Duration("upload", result.Timings.Upload),
		slog.Duration("total", result.Timings.Total),
	)

	return result, nil
}

// fail logs and counts a failed request and returns err unchanged
func (p *Pipeline) fail(logger *slog.Logger, outcome string, err error) error {
	p.metrics.RecordOutcome(outcome)

	attrs := []any{
		slog.String("outcome", outcome),
		slog.String("error", err.Error()),
	}
	if kind := storage.ErrorKind(err); kind != "unknown" {
		attrs = append(attrs, slog.String("kind", kind))
	}

	logger.Error("Audio clip ingestion failed", attrs...)
	return err
}
