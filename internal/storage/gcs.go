package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// Reasons reported in *ConfigError by the GCS backend
const (
	ReasonCredentialsNotSet = "credentials not set"
	ReasonBadCredentials    = "bad credentials"
)

// gcsSession is an authenticated connection to Cloud Storage
type gcsSession interface {
	Upload(ctx context.Context, bucket, object, path string) error
	SetContentType(ctx context.Context, bucket, object, contentType string) error
	Close() error
}

// sessionOpener opens a session from a service account credentials file
type sessionOpener func(ctx context.Context, credentialsFile string) (gcsSession, error)

// GCSUploader uploads to Google Cloud Storage. Credentials are read from the
// environment on every call, so rotating them does not need a restart.
type GCSUploader struct {
	credentialsEnv string
	lookupEnv      func(string) (string, bool)
	openSession    sessionOpener
	tempDir        string
	logger         *slog.Logger
}

// NewGCSUploader creates an uploader reading base64 credentials from credentialsEnv
func NewGCSUploader(credentialsEnv string, logger *slog.Logger) *GCSUploader {
	return &GCSUploader{
		credentialsEnv: credentialsEnv,
		lookupEnv:      os.LookupEnv,
		openSession:    openClientSession,
		logger:         logger,
	}
}

// Upload copies req.FilePath to gs://req.Bucket/req.ObjectName in a single attempt
func (u *GCSUploader) Upload(ctx context.Context, req UploadRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	credentials, err := u.credentials()
	if err != nil {
		return err
	}

	secretPath, err := u.writeSecret(credentials)
	if err != nil {
		return err
	}
	defer u.removeSecret(secretPath)

	session, err := u.openSession(ctx, secretPath)
	if err != nil {
		return &AuthError{Err: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			u.logger.Warn("Failed to close storage session", slog.String("error", err.Error()))
		}
	}()

	startTime := time.Now()
	if err := session.Upload(ctx, req.Bucket, req.ObjectName, req.FilePath); err != nil {
		return &UploadError{Bucket: req.Bucket, Object: req.ObjectName, Err: err}
	}

	// The object is already stored; a failed metadata update leaves it in place
	if err := session.SetContentType(ctx, req.Bucket, req.ObjectName, req.contentType()); err != nil {
		u.logger.Warn("Failed to set object content type",
			slog.String("bucket", req.Bucket),
			slog.String("object", req.ObjectName),
			slog.String("error", err.Error()),
		)
	}

	u.logger.Info("Uploaded object to GCS",
		slog.String("bucket", req.Bucket),
		slog.String("object", req.ObjectName),
		slog.Duration("duration", time.Since(startTime)),
	)

	return nil
}

// credentials decodes the service account JSON from the environment
func (u *GCSUploader) credentials() ([]byte, error) {
	encoded, ok := u.lookupEnv(u.credentialsEnv)
	if !ok || strings.TrimSpace(encoded) == "" {
		return nil, &ConfigError{Reason: ReasonCredentialsNotSet}
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, &ConfigError{Reason: ReasonBadCredentials, Err: fmt.Errorf("invalid base64: %w", err)}
	}

	var object map[string]any
	if err := json.Unmarshal(decoded, &object); err != nil {
		return nil, &ConfigError{Reason: ReasonBadCredentials, Err: fmt.Errorf("not a JSON object: %w", err)}
	}

	return decoded, nil
}

// writeSecret writes credentials to a private temp file and returns its path
func (u *GCSUploader) writeSecret(credentials []byte) (string, error) {
	// CreateTemp opens the file with mode 0600
	file, err := os.CreateTemp(u.tempDir, "gcs-credentials-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create credentials file: %w", err)
	}

	if _, err := file.Write(credentials); err != nil {
		file.Close()
		u.removeSecret(file.Name())
		return "", fmt.Errorf("failed to write credentials file: %w", err)
	}

	if err := file.Close(); err != nil {
		u.removeSecret(file.Name())
		return "", fmt.Errorf("failed to close credentials file: %w", err)
	}

	return file.Name(), nil
}

func (u *GCSUploader) removeSecret(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		u.logger.Error("Failed to remove credentials file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// clientSession wraps a Cloud Storage client
type clientSession struct {
	client *gcs.Client
}

func openClientSession(ctx context.Context, credentialsFile string) (gcsSession, error) {
	client, err := gcs.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	return &clientSession{client: client}, nil
}

func (s *clientSession) Upload(ctx context.Context, bucket, object, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handle := s.client.Bucket(bucket).Object(object).Retryer(gcs.WithPolicy(gcs.RetryNever))

	// ChunkSize 0 sends the object in one request
	writer := handle.NewWriter(ctx)
	writer.ChunkSize = 0

	if _, err := io.Copy(writer, file); err != nil {
		// Cancelling before Close aborts the partial upload
		cancel()
		writer.Close()
		return fmt.Errorf("failed to copy object data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize object: %w", err)
	}

	return nil
}

func (s *clientSession) SetContentType(ctx context.Context, bucket, object, contentType string) error {
	_, err := s.client.Bucket(bucket).Object(object).Update(ctx, gcs.ObjectAttrsToUpdate{
		ContentType: contentType,
	})
	return err
}

func (s *clientSession) Close() error {
	return s.client.Close()
}
