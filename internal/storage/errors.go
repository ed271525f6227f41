package storage

import (
	"errors"
	"fmt"
)

// ConfigError reports missing or malformed storage configuration
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("storage configuration error: %s: %v", e.Reason, e.Err)
	}
	return "storage configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// AuthError reports that a storage session could not be opened with the supplied credentials
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("failed to authenticate with storage backend: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// UploadError reports a failed transfer of the object bytes
type UploadError struct {
	Bucket string
	Object string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s to bucket %s: %v", e.Object, e.Bucket, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// ErrorKind returns a short label for err, used in logs and metrics
func ErrorKind(err error) string {
	var (
		configErr *ConfigError
		authErr   *AuthError
		uploadErr *UploadError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &configErr):
		return "config"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &uploadErr):
		return "upload"
	default:
		return "unknown"
	}
}
