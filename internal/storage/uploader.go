package storage

import "context"

// ContentTypeWAV is the content type recorded on every uploaded object
const ContentTypeWAV = "audio/wav"

// UploadRequest describes one object to upload
type UploadRequest struct {
	Bucket      string
	ObjectName  string
	FilePath    string
	ContentType string
}

// Uploader copies a local file to a bucket. Implementations return
// *ConfigError, *AuthError or *UploadError.
type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) error
}

// validate checks the fields every backend needs
func (r UploadRequest) validate() error {
	switch {
	case r.Bucket == "":
		return &ConfigError{Reason: "bucket name not set"}
	case r.ObjectName == "":
		return &ConfigError{Reason: "object name not set"}
	case r.FilePath == "":
		return &ConfigError{Reason: "file path not set"}
	}
	return nil
}

func (r UploadRequest) contentType() string {
	if r.ContentType == "" {
		return ContentTypeWAV
	}
	return r.ContentType
}
