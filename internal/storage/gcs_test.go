package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// fakeSession records calls made by GCSUploader
type fakeSession struct {
	uploadErr      error
	contentTypeErr error

	uploaded    []byte
	contentType string
	closed      bool
}

func (s *fakeSession) Upload(ctx context.Context, bucket, object, path string) error {
	if s.uploadErr != nil {
		return s.uploadErr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s.uploaded = data
	return nil
}

func (s *fakeSession) SetContentType(ctx context.Context, bucket, object, contentType string) error {
	if s.contentTypeErr != nil {
		return s.contentTypeErr
	}
	s.contentType = contentType
	return nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

const validCredentials = `{"type":"service_account","project_id":"test"}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestGCSUploader returns an uploader whose secret files land in a temp dir
func newTestGCSUploader(t *testing.T, env map[string]string, session *fakeSession, openErr error) (*GCSUploader, string, *string) {
	t.Helper()

	secretDir := t.TempDir()
	var secretSeen string

	u := NewGCSUploader("CREDS", discardLogger())
	u.tempDir = secretDir
	u.lookupEnv = func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	u.openSession = func(ctx context.Context, credentialsFile string) (gcsSession, error) {
		secretSeen = credentialsFile

		info, err := os.Stat(credentialsFile)
		if err != nil {
			t.Errorf("Credentials file missing while opening session: %v", err)
		} else if info.Mode().Perm() != 0o600 {
			t.Errorf("Expected credentials file mode 0600, got %v", info.Mode().Perm())
		}

		if openErr != nil {
			return nil, openErr
		}
		return session, nil
	}

	return u, secretDir, &secretSeen
}

func writeObject(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.wav")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("Failed to write object: %v", err)
	}
	return path
}

func assertNoSecrets(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read secret dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no credentials files left behind, found %d", len(entries))
	}
}

func TestGCSUploaderSuccess(t *testing.T) {
	session := &fakeSession{}
	env := map[string]string{"CREDS": base64.StdEncoding.EncodeToString([]byte(validCredentials))}
	u, secretDir, secretSeen := newTestGCSUploader(t, env, session, nil)

	path := writeObject(t, []byte("RIFF....WAVE"))
	err := u.Upload(context.Background(), UploadRequest{
		Bucket:     "recordings",
		ObjectName: "19_10_2026_14_03_07_voice.wav",
		FilePath:   path,
	})
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if string(session.uploaded) != "RIFF....WAVE" {
		t.Errorf("Unexpected uploaded bytes %q", session.uploaded)
	}
	if session.contentType != ContentTypeWAV {
		t.Errorf("Expected content type %s, got %s", ContentTypeWAV, session.contentType)
	}
	if !session.closed {
		t.Error("Expected session to be closed")
	}
	if *secretSeen == "" {
		t.Error("Expected session to be opened with a credentials file")
	}
	assertNoSecrets(t, secretDir)
}

func TestGCSUploaderConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		env    map[string]string
		reason string
	}{
		{"unset", map[string]string{}, ReasonCredentialsNotSet},
		{"empty", map[string]string{"CREDS": ""}, ReasonCredentialsNotSet},
		{"not base64", map[string]string{"CREDS": "%%%not-base64%%%"}, ReasonBadCredentials},
		{"not json", map[string]string{"CREDS": base64.StdEncoding.EncodeToString([]byte("hello"))}, ReasonBadCredentials},
		{"json array", map[string]string{"CREDS": base64.StdEncoding.EncodeToString([]byte("[1,2]"))}, ReasonBadCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := &fakeSession{}
			u, secretDir, secretSeen := newTestGCSUploader(t, tt.env, session, nil)

			err := u.Upload(context.Background(), UploadRequest{
				Bucket:     "recordings",
				ObjectName: "clip.wav",
				FilePath:   writeObject(t, []byte("data")),
			})

			var configErr *ConfigError
			if !errors.As(err, &configErr) {
				t.Fatalf("Expected ConfigError, got %v", err)
			}
			if configErr.Reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, configErr.Reason)
			}
			if *secretSeen != "" {
				t.Error("Expected no session to be opened")
			}
			assertNoSecrets(t, secretDir)
		})
	}
}

func TestGCSUploaderAuthError(t *testing.T) {
	env := map[string]string{"CREDS": base64.StdEncoding.EncodeToString([]byte(validCredentials))}
	u, secretDir, _ := newTestGCSUploader(t, env, nil, errors.New("invalid_grant"))

	err := u.Upload(context.Background(), UploadRequest{
		Bucket:     "recordings",
		ObjectName: "clip.wav",
		FilePath:   writeObject(t, []byte("data")),
	})

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("Expected AuthError, got %v", err)
	}
	if ErrorKind(err) != "auth" {
		t.Errorf("Expected kind auth, got %s", ErrorKind(err))
	}
	assertNoSecrets(t, secretDir)
}

func TestGCSUploaderUploadError(t *testing.T) {
	session := &fakeSession{uploadErr: errors.New("connection reset")}
	env := map[string]string{"CREDS": base64.StdEncoding.EncodeToString([]byte(validCredentials))}
	u, secretDir, _ := newTestGCSUploader(t, env, session, nil)

	err := u.Upload(context.Background(), UploadRequest{
		Bucket:     "recordings",
		ObjectName: "clip.wav",
		FilePath:   writeObject(t, []byte("data")),
	})

	var uploadErr *UploadError
	if !errors.As(err, &uploadErr) {
		t.Fatalf("Expected UploadError, got %v", err)
	}
	if uploadErr.Object != "clip.wav" || uploadErr.Bucket != "recordings" {
		t.Errorf("Unexpected error target %s/%s", uploadErr.Bucket, uploadErr.Object)
	}
	if session.contentType != "" {
		t.Error("Expected no metadata update after a failed upload")
	}
	if !session.closed {
		t.Error("Expected session to be closed after a failed upload")
	}
	assertNoSecrets(t, secretDir)
}

func TestGCSUploaderContentTypeFailureIsIgnored(t *testing.T) {
	session := &fakeSession{contentTypeErr: errors.New("permission denied")}
	env := map[string]string{"CREDS": base64.StdEncoding.EncodeToString([]byte(validCredentials))}
	u, secretDir, _ := newTestGCSUploader(t, env, session, nil)

	err := u.Upload(context.Background(), UploadRequest{
		Bucket:     "recordings",
		ObjectName: "clip.wav",
		FilePath:   writeObject(t, []byte("data")),
	})
	if err != nil {
		t.Fatalf("Expected success despite metadata failure, got %v", err)
	}
	if string(session.uploaded) != "data" {
		t.Error("Expected object to be uploaded")
	}
	assertNoSecrets(t, secretDir)
}

func TestUploadRequestValidation(t *testing.T) {
	u := NewGCSUploader("CREDS", discardLogger())

	tests := []UploadRequest{
		{ObjectName: "clip.wav", FilePath: "/tmp/clip.wav"},
		{Bucket: "recordings", FilePath: "/tmp/clip.wav"},
		{Bucket: "recordings", ObjectName: "clip.wav"},
	}

	for _, req := range tests {
		err := u.Upload(context.Background(), req)
		if ErrorKind(err) != "config" {
			t.Errorf("Expected config error for %+v, got %v", req, err)
		}
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err    error
		expect string
	}{
		{nil, ""},
		{&ConfigError{Reason: "x"}, "config"},
		{&AuthError{Err: errors.New("x")}, "auth"},
		{&UploadError{Err: errors.New("x")}, "upload"},
		{errors.New("x"), "unknown"},
	}

	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.expect {
			t.Errorf("ErrorKind(%v): expected %q, got %q", tt.err, tt.expect, got)
		}
	}
}
