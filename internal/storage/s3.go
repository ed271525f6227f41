package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Uploader uploads to Amazon S3 using the default AWS credential chain
type S3Uploader struct {
	client s3iface.S3API
	logger *slog.Logger
}

// NewS3Uploader creates an uploader for the given region
func NewS3Uploader(region string, logger *slog.Logger) (*S3Uploader, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:     aws.String(region),
		MaxRetries: aws.Int(0),
	})
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("failed to create AWS session: %w", err)}
	}

	return &S3Uploader{
		client: s3.New(sess),
		logger: logger,
	}, nil
}

// Upload puts req.FilePath to s3://req.Bucket/req.ObjectName in one request
func (u *S3Uploader) Upload(ctx context.Context, req UploadRequest) error {
	if err := req.validate(); err != nil {
		return err
	}

	file, err := os.Open(req.FilePath)
	if err != nil {
		return &UploadError{Bucket: req.Bucket, Object: req.ObjectName, Err: err}
	}
	defer file.Close()

	startTime := time.Now()
	_, err = u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(req.Bucket),
		Key:         aws.String(req.ObjectName),
		Body:        file,
		ContentType: aws.String(req.contentType()),
	})
	if err != nil {
		return &UploadError{Bucket: req.Bucket, Object: req.ObjectName, Err: err}
	}

	u.logger.Info("Uploaded object to S3",
		slog.String("bucket", req.Bucket),
		slog.String("object", req.ObjectName),
		slog.Duration("duration", time.Since(startTime)),
	)

	return nil
}
