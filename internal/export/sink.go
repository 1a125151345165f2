package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

// Sink stores a finished export and returns where it went.
type Sink interface {
	Put(ctx context.Context, name, contentType string, data []byte) (string, error)
}

// IOError reports that an export destination could not be written.
// Nothing is retried and a partially written file may remain.
type IOError struct {
	Location string
	Err      error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("export: write %s: %v", e.Location, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FileSink writes exports into a local directory.
type FileSink struct {
	Dir string
}

// NewFileSink returns a sink writing into dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

// Put creates (or truncates) Dir/name.
func (s *FileSink) Put(_ context.Context, name, _ string, data []byte) (string, error) {
	path := filepath.Join(s.Dir, filepath.Base(name))
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", &IOError{Location: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", &IOError{Location: path, Err: err}
	}
	return path, nil
}

// S3API is the subset of the S3 client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads exports to a bucket, optionally under a key prefix.
type S3Sink struct {
	client S3API
	bucket string
	prefix string
	logger *logging.Logger
}

// NewS3Sink returns a sink uploading to bucket.
func NewS3Sink(client S3API, bucket, prefix string, logger *logging.Logger) *S3Sink {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), logger: logger}
}

// Put uploads data and returns its s3:// URI.
func (s *S3Sink) Put(ctx context.Context, name, contentType string, data []byte) (string, error) {
	key := name
	if s.prefix != "" {
		key = s.prefix + "/" + name
	}
	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", &IOError{Location: location, Err: err}
	}

	s.logger.Info("export uploaded", "bucket", s.bucket, "key", key, "bytes", len(data))
	return location, nil
}
