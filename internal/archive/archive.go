// Package archive keeps a copy of the queue each time it is cleared.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"translation-queue/internal/config"
	"translation-queue/internal/models"
)

const keyPrefix = "queue-archive/"

type uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// Archiver writes one JSON snapshot per clear.
type Archiver struct {
	up  uploader
	now func() time.Time
}

type snapshot struct {
	ClearedAt time.Time    `json:"cleared_at"`
	Jobs      []models.Job `json:"jobs"`
}

// New picks S3 when a bucket is configured, then a local directory. It
// returns nil, nil when neither is set so callers can skip archiving.
func New(ctx context.Context, cfg config.Config) (*Archiver, error) {
	switch {
	case cfg.ArchiveS3Bucket != "":
		client, err := newS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Archiver{up: &s3Uploader{client: client, bucket: cfg.ArchiveS3Bucket}, now: utcNow}, nil
	case cfg.ArchiveDir != "":
		return NewLocal(cfg.ArchiveDir), nil
	default:
		return nil, nil
	}
}

// NewLocal archives into baseDir.
func NewLocal(baseDir string) *Archiver {
	return &Archiver{up: &localUploader{baseDir: baseDir}, now: utcNow}
}

func utcNow() time.Time { return time.Now().UTC() }

func newS3Client(ctx context.Context, cfg config.Config) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.ArchiveS3Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.ArchiveS3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ArchiveS3Endpoint)
		}
		o.UsePathStyle = cfg.ArchiveS3PathStyle
	}), nil
}

// Archive stores jobs under a timestamped key and returns nothing but errors.
func (a *Archiver) Archive(ctx context.Context, jobs []models.Job) error {
	if a == nil || a.up == nil {
		return errors.New("archive: no destination configured")
	}
	at := a.now()
	body, err := json.MarshalIndent(snapshot{ClearedAt: at, Jobs: jobs}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode archive: %w", err)
	}
	key := keyPrefix + at.Format("20060102T150405.000000000Z") + ".json"
	if _, err := a.up.Upload(ctx, key, body, "application/json"); err != nil {
		return fmt.Errorf("upload archive: %w", err)
	}
	return nil
}

func sanitizeKey(key string) string {
	key = filepath.Clean(key)
	key = strings.TrimPrefix(key, string(filepath.Separator))
	key = strings.TrimPrefix(key, "./")
	return key
}

type localUploader struct {
	baseDir string
}

func (l *localUploader) Upload(_ context.Context, key string, body []byte, _ string) (string, error) {
	path := filepath.Join(l.baseDir, sanitizeKey(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create dirs: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

type s3Uploader struct {
	client *s3.Client
	bucket string
}

func (s *s3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(sanitizeKey(key)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
