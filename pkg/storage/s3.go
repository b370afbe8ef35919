package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"car-share/pkg/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

var ErrInvalidPhotoURL = errors.New("invalid photo url")

// PhotoStore removes listing photos that were uploaded directly to object storage.
type PhotoStore interface {
	Delete(ctx context.Context, keys ...string) error
	KeyFromURL(rawURL string) (string, error)
}

// deleteAPI is the slice of the S3 client the store calls.
type deleteAPI interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

type S3PhotoStore struct {
	client  deleteAPI
	bucket  string
	timeout time.Duration
	log     *zap.Logger
}

func NewS3PhotoStore(ctx context.Context, cfg utils.StorageConfig, log *zap.Logger) (*S3PhotoStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return newS3PhotoStore(s3.NewFromConfig(awsCfg), cfg, log), nil
}

func newS3PhotoStore(client deleteAPI, cfg utils.StorageConfig, log *zap.Logger) *S3PhotoStore {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &S3PhotoStore{
		client:  client,
		bucket:  cfg.Bucket,
		timeout: timeout,
		log:     log.With(zap.String("storage", "s3")),
	}
}

// KeyFromURL returns the object key of a public photo URL, which is its last path segment.
func (s *S3PhotoStore) KeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhotoURL, rawURL)
	}

	key := path.Base(u.Path)
	if key == "" || key == "/" || key == "." {
		return "", fmt.Errorf("%w: %q has no key", ErrInvalidPhotoURL, rawURL)
	}

	return key, nil
}

func (s *S3PhotoStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	objects := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		s.log.Error("Failed to delete photos", zap.Error(err), zap.Strings("keys", keys))
		return fmt.Errorf("delete photos: %w", err)
	}

	if len(out.Errors) > 0 {
		failed := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			failed = append(failed, fmt.Sprintf("%s (%s)", aws.ToString(e.Key), aws.ToString(e.Code)))
		}
		s.log.Error("Some photos were not deleted", zap.Strings("failed", failed))
		return fmt.Errorf("delete photos: %d of %d failed: %s", len(failed), len(keys), strings.Join(failed, ", "))
	}

	s.log.Info("Photos deleted", zap.Int("count", len(keys)))
	return nil
}
