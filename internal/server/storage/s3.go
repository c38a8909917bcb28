package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/asthmaguard/internal/common"
	"github.com/dmitrijs2005/asthmaguard/internal/server/config"
	"github.com/dmitrijs2005/asthmaguard/internal/server/models"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Presigner is the subset of *s3.PresignClient used by S3Store.
type Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Store keeps reports in an S3-compatible bucket. Retrieval paths are
// answered with a redirect to a short-lived presigned GET URL.
type S3Store struct {
	client     S3API
	presigner  Presigner
	bucket     string
	presignTTL time.Duration
	layout
}

// NewS3Store builds a client for the configured endpoint with static
// credentials. Path-style addressing keeps MinIO deployments working.
func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return NewS3StoreWithClient(client, s3.NewPresignClient(client), cfg.S3Bucket, cfg.StaticPrefix, cfg.ReportsDir, cfg.S3PresignTTL), nil
}

// NewS3StoreWithClient wires an S3Store around existing clients.
func NewS3StoreWithClient(client S3API, presigner Presigner, bucket, prefix, reportsDir string, presignTTL time.Duration) *S3Store {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	return &S3Store{
		client:     client,
		presigner:  presigner,
		bucket:     bucket,
		presignTTL: presignTTL,
		layout:     newLayout(prefix, reportsDir),
	}
}

func (s *S3Store) Save(ctx context.Context, userID string, doc *models.Document) (string, error) {
	key, retrievalPath, err := s.newKey(userID, doc.Name)
	if err != nil {
		return "", err
	}

	// the SDK needs a seekable body to sign plain-HTTP uploads
	body, ok := doc.Body.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(doc.Body)
		if err != nil {
			return "", fmt.Errorf("storage error: %w", err)
		}
		body = bytes.NewReader(b)
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if doc.ContentType != "" {
		in.ContentType = aws.String(doc.ContentType)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("storage error: %w", err)
	}
	return retrievalPath, nil
}

func (s *S3Store) Open(ctx context.Context, retrievalPath string) (io.ReadCloser, error) {
	key, err := s.keyOf(retrievalPath)
	if err != nil {
		return nil, err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, retrievalPath)
		}
		return nil, fmt.Errorf("storage error: %w", err)
	}
	return out.Body, nil
}

func (s *S3Store) Delete(ctx context.Context, retrievalPath string) error {
	key, err := s.keyOf(retrievalPath)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage error: %w", err)
	}
	return nil
}

func (s *S3Store) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, err := s.keyOf(r.URL.Path)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		req, err := s.presigner.PresignGetObject(r.Context(), &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(s.presignTTL))
		if err != nil {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, req.URL, http.StatusFound)
	})
}
