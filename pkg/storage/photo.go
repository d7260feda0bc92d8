package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/noah-isme/facility-report-api/pkg/config"
)

var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// PhotoUpload is a presigned direct-upload target for a report photo.
type PhotoUpload struct {
	UploadURL string    `json:"uploadUrl"`
	PhotoURL  string    `json:"photoUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type presignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*presignedRequest, error)
}

// presignedRequest mirrors the subset of v4.PresignedHTTPRequest the signer needs.
type presignedRequest struct {
	URL string
}

type s3Presigner struct {
	client *s3.PresignClient
}

func (p s3Presigner) PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*presignedRequest, error) {
	req, err := p.client.PresignPutObject(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}
	return &presignedRequest{URL: req.URL}, nil
}

// PhotoSigner issues presigned PUT URLs so clients upload report photos straight to the bucket.
type PhotoSigner struct {
	presigner   presignAPI
	bucket      string
	publicBase  string
	ttl         time.Duration
	maxFileSize int64
	now         func() time.Time
}

// NewPhotoSigner builds a signer against an S3 compatible endpoint using static credentials.
func NewPhotoSigner(cfg config.StorageConfig) *PhotoSigner {
	opts := s3.Options{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	client := s3.New(opts)

	ttl := cfg.UploadURLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PhotoSigner{
		presigner:   s3Presigner{client: s3.NewPresignClient(client)},
		bucket:      cfg.Bucket,
		publicBase:  strings.TrimRight(cfg.PublicBaseURL, "/"),
		ttl:         ttl,
		maxFileSize: cfg.MaxFileSize,
		now:         time.Now,
	}
}

// ValidatePhoto checks the declared content type and size before a URL is issued.
func (s *PhotoSigner) ValidatePhoto(contentType string, size int64) error {
	if _, ok := allowedPhotoTypes[strings.ToLower(contentType)]; !ok {
		return fmt.Errorf("unsupported content type %q", contentType)
	}
	if size <= 0 {
		return fmt.Errorf("file size must be positive")
	}
	if s.maxFileSize > 0 && size > s.maxFileSize {
		return fmt.Errorf("file size %d exceeds limit %d", size, s.maxFileSize)
	}
	return nil
}

// PresignPhoto returns an upload URL for a new object owned by ownerID.
func (s *PhotoSigner) PresignPhoto(ctx context.Context, ownerID, contentType string, size int64) (*PhotoUpload, error) {
	if err := s.ValidatePhoto(contentType, size); err != nil {
		return nil, err
	}
	key := s.objectKey(ownerID, contentType)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, func(o *s3.PresignOptions) {
		o.Expires = s.ttl
	})
	if err != nil {
		return nil, fmt.Errorf("presign photo upload: %w", err)
	}
	return &PhotoUpload{
		UploadURL: req.URL,
		PhotoURL:  s.publicURL(key),
		Key:       key,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}, nil
}

func (s *PhotoSigner) objectKey(ownerID, contentType string) string {
	ext := allowedPhotoTypes[strings.ToLower(contentType)]
	day := s.now().UTC().Format("2006/01/02")
	return path.Join("reports", ownerID, day, uuid.NewString()+ext)
}

func (s *PhotoSigner) publicURL(key string) string {
	if s.publicBase == "" {
		return fmt.Sprintf("s3://%s/%s", s.bucket, key)
	}
	return s.publicBase + "/" + key
}
