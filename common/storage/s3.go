package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// S3Config holds connection settings for an S3-compatible endpoint
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKeyID   string
	SecretKey     string
	UsePathStyle  bool
	PublicBaseURL string
}

// s3API is the subset of the S3 client used by S3Store
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store implements ObjectStore on top of aws-sdk-go-v2
type S3Store struct {
	client    s3API
	bucket    string
	publicURL string
}

// NewS3Store creates an S3-backed store
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3StoreWithClient(client, cfg.Bucket, cfg.PublicBaseURL), nil
}

func newS3StoreWithClient(client s3API, bucket, publicURL string) *S3Store {
	return &S3Store{
		client:    client,
		bucket:    bucket,
		publicURL: publicURL,
	}
}

// List implements ObjectStore with a single ListObjectsV2 call
func (s *S3Store) List(ctx context.Context, prefix string, opts ListOptions) (ListPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	if opts.PageSize > 0 {
		input.MaxKeys = aws.Int32(int32(opts.PageSize))
	}
	if opts.ContinuationToken != "" {
		input.ContinuationToken = aws.String(opts.ContinuationToken)
	}

	out, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return ListPage{}, &Error{
			Op:   "list " + prefix,
			Type: ClassifyError(err),
			Err:  err,
		}
	}

	page := ListPage{
		Objects:   make([]Object, 0, len(out.Contents)),
		Truncated: aws.ToBool(out.IsTruncated),
		NextToken: aws.ToString(out.NextContinuationToken),
	}
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		listed := Object{
			Key:  key,
			Name: strings.TrimPrefix(key, prefix),
			Size: aws.ToInt64(obj.Size),
		}
		if obj.LastModified != nil {
			listed.LastModified = *obj.LastModified
		}
		page.Objects = append(page.Objects, listed)
	}

	return page, nil
}

// Upload implements ObjectStore
func (s *S3Store) Upload(ctx context.Context, path string, body io.Reader, size int64, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
		Body:   body,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return &Error{
			Op:   "upload " + path,
			Type: ClassifyError(err),
			Err:  err,
		}
	}
	return nil
}

// PublicURL implements ObjectStore
func (s *S3Store) PublicURL(path string) string {
	if s.publicURL == "" {
		return path
	}
	return joinURL(s.publicURL, path)
}

// ClassifyError maps an S3 client error onto an ErrorType
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return ErrorTypeNotFound
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return ErrorTypeAccessDenied
		case "InternalError", "ServiceUnavailable", "SlowDown", "RequestTimeout":
			return ErrorTypeTemporary
		}
	}

	var httpErr *smithyhttp.ResponseError
	if errors.As(err, &httpErr) {
		switch httpErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return ErrorTypeNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrorTypeAccessDenied
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return ErrorTypeTemporary
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTemporary
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network") {
		return ErrorTypeTemporary
	}

	return ErrorTypeUnknown
}
