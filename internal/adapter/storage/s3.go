package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

type S3Config struct {
	AccessKey   string
	SecretKey   string
	Region      string
	Bucket      string
	Endpoint    string // S3-compatible endpoint, e.g. MinIO
	Destination string
	Encrypt     bool
	// MaxAttempts overrides the SDK's retryer when > 0.
	MaxAttempts int
}

type S3Storage struct {
	client     *s3.Client
	uploader   *s3manager.Uploader
	downloader *s3manager.Downloader
	bucket     string
	keys       keyspace
	encrypt    bool
}

// NewS3 creates a new S3Storage instance using AWS SDK v2
func NewS3(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, config.WithRetryMaxAttempts(cfg.MaxAttempts))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
			// most S3-compatible servers reject flexible checksum trailers
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})

	return &S3Storage{
		client:     client,
		uploader:   s3manager.NewUploader(client),
		downloader: s3manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		keys:       newKeyspace(cfg.Destination),
		encrypt:    cfg.Encrypt,
	}, nil
}

// List returns every object under the destination prefix, paging through
// the whole bucket listing.
func (s *S3Storage) List(ctx context.Context) ([]domain.Object, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
	}
	if p := s.keys.listPrefix(); p != "" {
		input.Prefix = aws.String(p)
	}

	var objects []domain.Object
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, storeError("list", "", err)
		}

		for _, obj := range page.Contents {
			name := s.keys.strip(aws.ToString(obj.Key))
			if name == "" {
				continue
			}
			objects = append(objects, domain.Object{
				Key:          name,
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return objects, nil
}

// Put uploads a local file. Large files go through multipart upload.
func (s *S3Storage) Put(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return &domain.FilesystemError{Op: "open", Path: localPath, Err: err}
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.keys.full(key)),
		Body:        file,
		ContentType: aws.String("application/gzip"),
	}
	if s.encrypt {
		input.ServerSideEncryption = types.ServerSideEncryptionAes256
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return storeError("put", key, err)
	}

	return nil
}

// Get downloads key into localPath. The file is closed before returning,
// whether or not the transfer succeeded.
func (s *S3Storage) Get(ctx context.Context, key, localPath string) error {
	file, err := os.Create(localPath)
	if err != nil {
		return &domain.FilesystemError{Op: "create", Path: localPath, Err: err}
	}

	_, err = s.downloader.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keys.full(key)),
	})
	closeErr := file.Close()

	if err != nil {
		return storeError("get", key, err)
	}
	if closeErr != nil {
		return &domain.FilesystemError{Op: "close", Path: localPath, Err: closeErr}
	}

	return nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keys.full(key)),
	})
	if err != nil {
		return storeError("delete", key, err)
	}

	return nil
}

// storeError extracts the HTTP status and service error body, when the SDK
// got that far, so failed requests can be reported precisely.
func storeError(op, key string, err error) *domain.StoreError {
	se := &domain.StoreError{Op: op, Key: key, Err: err}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		se.StatusCode = respErr.HTTPStatusCode()
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		se.Body = apiErr.ErrorCode()
		if msg := apiErr.ErrorMessage(); msg != "" {
			se.Body += ": " + msg
		}
	}

	return se
}
