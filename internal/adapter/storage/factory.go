package storage

import (
	"context"
	"fmt"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// NewStore builds the object store selected by store.Provider, wrapped with
// retries when more than one attempt is configured and with metrics.
// RetryableStorage is the only retry layer: the S3 client makes a single
// attempt per call.
func NewStore(ctx context.Context, store domain.Store, logger Logger) (domain.ObjectStore, error) {
	provider := store.Provider
	if provider == "" {
		provider = "s3"
	}

	var (
		s   domain.ObjectStore
		err error
	)

	switch provider {
	case "s3":
		s, err = NewS3(ctx, S3Config{
			AccessKey:   store.AccessKey,
			SecretKey:   store.SecretKey,
			Region:      store.Region,
			Bucket:      store.Bucket,
			Endpoint:    store.Endpoint,
			Destination: store.Destination,
			Encrypt:     store.Encrypt,
			MaxAttempts: 1,
		})
	case "gcs":
		s, err = NewGCS(ctx, GCSConfig{
			Bucket:          store.Bucket,
			ProjectID:       store.ProjectID,
			CredentialsFile: store.CredentialsFile,
			Destination:     store.Destination,
		})
	case "gdrive":
		s, err = NewGDrive(ctx, GDriveConfig{
			CredentialsFile: store.CredentialsFile,
			FolderID:        store.FolderID,
		})
	case "local":
		s, err = NewLocal(store.Path)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", provider, err)
	}

	if store.RetryAttempts > 1 {
		retry := DefaultRetryConfig()
		retry.MaxAttempts = store.RetryAttempts
		s = NewRetryableStorage(s, retry, logger)
	}

	return NewInstrumentedStorage(s, provider), nil
}
