package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string // falls back to application default credentials
	Destination     string
}

// GCSStorage stores archives in a Google Cloud Storage bucket.
type GCSStorage struct {
	client *storage.Client
	bucket string
	keys   keyspace
}

func NewGCS(ctx context.Context, cfg GCSConfig) (*GCSStorage, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSStorage{
		client: client,
		bucket: cfg.Bucket,
		keys:   newKeyspace(cfg.Destination),
	}, nil
}

func (g *GCSStorage) List(ctx context.Context) ([]domain.Object, error) {
	var objects []domain.Object

	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: g.keys.listPrefix()})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, gcsError("list", "", err)
		}

		name := g.keys.strip(attrs.Name)
		if name == "" {
			continue
		}
		objects = append(objects, domain.Object{
			Key:          name,
			Size:         attrs.Size,
			LastModified: attrs.Updated,
		})
	}

	return objects, nil
}

func (g *GCSStorage) Put(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return &domain.FilesystemError{Op: "open", Path: localPath, Err: err}
	}
	defer file.Close()

	w := g.client.Bucket(g.bucket).Object(g.keys.full(key)).NewWriter(ctx)
	w.ContentType = "application/gzip"

	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return gcsError("put", key, err)
	}

	// the upload is only committed on Close
	if err := w.Close(); err != nil {
		return gcsError("put", key, err)
	}

	return nil
}

func (g *GCSStorage) Get(ctx context.Context, key, localPath string) error {
	r, err := g.client.Bucket(g.bucket).Object(g.keys.full(key)).NewReader(ctx)
	if err != nil {
		return gcsError("get", key, err)
	}
	defer r.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return &domain.FilesystemError{Op: "create", Path: localPath, Err: err}
	}

	_, err = io.Copy(file, r)
	closeErr := file.Close()

	if err != nil {
		return gcsError("get", key, err)
	}
	if closeErr != nil {
		return &domain.FilesystemError{Op: "close", Path: localPath, Err: closeErr}
	}

	return nil
}

func (g *GCSStorage) Delete(ctx context.Context, key string) error {
	if err := g.client.Bucket(g.bucket).Object(g.keys.full(key)).Delete(ctx); err != nil {
		return gcsError("delete", key, err)
	}
	return nil
}

// Close closes the GCS client connection.
func (g *GCSStorage) Close() error {
	return g.client.Close()
}

func gcsError(op, key string, err error) *domain.StoreError {
	se := &domain.StoreError{Op: op, Key: key, Err: err}

	var apiErr *googleapi.Error
	switch {
	case errors.As(err, &apiErr):
		se.StatusCode = apiErr.Code
		se.Body = apiErr.Message
	case errors.Is(err, storage.ErrObjectNotExist):
		se.StatusCode = http.StatusNotFound
	}

	return se
}
