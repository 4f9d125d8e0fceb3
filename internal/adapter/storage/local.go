package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// LocalStorage keeps archives in a directory, mostly for development and
// for mounting network filesystems.
type LocalStorage struct {
	basePath string
}

func NewLocal(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (l *LocalStorage) List(ctx context.Context) ([]domain.Object, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}

	var objects []domain.Object
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, &domain.StoreError{Op: "list", Key: entry.Name(), Err: err}
		}
		objects = append(objects, domain.Object{
			Key:          entry.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}

	return objects, nil
}

func (l *LocalStorage) Put(ctx context.Context, localPath, key string) error {
	source, err := os.Open(localPath)
	if err != nil {
		return &domain.FilesystemError{Op: "open", Path: localPath, Err: err}
	}
	defer source.Close()

	if err := copyTo(l.GetPath(key), source); err != nil {
		return &domain.StoreError{Op: "put", Key: key, Err: err}
	}

	return nil
}

func (l *LocalStorage) Get(ctx context.Context, key, localPath string) error {
	source, err := os.Open(l.GetPath(key))
	if err != nil {
		return &domain.StoreError{Op: "get", Key: key, Err: err}
	}
	defer source.Close()

	if err := copyTo(localPath, source); err != nil {
		return &domain.FilesystemError{Op: "create", Path: localPath, Err: err}
	}

	return nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.GetPath(key)); err != nil {
		return &domain.StoreError{Op: "delete", Key: key, Err: err}
	}
	return nil
}

func (l *LocalStorage) GetPath(filename string) string {
	return filepath.Join(l.basePath, filepath.Base(filename))
}

func copyTo(path string, r io.Reader) error {
	dest, err := os.Create(path)
	if err != nil {
		return err
	}

	_, err = io.Copy(dest, r)
	if closeErr := dest.Close(); err == nil {
		err = closeErr
	}
	return err
}
