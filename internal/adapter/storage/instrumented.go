package storage

import (
	"context"
	"io"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/metrics"
)

// InstrumentedStorage counts every store call by outcome.
type InstrumentedStorage struct {
	store    domain.ObjectStore
	provider string
}

func NewInstrumentedStorage(store domain.ObjectStore, provider string) *InstrumentedStorage {
	return &InstrumentedStorage{store: store, provider: provider}
}

func (s *InstrumentedStorage) List(ctx context.Context) ([]domain.Object, error) {
	objects, err := s.store.List(ctx)
	metrics.RecordStorageOperation("list", s.provider, err == nil)
	return objects, err
}

func (s *InstrumentedStorage) Put(ctx context.Context, localPath, key string) error {
	err := s.store.Put(ctx, localPath, key)
	metrics.RecordStorageOperation("put", s.provider, err == nil)
	return err
}

func (s *InstrumentedStorage) Get(ctx context.Context, key, localPath string) error {
	err := s.store.Get(ctx, key, localPath)
	metrics.RecordStorageOperation("get", s.provider, err == nil)
	return err
}

func (s *InstrumentedStorage) Delete(ctx context.Context, key string) error {
	err := s.store.Delete(ctx, key)
	metrics.RecordStorageOperation("delete", s.provider, err == nil)
	return err
}

func (s *InstrumentedStorage) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
