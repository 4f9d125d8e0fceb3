package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// RetryConfig holds retry configuration for storage operations.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

type Logger interface {
	Warnf(format string, args ...interface{})
}

// RetryableStorage wraps an ObjectStore and retries transient failures with
// exponential backoff. Local filesystem errors and 4xx responses other than
// 429 are returned immediately.
type RetryableStorage struct {
	store  domain.ObjectStore
	config RetryConfig
	logger Logger
}

func NewRetryableStorage(store domain.ObjectStore, config RetryConfig, logger Logger) *RetryableStorage {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	return &RetryableStorage{
		store:  store,
		config: config,
		logger: logger,
	}
}

func (r *RetryableStorage) List(ctx context.Context) ([]domain.Object, error) {
	var result []domain.Object
	err := r.retry(ctx, "list", func() error {
		var err error
		result, err = r.store.List(ctx)
		return err
	})
	return result, err
}

func (r *RetryableStorage) Put(ctx context.Context, localPath, key string) error {
	return r.retry(ctx, "put", func() error {
		return r.store.Put(ctx, localPath, key)
	})
}

func (r *RetryableStorage) Get(ctx context.Context, key, localPath string) error {
	return r.retry(ctx, "get", func() error {
		return r.store.Get(ctx, key, localPath)
	})
}

func (r *RetryableStorage) Delete(ctx context.Context, key string) error {
	return r.retry(ctx, "delete", func() error {
		return r.store.Delete(ctx, key)
	})
}

func (r *RetryableStorage) Close() error {
	if c, ok := r.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *RetryableStorage) retry(ctx context.Context, op string, fn func() error) error {
	delay := r.config.InitialDelay

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		if attempt >= r.config.MaxAttempts || !retryable(err) {
			if attempt > 1 {
				return fmt.Errorf("%s failed after %d attempts: %w", op, attempt, err)
			}
			return err
		}

		if r.logger != nil {
			r.logger.Warnf("Storage %s failed (attempt %d/%d), retrying in %s: %v",
				op, attempt, r.config.MaxAttempts, delay, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * r.config.Multiplier)
		if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
			delay = r.config.MaxDelay
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var fsErr *domain.FilesystemError
	if errors.As(err, &fsErr) {
		return false
	}

	var storeErr *domain.StoreError
	if errors.As(err, &storeErr) && storeErr.StatusCode >= 400 && storeErr.StatusCode < 500 {
		return storeErr.StatusCode == http.StatusTooManyRequests
	}

	return true
}
