package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

type flakyStore struct {
	failures []error
	calls    int
}

func (f *flakyStore) next() error {
	f.calls++
	if len(f.failures) == 0 {
		return nil
	}
	err := f.failures[0]
	f.failures = f.failures[1:]
	return err
}

func (f *flakyStore) List(ctx context.Context) ([]domain.Object, error) {
	if err := f.next(); err != nil {
		return nil, err
	}
	return []domain.Object{{Key: "a.tar.gz"}}, nil
}

func (f *flakyStore) Put(ctx context.Context, localPath, key string) error { return f.next() }
func (f *flakyStore) Get(ctx context.Context, key, localPath string) error { return f.next() }
func (f *flakyStore) Delete(ctx context.Context, key string) error        { return f.next() }

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
}

func TestRetryableStorage(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store that fails transiently", t, func() {
		inner := &flakyStore{failures: []error{
			&domain.StoreError{Op: "list", StatusCode: 503},
			errors.New("connection reset"),
		}}
		store := NewRetryableStorage(inner, fastRetry(3), nil)

		Convey("When listing", func() {
			objects, err := store.List(ctx)

			Convey("Then it succeeds on the third attempt", func() {
				So(err, ShouldBeNil)
				So(objects, ShouldHaveLength, 1)
				So(inner.calls, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a store that keeps failing", t, func() {
		cause := &domain.StoreError{Op: "put", StatusCode: 500}
		inner := &flakyStore{failures: []error{cause, cause, cause}}
		store := NewRetryableStorage(inner, fastRetry(2), nil)

		Convey("Then the last error is returned, still matchable", func() {
			err := store.Put(ctx, "/tmp/a", "a")
			So(inner.calls, ShouldEqual, 2)
			var storeErr *domain.StoreError
			So(errors.As(err, &storeErr), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "after 2 attempts")
		})
	})

	Convey("Given non-transient failures", t, func() {
		Convey("A 403 is not retried", func() {
			inner := &flakyStore{failures: []error{&domain.StoreError{Op: "delete", StatusCode: 403}}}
			err := NewRetryableStorage(inner, fastRetry(3), nil).Delete(ctx, "a")
			So(err, ShouldNotBeNil)
			So(inner.calls, ShouldEqual, 1)
		})

		Convey("A missing local file is not retried", func() {
			inner := &flakyStore{failures: []error{&domain.FilesystemError{Op: "open", Path: "/tmp/a"}}}
			err := NewRetryableStorage(inner, fastRetry(3), nil).Put(ctx, "/tmp/a", "a")
			So(err, ShouldNotBeNil)
			So(inner.calls, ShouldEqual, 1)
		})

		Convey("A 429 is retried", func() {
			inner := &flakyStore{failures: []error{&domain.StoreError{Op: "get", StatusCode: 429}}}
			err := NewRetryableStorage(inner, fastRetry(3), nil).Get(ctx, "a", "/tmp/a")
			So(err, ShouldBeNil)
			So(inner.calls, ShouldEqual, 2)
		})
	})

	Convey("Given a cancelled context", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		inner := &flakyStore{failures: []error{errors.New("boom"), errors.New("boom")}}
		store := NewRetryableStorage(inner, RetryConfig{MaxAttempts: 3, InitialDelay: time.Hour}, nil)

		Convey("Then it stops waiting between attempts", func() {
			err := store.Delete(cctx, "a")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(inner.calls, ShouldEqual, 1)
		})
	})
}
