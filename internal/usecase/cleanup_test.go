package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

func archives(source string, n int, t0 time.Time) []domain.Object {
	objs := make([]domain.Object, 0, n)
	for i := 0; i < n; i++ {
		objs = append(objs, domain.Object{
			Key:          fmt.Sprintf("%s_2024_3_%d_%d.tar.gz", source, i+1, i+1),
			LastModified: t0.Add(time.Duration(i) * time.Hour),
		})
	}
	return objs
}

func TestRetention(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	Convey("Given three archives for orders, T1 < T2 < T3", t, func() {
		store := newFakeStore(archives("orders", 3, t0)...)
		uc := NewRetention(store, &recordingLogger{})

		Convey("When keeping two", func() {
			err := uc.Execute(ctx, "orders", 2)

			Convey("Then only the T1 archive is deleted", func() {
				So(err, ShouldBeNil)
				So(store.deletes, ShouldResemble, []string{"orders_2024_3_1_1.tar.gz"})
			})
		})

		Convey("When keeping as many as exist or more", func() {
			So(uc.Execute(ctx, "orders", 3), ShouldBeNil)
			So(uc.Execute(ctx, "orders", 10), ShouldBeNil)

			Convey("Then nothing is deleted", func() {
				So(store.deletes, ShouldBeEmpty)
			})
		})

		Convey("When keeping zero", func() {
			So(uc.Execute(ctx, "orders", 0), ShouldBeNil)

			Convey("Then every archive is deleted", func() {
				So(store.deletes, ShouldHaveLength, 3)
			})
		})
	})

	Convey("Given archives for several sources", t, func() {
		objs := append(archives("orders", 4, t0), archives("users", 4, t0)...)
		store := newFakeStore(objs...)
		uc := NewRetention(store, &recordingLogger{})

		err := uc.Execute(ctx, "users", 1)

		Convey("Then only the named source is trimmed", func() {
			So(err, ShouldBeNil)
			So(store.deletes, ShouldHaveLength, 3)
			for _, key := range store.deletes {
				So(key, ShouldStartWith, "users_")
			}
			So(store.deletes, ShouldNotContain, "users_2024_3_4_4.tar.gz")
		})
	})

	Convey("Given deletions that fail", t, func() {
		store := newFakeStore(archives("orders", 5, t0)...)
		first := &domain.StoreError{Op: "delete", Key: "orders_2024_3_2_2.tar.gz", StatusCode: 500}
		store.deleteErr["orders_2024_3_2_2.tar.gz"] = first
		store.deleteErr["orders_2024_3_1_1.tar.gz"] = &domain.StoreError{Op: "delete", StatusCode: 403}
		logger := &recordingLogger{}
		uc := NewRetention(store, logger)

		err := uc.Execute(ctx, "orders", 2)

		Convey("Then every deletion is attempted and the first failure is returned", func() {
			So(store.deletes, ShouldHaveLength, 3)
			var storeErr *domain.StoreError
			So(errors.As(err, &storeErr), ShouldBeTrue)
			So(storeErr, ShouldEqual, first)
			So(logger.errors, ShouldHaveLength, 2)
		})
	})

	Convey("Given a listing failure", t, func() {
		store := newFakeStore()
		store.listErr = errors.New("dial tcp: connection refused")
		uc := NewRetention(store, &recordingLogger{})

		Convey("Then the error is returned and nothing is deleted", func() {
			err := uc.Execute(ctx, "orders", 1)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "connection refused")
			So(store.deletes, ShouldBeEmpty)
		})
	})
}
