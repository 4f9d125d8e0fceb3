package domain

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestArchiveName(t *testing.T) {
	Convey("Given a source name and a timestamp", t, func() {
		now := time.Date(2024, time.March, 7, 10, 30, 0, 123_000_000, time.UTC)

		Convey("It should join name, date fields and epoch millis", func() {
			So(ArchiveName("orders", now), ShouldEqual, "orders_2024_3_7_1709807400123.tar.gz")
		})

		Convey("It should produce distinct names for distinct milliseconds", func() {
			later := now.Add(time.Millisecond)
			So(ArchiveName("orders", now), ShouldNotEqual, ArchiveName("orders", later))
		})

		Convey("It should be deterministic", func() {
			So(ArchiveName("orders", now), ShouldEqual, ArchiveName("orders", now))
		})
	})
}

func TestLatestArchive(t *testing.T) {
	Convey("Given a bucket listing", t, func() {
		t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		objects := []Object{
			{Key: "orders_2024_1_1_1.tar.gz", LastModified: t1},
			{Key: "users_2024_1_3_3.tar.gz", LastModified: t1.Add(72 * time.Hour)},
			{Key: "orders_2024_1_2_2.tar.gz", LastModified: t1.Add(24 * time.Hour)},
			{Key: "old_orders_2023.tar.gz", LastModified: t1.Add(-24 * time.Hour)},
		}

		Convey("It should return the newest object containing the source name", func() {
			obj, err := LatestArchive(objects, "orders")
			So(err, ShouldBeNil)
			So(obj.Key, ShouldEqual, "orders_2024_1_2_2.tar.gz")
		})

		Convey("It should match on substring, not prefix", func() {
			matched := MatchingArchives(objects, "orders")
			So(len(matched), ShouldEqual, 3)
			So(matched[2].Key, ShouldEqual, "old_orders_2023.tar.gz")
		})

		Convey("It should report ErrNotFound when nothing matches", func() {
			_, err := LatestArchive(objects, "inventory")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})

		Convey("It should report ErrNotFound for an empty listing", func() {
			_, err := LatestArchive(nil, "orders")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
		})
	})
}
