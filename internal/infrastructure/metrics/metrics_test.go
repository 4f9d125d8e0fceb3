package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRecordRun(t *testing.T) {
	Convey("Given a successful backup run", t, func() {
		before := testutil.ToFloat64(RunAttempts.WithLabelValues("backup", "metrics_db", "success"))
		RecordRun("backup", "metrics_db", time.Now().Add(-time.Second), true)

		Convey("Then the success counter and timestamp move", func() {
			So(testutil.ToFloat64(RunAttempts.WithLabelValues("backup", "metrics_db", "success")), ShouldEqual, before+1)
			So(testutil.ToFloat64(LastSuccessTimestamp.WithLabelValues("metrics_db")), ShouldBeGreaterThan, 0.0)
		})
	})

	Convey("Given a failed restore run", t, func() {
		RecordRun("restore", "metrics_failed", time.Now(), false)

		Convey("Then only the failure counter moves", func() {
			So(testutil.ToFloat64(RunAttempts.WithLabelValues("restore", "metrics_failed", "failure")), ShouldEqual, 1.0)
			So(testutil.ToFloat64(LastSuccessTimestamp.WithLabelValues("metrics_failed")), ShouldEqual, 0.0)
		})
	})
}

func TestRecordStorageOperation(t *testing.T) {
	Convey("Given storage operations", t, func() {
		RecordStorageOperation("put", "metrics_test", true)
		RecordStorageOperation("put", "metrics_test", false)
		RecordStorageOperation("put", "metrics_test", false)

		So(testutil.ToFloat64(StorageOperations.WithLabelValues("put", "metrics_test", "success")), ShouldEqual, 1.0)
		So(testutil.ToFloat64(StorageOperations.WithLabelValues("put", "metrics_test", "failure")), ShouldEqual, 2.0)
	})
}

func TestRecordArchives(t *testing.T) {
	Convey("Given archive bookkeeping", t, func() {
		RecordArchiveSize("metrics_sized", 2048)
		RecordArchivesDeleted("metrics_sized", 3)

		So(testutil.ToFloat64(ArchiveSize.WithLabelValues("metrics_sized")), ShouldEqual, 2048.0)
		So(testutil.ToFloat64(ArchivesDeleted.WithLabelValues("metrics_sized")), ShouldEqual, 3.0)
	})
}
