// Package metrics exposes Prometheus collectors for backup and restore runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunAttempts counts backup, restore and cleanup runs per database.
	RunAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mongo_backup_runs_total",
		Help: "Total number of backup, restore and cleanup runs",
	}, []string{"operation", "db", "status"})

	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mongo_backup_run_duration_seconds",
		Help:    "Duration of backup and restore runs in seconds",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
	}, []string{"operation", "db"})

	ArchiveSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mongo_backup_archive_size_bytes",
		Help: "Size of the last archive uploaded per database",
	}, []string{"db"})

	LastSuccessTimestamp = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mongo_backup_last_success_timestamp",
		Help: "Unix timestamp of the last successful backup per database",
	}, []string{"db"})

	StorageOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mongo_backup_storage_operations_total",
		Help: "Total number of object store operations",
	}, []string{"operation", "provider", "status"})

	ArchivesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mongo_backup_archives_deleted_total",
		Help: "Total number of old archives deleted by retention",
	}, []string{"db"})

	// SkippedRuns counts scheduled ticks dropped because a run was in progress.
	SkippedRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mongo_backup_skipped_runs_total",
		Help: "Total number of scheduled runs skipped while another was in progress",
	})
)

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordRun records one backup, restore or cleanup run.
func RecordRun(operation, db string, started time.Time, success bool) {
	RunAttempts.WithLabelValues(operation, db, status(success)).Inc()
	if operation != "cleanup" {
		RunDuration.WithLabelValues(operation, db).Observe(time.Since(started).Seconds())
	}
	if success && operation == "backup" {
		LastSuccessTimestamp.WithLabelValues(db).Set(float64(time.Now().Unix()))
	}
}

func RecordArchiveSize(db string, size int64) {
	ArchiveSize.WithLabelValues(db).Set(float64(size))
}

// RecordStorageOperation records a storage operation.
func RecordStorageOperation(operation, provider string, success bool) {
	StorageOperations.WithLabelValues(operation, provider, status(success)).Inc()
}

func RecordArchivesDeleted(db string, n int) {
	ArchivesDeleted.WithLabelValues(db).Add(float64(n))
}
