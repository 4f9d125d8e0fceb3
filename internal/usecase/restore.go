package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/metrics"
)

// Restore downloads the newest archive of a database and loads it back.
type Restore struct {
	db         domain.Database
	compressor domain.Compressor
	store      domain.ObjectStore
	workspaces Workspaces
	logger     Logger
}

func NewRestore(
	db domain.Database,
	compressor domain.Compressor,
	store domain.ObjectStore,
	workspaces Workspaces,
	logger Logger,
) *Restore {
	return &Restore{
		db:         db,
		compressor: compressor,
		store:      store,
		workspaces: workspaces,
		logger:     logger,
	}
}

// Execute restores src from its latest archive and returns the archive key.
// When no archive matches, it returns an error wrapping domain.ErrNotFound
// before anything is written locally.
func (uc *Restore) Execute(ctx context.Context, src domain.Source) (string, error) {
	start := time.Now()
	dbName := src.DB

	uc.logger.Infof("[%s] Looking for the latest archive...", dbName)

	latest, err := LatestArchive(ctx, uc.store, dbName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			uc.logger.Warnf("[%s] No archive found, nothing to restore", dbName)
		}
		metrics.RecordRun("restore", dbName, start, false)
		return "", fmt.Errorf("restore %s: %w", dbName, err)
	}

	ws := uc.workspaces.Plan(dbName, path.Base(latest.Key))

	uc.logger.Infof("[%s] Restoring from %s (modified %s)",
		dbName, latest.Key, latest.LastModified.Format(time.RFC3339))

	err = runSteps(ctx, uc.logger, dbName, []step{
		{"prepare", func(context.Context) error {
			return ws.Prepare()
		}},
		{"download", func(ctx context.Context) error {
			uc.logger.Infof("[%s] Downloading %s to %s", dbName, latest.Key, ws.ArchivePath)
			return uc.store.Get(ctx, latest.Key, ws.ArchivePath)
		}},
		{"decompress", func(ctx context.Context) error {
			uc.logger.Infof("[%s] Extracting %s", dbName, ws.Archive)
			return uc.compressor.Decompress(ctx, ws.Root, ws.Archive, ws.Source)
		}},
		{"restore", func(ctx context.Context) error {
			uc.logger.Infof("[%s] Restoring %s into %s", dbName, ws.DumpDir, src.Address())
			return uc.db.Restore(ctx, src, ws.DumpDir)
		}},
	})

	cleanupWorkspace(uc.logger, dbName, ws)
	metrics.RecordRun("restore", dbName, start, err == nil)

	if err != nil {
		return "", fmt.Errorf("restore %s: %w", dbName, err)
	}

	uc.logger.Infof("[%s] Restore completed in %s from %s",
		dbName, time.Since(start).Round(time.Millisecond), latest.Key)

	return latest.Key, nil
}

// LatestArchive lists the store and returns the newest archive whose key
// contains source.
func LatestArchive(ctx context.Context, store domain.ObjectStore, source string) (domain.Object, error) {
	var objects []domain.Object
	err := supervise(ctx, "list", func(ctx context.Context) error {
		var err error
		objects, err = store.List(ctx)
		return err
	})
	if err != nil {
		return domain.Object{}, fmt.Errorf("list archives: %w", err)
	}

	return domain.LatestArchive(objects, source)
}
