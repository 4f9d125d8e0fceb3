package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/metrics"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/workspace"
)

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// Workspaces plans the local paths of one run.
type Workspaces interface {
	Plan(source, archive string) *workspace.Workspace
}

// Backup dumps one database, archives the dump and uploads the archive.
// The workspace is cleaned up on every exit path.
type Backup struct {
	db         domain.Database
	compressor domain.Compressor
	store      domain.ObjectStore
	workspaces Workspaces
	logger     Logger
	now        func() time.Time
}

func NewBackup(
	db domain.Database,
	compressor domain.Compressor,
	store domain.ObjectStore,
	workspaces Workspaces,
	logger Logger,
) *Backup {
	return &Backup{
		db:         db,
		compressor: compressor,
		store:      store,
		workspaces: workspaces,
		logger:     logger,
		now:        time.Now,
	}
}

// Execute runs the pipeline for src and returns the uploaded archive name.
func (uc *Backup) Execute(ctx context.Context, src domain.Source) (string, error) {
	start := time.Now()
	dbName := src.DB
	archive := domain.ArchiveName(dbName, uc.now())
	ws := uc.workspaces.Plan(dbName, archive)

	uc.logger.Infof("[%s] Starting backup to %s...", dbName, archive)

	err := runSteps(ctx, uc.logger, dbName, []step{
		{"prepare", func(context.Context) error {
			return ws.Prepare()
		}},
		{"dump", func(ctx context.Context) error {
			uc.logger.Infof("[%s] Dumping %s into %s", dbName, src.Address(), ws.Root)
			return uc.db.Dump(ctx, src, ws.Root)
		}},
		{"compress", func(ctx context.Context) error {
			uc.logger.Infof("[%s] Compressing %s into %s", dbName, ws.Source, ws.Archive)
			if err := uc.compressor.Compress(ctx, ws.Root, ws.Source, ws.Archive); err != nil {
				return err
			}
			uc.reportSize(dbName, ws.ArchivePath)
			return nil
		}},
		{"upload", func(ctx context.Context) error {
			uc.logger.Infof("[%s] Uploading %s...", dbName, ws.Archive)
			return uc.store.Put(ctx, ws.ArchivePath, ws.Archive)
		}},
	})

	cleanupWorkspace(uc.logger, dbName, ws)
	metrics.RecordRun("backup", dbName, start, err == nil)

	if err != nil {
		return "", fmt.Errorf("backup %s: %w", dbName, err)
	}

	uc.logger.Infof("[%s] Backup completed in %s: %s",
		dbName, time.Since(start).Round(time.Millisecond), archive)

	return archive, nil
}

func (uc *Backup) reportSize(dbName, archivePath string) {
	info, err := os.Stat(archivePath)
	if err != nil {
		return
	}
	metrics.RecordArchiveSize(dbName, info.Size())
	uc.logger.Infof("[%s] Archive created, size: %.2f MB", dbName, float64(info.Size())/(1024*1024))
}

// cleanupWorkspace removes the run's paths. Failures are logged and never
// replace the pipeline's own result.
func cleanupWorkspace(logger Logger, dbName string, ws *workspace.Workspace) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[%s] Fault during cleanup: %v", dbName, r)
		}
	}()

	for _, err := range ws.Cleanup() {
		logger.Warnf("[%s] Cleanup: %v", dbName, err)
	}
}
