package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/metrics"
)

// Retention keeps the newest archives of a database and deletes the rest.
type Retention struct {
	store  domain.ObjectStore
	logger Logger
}

func NewRetention(store domain.ObjectStore, logger Logger) *Retention {
	return &Retention{
		store:  store,
		logger: logger,
	}
}

// Execute deletes every archive of source beyond the keep newest. All
// deletions are attempted; the first failure is returned.
func (uc *Retention) Execute(ctx context.Context, source string, keep int) error {
	start := time.Now()
	if keep < 0 {
		keep = 0
	}

	uc.logger.Infof("[%s] Starting cleanup, keeping %d archives", source, keep)

	var objects []domain.Object
	err := supervise(ctx, "list", func(ctx context.Context) error {
		var err error
		objects, err = uc.store.List(ctx)
		return err
	})
	if err != nil {
		metrics.RecordRun("cleanup", source, start, false)
		return fmt.Errorf("cleanup %s: list archives: %w", source, err)
	}

	matching := domain.MatchingArchives(objects, source)
	if len(matching) <= keep {
		uc.logger.Infof("[%s] %d archives, nothing to delete", source, len(matching))
		metrics.RecordRun("cleanup", source, start, true)
		return nil
	}

	var firstErr error
	deleted := 0
	for _, obj := range matching[keep:] {
		uc.logger.Infof("[%s] Deleting old archive: %s", source, obj.Key)

		key := obj.Key
		err := supervise(ctx, "delete", func(ctx context.Context) error {
			return uc.store.Delete(ctx, key)
		})
		if err != nil {
			uc.logger.Errorf("[%s] Failed to delete %s: %v", source, key, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}

	metrics.RecordArchivesDeleted(source, deleted)
	metrics.RecordRun("cleanup", source, start, firstErr == nil)

	if firstErr != nil {
		return fmt.Errorf("cleanup %s: %w", source, firstErr)
	}

	uc.logger.Infof("[%s] Cleanup completed, %d archives deleted", source, deleted)
	return nil
}
