package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/semmidev/mongo-s3-backup/internal/adapter/compressor"
	"github.com/semmidev/mongo-s3-backup/internal/adapter/database"
	"github.com/semmidev/mongo-s3-backup/internal/adapter/notifier"
	"github.com/semmidev/mongo-s3-backup/internal/adapter/storage"
	"github.com/semmidev/mongo-s3-backup/internal/adapter/toolrunner"
	"github.com/semmidev/mongo-s3-backup/internal/config"
	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/logger"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/metrics"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/scheduler"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/server"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/workspace"
	"github.com/semmidev/mongo-s3-backup/internal/usecase"
)

// ErrRunInProgress is returned when a backup or restore is requested while
// another one is still running in this process.
var ErrRunInProgress = errors.New("another run is in progress")

// Dependencies are the adapters the pipelines run against.
type Dependencies struct {
	Database   domain.Database
	Compressor domain.Compressor
	Store      domain.ObjectStore
	Workspaces usecase.Workspaces
	Notifier   domain.Notifier
}

type App struct {
	config    *config.Config
	logger    *logger.Logger
	sources   []domain.Source
	store     domain.ObjectStore
	notifier  domain.Notifier
	scheduler *scheduler.Scheduler
	server    *server.Server

	backupUC    *usecase.Backup
	restoreUC   *usecase.Restore
	retentionUC *usecase.Retention

	// runLock serializes scheduled and manual runs; sources share one workspace root.
	runLock sync.Mutex
	status  *runStatus
}

// New wires the production adapters from cfg. A missing external tool is
// only reported here; each run still fails with a not-found ToolError.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	log.Infof("Starting %s", cfg.App.Name)
	log.Infof("Found %d database(s) configured", len(cfg.MongoDB))

	runner := toolrunner.New(log.Named("tool"))
	mongo := database.NewMongoDB(runner, cfg.Tools.MongoDump, cfg.Tools.MongoRestore)
	tar := compressor.NewTar(runner, cfg.Tools.Tar)

	tools := append(mongo.Tools(), tar.Tool())
	if err := Preflight(tools...); err != nil {
		log.Warnf("External tools missing, runs will fail until installed: %v", err)
	} else {
		log.Infof("✓ External tools found: %s", strings.Join(tools, ", "))
	}

	storeCfg := cfg.S3.Store()
	store, err := storage.NewStore(ctx, storeCfg, log.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Infof("✓ %s storage enabled (bucket: %s, destination: %q)",
		storeCfg.Provider, storeCfg.Bucket, storeCfg.Destination)

	var notify domain.Notifier = notifier.Noop{}
	if tg := cfg.Notify.Telegram; tg.Enabled {
		telegram, err := notifier.NewTelegram(tg.BotToken, tg.ChatID)
		if err != nil {
			log.Errorf("Failed to initialize Telegram: %v", err)
		} else {
			notify = telegram
			log.Infof("✓ Telegram notifications enabled")
		}
	}

	ws := workspace.NewManager(cfg.Workspace.Root, log)
	log.Infof("✓ Workspace root: %s", ws.Root())

	return NewWithDependencies(cfg, log, Dependencies{
		Database:   mongo,
		Compressor: tar,
		Store:      store,
		Workspaces: ws,
		Notifier:   notify,
	}), nil
}

func NewWithDependencies(cfg *config.Config, log *logger.Logger, deps Dependencies) *App {
	if deps.Notifier == nil {
		deps.Notifier = notifier.Noop{}
	}

	a := &App{
		config:      cfg,
		logger:      log,
		sources:     cfg.Sources(),
		store:       deps.Store,
		notifier:    deps.Notifier,
		backupUC:    usecase.NewBackup(deps.Database, deps.Compressor, deps.Store, deps.Workspaces, log),
		restoreUC:   usecase.NewRestore(deps.Database, deps.Compressor, deps.Store, deps.Workspaces, log),
		retentionUC: usecase.NewRetention(deps.Store, log),
		status:      newRunStatus(),
	}

	if cfg.Metrics.ListenAddr != "" {
		a.server = server.New(cfg.Metrics.ListenAddr, log)
		a.server.RegisterHealthCheck("last_run", a.status.check)
	}

	return a
}

// Preflight verifies that every tool resolves on PATH and reports all the
// missing ones together.
func Preflight(tools ...string) error {
	var errs []error
	for _, name := range tools {
		if err := toolrunner.LookPath(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BackupAll backs up every source in order, trimming old archives after each
// one when numOfArchives is set. It stops at the first failure.
func (a *App) BackupAll(ctx context.Context) error {
	if !a.runLock.TryLock() {
		return ErrRunInProgress
	}
	defer a.runLock.Unlock()

	for _, src := range a.sources {
		archive, err := a.backupUC.Execute(ctx, src)
		a.status.record("backup", src.DB, err)
		if err != nil {
			a.notify(ctx, src.DB, fmt.Sprintf("❌ Backup Failed\n\n🗄 Database: %s\n⚠️ Error: %v", src.DB, err))
			return err
		}
		a.notify(ctx, src.DB, fmt.Sprintf("✅ Backup Created\n\n🗄 Database: %s\n📁 File: %s", src.DB, archive))

		if keep := a.config.NumOfArchives; keep > 0 {
			if err := a.retentionUC.Execute(ctx, src.DB, keep); err != nil {
				a.status.record("cleanup", src.DB, err)
				a.notify(ctx, src.DB, fmt.Sprintf("❌ Cleanup Failed\n\n🗄 Database: %s\n⚠️ Error: %v", src.DB, err))
				return err
			}
		}
	}

	return nil
}

// RestoreAll restores every source from its latest archive, in order,
// stopping at the first failure.
func (a *App) RestoreAll(ctx context.Context) error {
	if !a.runLock.TryLock() {
		return ErrRunInProgress
	}
	defer a.runLock.Unlock()

	for _, src := range a.sources {
		archive, err := a.restoreUC.Execute(ctx, src)
		a.status.record("restore", src.DB, err)
		if err != nil {
			a.notify(ctx, src.DB, fmt.Sprintf("❌ Restore Failed\n\n🗄 Database: %s\n⚠️ Error: %v", src.DB, err))
			return err
		}
		a.notify(ctx, src.DB, fmt.Sprintf("♻️ Restore Completed\n\n🗄 Database: %s\n📁 File: %s", src.DB, archive))
	}

	return nil
}

func (a *App) notify(ctx context.Context, db, message string) {
	if err := a.notifier.Notify(ctx, message); err != nil {
		a.logger.ForSource(db).Warnf("Failed to send notification: %v", err)
	}
}

// scheduledBackup is the cron job body. Failures are logged and the next
// tick is awaited.
func (a *App) scheduledBackup(ctx context.Context) error {
	a.logger.Infof("=== Triggered scheduled backup ===")

	err := a.BackupAll(ctx)
	if errors.Is(err, ErrRunInProgress) {
		metrics.SkippedRuns.Inc()
		a.logger.Warnf("Skipping scheduled backup: %v", err)
		return nil
	}
	if err == nil && a.scheduler != nil {
		a.logger.Infof("Next backup at %s", a.scheduler.Next().Format(time.RFC3339))
	}
	return err
}

// Run schedules BackupAll and blocks until ctx is cancelled. With
// restoreOnStart every source is restored before the first tick can fire;
// a failed restore ends Run with its error and nothing is scheduled.
func (a *App) Run(ctx context.Context, restoreOnStart bool) error {
	if restoreOnStart {
		if err := a.RestoreAll(ctx); err != nil {
			return fmt.Errorf("restore on start: %w", err)
		}
		a.logger.Infof("Restore successfully completed")
	}

	if err := a.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

// Start registers the backup schedule and the metrics server without blocking.
func (a *App) Start(ctx context.Context) error {
	spec, loc, err := a.config.Schedule()
	if err != nil {
		return err
	}

	a.scheduler = scheduler.New(loc, a.logger.Named("scheduler"))
	if err := a.scheduler.AddJob(spec, "backup", a.scheduledBackup); err != nil {
		return fmt.Errorf("failed to schedule backup %q: %w", spec, err)
	}

	if a.server != nil {
		go func() {
			if err := a.server.Start(); err != nil {
				a.logger.Errorf("Metrics server stopped: %v", err)
			}
		}()
	}

	a.scheduler.Start(ctx)
	a.logger.Infof("Backup successfully scheduled: %q (%s), next run at %s",
		spec, loc, a.scheduler.Next().Format(time.RFC3339))

	return nil
}

func (a *App) Shutdown() {
	a.logger.Infof("Shutting down application...")
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.server.Shutdown(ctx)
	}
	if c, ok := a.store.(io.Closer); ok {
		_ = c.Close()
	}
	a.logger.Close()
}
