package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/semmidev/mongo-s3-backup/internal/app"
	"github.com/semmidev/mongo-s3-backup/internal/config"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/logger"
)

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet(filepath.Base(os.Args[0]), pflag.ContinueOnError)
	now := fs.BoolP("now", "n", false, "run a backup immediately and exit")
	restore := fs.BoolP("restore", "r", false, "restore the latest archives on start")
	configPath := fs.StringP("config", "c", "", "path to the JSON or YAML config file")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <path to config>\n\n", fs.Name())
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	path := *configPath
	if path == "" && fs.NArg() == 1 {
		path = fs.Arg(0)
	}
	if path == "" || fs.NArg() > 1 {
		fs.Usage()
		return errUsage
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	log.Infof("Loaded config file (%s)", path)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Errorf("Failed to initialize: %v", err)
		log.Close()
		return fmt.Errorf("initialize app: %w", err)
	}
	defer application.Shutdown()

	if *now {
		if err := application.BackupAll(ctx); err != nil {
			log.Errorf("Backup failed: %v", err)
			return err
		}
		log.Infof("Backup successfully completed")
		return nil
	}

	return application.Run(ctx, *restore)
}
