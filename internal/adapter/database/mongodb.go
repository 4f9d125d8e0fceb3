package database

import (
	"context"
	"fmt"

	"github.com/semmidev/mongo-s3-backup/internal/adapter/toolrunner"
	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

const (
	DefaultDumpTool    = "mongodump"
	DefaultRestoreTool = "mongorestore"
)

type Runner interface {
	Run(ctx context.Context, c toolrunner.Command) error
}

type MongoDBDatabase struct {
	runner      Runner
	dumpTool    string
	restoreTool string
}

func NewMongoDB(runner Runner, dumpTool, restoreTool string) *MongoDBDatabase {
	if dumpTool == "" {
		dumpTool = DefaultDumpTool
	}
	if restoreTool == "" {
		restoreTool = DefaultRestoreTool
	}
	return &MongoDBDatabase{
		runner:      runner,
		dumpTool:    dumpTool,
		restoreTool: restoreTool,
	}
}

// Dump writes src into outputDir; mongodump creates outputDir/<db>.
func (m *MongoDBDatabase) Dump(ctx context.Context, src domain.Source, outputDir string) error {
	if err := m.runner.Run(ctx, m.DumpCommand(src, outputDir)); err != nil {
		return fmt.Errorf("mongodump of %s: %w", src.DB, err)
	}
	return nil
}

// Restore loads the dump directory of a single database back into src.
func (m *MongoDBDatabase) Restore(ctx context.Context, src domain.Source, dumpDir string) error {
	if err := m.runner.Run(ctx, m.RestoreCommand(src, dumpDir)); err != nil {
		return fmt.Errorf("mongorestore of %s: %w", src.DB, err)
	}
	return nil
}

func (m *MongoDBDatabase) DumpCommand(src domain.Source, outputDir string) toolrunner.Command {
	args := []string{
		"-h", src.Address(),
		"-d", src.DB,
		"-o", outputDir,
	}
	return toolrunner.Command{Name: m.dumpTool, Args: appendCredentials(args, src)}
}

func (m *MongoDBDatabase) RestoreCommand(src domain.Source, dumpDir string) toolrunner.Command {
	args := []string{
		"-h", src.Address(),
		"-d", src.DB,
		dumpDir,
	}
	return toolrunner.Command{Name: m.restoreTool, Args: appendCredentials(args, src)}
}

// Tools lists the binaries this adapter shells out to.
func (m *MongoDBDatabase) Tools() []string {
	return []string{m.dumpTool, m.restoreTool}
}

func appendCredentials(args []string, src domain.Source) []string {
	if !src.HasCredentials() {
		return args
	}
	return append(args, "-u", src.Username, "-p", src.Password)
}
