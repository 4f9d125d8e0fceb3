package compressor

import (
	"context"
	"fmt"

	"github.com/semmidev/mongo-s3-backup/internal/adapter/toolrunner"
)

const DefaultTarTool = "tar"

type Runner interface {
	Run(ctx context.Context, c toolrunner.Command) error
}

// TarCompressor shells out to tar with gzip compression.
type TarCompressor struct {
	runner Runner
	tool   string
}

func NewTar(runner Runner, tool string) *TarCompressor {
	if tool == "" {
		tool = DefaultTarTool
	}
	return &TarCompressor{runner: runner, tool: tool}
}

// Compress packs input (relative to workDir) into the archive output.
func (t *TarCompressor) Compress(ctx context.Context, workDir, input, output string) error {
	cmd := toolrunner.Command{
		Name: t.tool,
		Args: []string{"-zcf", output, input},
		Dir:  workDir,
	}
	if err := t.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to compress %s: %w", input, err)
	}
	return nil
}

// Decompress extracts member from archive into workDir.
func (t *TarCompressor) Decompress(ctx context.Context, workDir, archive, member string) error {
	cmd := toolrunner.Command{
		Name: t.tool,
		Args: []string{"-xzvf", archive, member},
		Dir:  workDir,
	}
	if err := t.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to decompress %s: %w", archive, err)
	}
	return nil
}

func (t *TarCompressor) Tool() string {
	return t.tool
}
