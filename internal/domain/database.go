package domain

import "context"

type Database interface {
	Dump(ctx context.Context, src Source, outputDir string) error
	Restore(ctx context.Context, src Source, dumpDir string) error
}
