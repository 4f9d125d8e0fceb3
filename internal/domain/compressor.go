package domain

import "context"

// Compressor packs and unpacks archives relative to a working directory.
type Compressor interface {
	Compress(ctx context.Context, workDir, input, output string) error
	Decompress(ctx context.Context, workDir, archive, member string) error
}
