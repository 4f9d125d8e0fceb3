package domain

import "context"

// ObjectStore is the remote side of a backup. Keys are relative to the
// configured destination prefix.
type ObjectStore interface {
	List(ctx context.Context) ([]Object, error)
	Put(ctx context.Context, localPath string, key string) error
	Get(ctx context.Context, key string, localPath string) error
	Delete(ctx context.Context, key string) error
}
