package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
}

func (l *recordingLogger) Infof(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(template, args...))
}

func (l *recordingLogger) Warnf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(template, args...))
}

func (l *recordingLogger) Errorf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, fmt.Sprintf(template, args...))
}

// fakeDatabase writes a small dump tree the way mongodump does: <out>/<db>/...
type fakeDatabase struct {
	dumpErr    error
	restoreErr error

	dumped      []string
	restoredDir string
	restoredOK  bool
}

func (f *fakeDatabase) Dump(ctx context.Context, src domain.Source, outputDir string) error {
	f.dumped = append(f.dumped, src.DB)
	dir := filepath.Join(outputDir, src.DB)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "items.bson"), []byte("bson"), 0o644); err != nil {
		return err
	}
	return f.dumpErr
}

func (f *fakeDatabase) Restore(ctx context.Context, src domain.Source, dumpDir string) error {
	f.restoredDir = dumpDir
	_, err := os.Stat(filepath.Join(dumpDir, "items.bson"))
	f.restoredOK = err == nil
	return f.restoreErr
}

type fakeCompressor struct {
	compressErr   error
	decompressErr error

	compressed   bool
	decompressed bool
}

func (f *fakeCompressor) Compress(ctx context.Context, workDir, input, output string) error {
	if f.compressErr != nil {
		return f.compressErr
	}
	if _, err := os.Stat(filepath.Join(workDir, input)); err != nil {
		return err
	}
	f.compressed = true
	return os.WriteFile(filepath.Join(workDir, output), []byte("archive:"+input), 0o644)
}

func (f *fakeCompressor) Decompress(ctx context.Context, workDir, archive, member string) error {
	if f.decompressErr != nil {
		return f.decompressErr
	}
	if _, err := os.Stat(filepath.Join(workDir, archive)); err != nil {
		return err
	}
	f.decompressed = true
	dir := filepath.Join(workDir, member)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "items.bson"), []byte("bson"), 0o644)
}

type fakeStore struct {
	mu      sync.Mutex
	objects []domain.Object
	content map[string][]byte

	listErr   error
	putErr    error
	putPanic  interface{}
	getErr    error
	deleteErr map[string]error

	puts    []string
	gets    []string
	deletes []string
}

func newFakeStore(objects ...domain.Object) *fakeStore {
	return &fakeStore{objects: objects, content: make(map[string][]byte), deleteErr: make(map[string]error)}
}

func (f *fakeStore) List(ctx context.Context) ([]domain.Object, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Object(nil), f.objects...), nil
}

func (f *fakeStore) Put(ctx context.Context, localPath, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, key)
	if f.putPanic != nil {
		panic(f.putPanic)
	}
	if f.putErr != nil {
		return f.putErr
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	f.content[key] = data
	f.objects = append(f.objects, domain.Object{Key: key, Size: int64(len(data))})
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key, localPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, key)
	if f.getErr != nil {
		return f.getErr
	}
	return os.WriteFile(localPath, []byte("archive"), 0o644)
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	return f.deleteErr[key]
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
