// Package workspace manages the local scratch paths used while dumping,
// compressing, downloading and extracting archives.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

// DirName is the directory created under the system temp dir when no root is configured.
const DirName = "mongodb_s3_backup"

type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
}

// Manager hands out workspaces under a single shared root. Paths depend only
// on the root, the source name and the archive name, so two concurrent runs
// for the same source would collide; callers run sources one at a time.
type Manager struct {
	root   string
	logger Logger
}

func NewManager(root string, logger Logger) *Manager {
	if root == "" {
		root = DefaultRoot()
	}
	return &Manager{root: root, logger: logger}
}

func DefaultRoot() string {
	return filepath.Join(os.TempDir(), DirName)
}

func (m *Manager) Root() string {
	return m.root
}

// Plan computes the paths for one run without touching the filesystem.
func (m *Manager) Plan(source, archive string) *Workspace {
	return &Workspace{
		Root:        m.root,
		Source:      source,
		Archive:     archive,
		DumpDir:     filepath.Join(m.root, source),
		ArchivePath: filepath.Join(m.root, archive),
		logger:      m.logger,
	}
}

// Workspace is the set of paths owned by a single pipeline run.
type Workspace struct {
	Root        string
	Source      string
	Archive     string
	DumpDir     string
	ArchivePath string

	logger Logger
}

// Prepare creates the root and removes anything left at the planned paths
// by an earlier failed run. Missing paths are not an error.
func (w *Workspace) Prepare() error {
	if err := os.MkdirAll(w.Root, 0o755); err != nil {
		return &domain.FilesystemError{Op: "mkdir", Path: w.Root, Err: err}
	}
	for _, p := range w.paths() {
		if err := w.remove(p); err != nil {
			return err
		}
	}
	return nil
}

// Cleanup removes the dump directory and the archive file. It attempts both
// and returns every failure; callers log them and move on.
func (w *Workspace) Cleanup() []error {
	var errs []error
	for _, p := range w.paths() {
		if err := w.remove(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (w *Workspace) paths() []string {
	return []string{w.DumpDir, w.ArchivePath}
}

func (w *Workspace) remove(path string) error {
	if _, err := os.Lstat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &domain.FilesystemError{Op: "stat", Path: path, Err: err}
	}

	if w.logger != nil {
		w.logger.Infof("Removing %s", path)
	}
	if err := os.RemoveAll(path); err != nil {
		return &domain.FilesystemError{Path: path, Err: err}
	}
	return nil
}
