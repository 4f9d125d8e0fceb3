package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
)

type GDriveConfig struct {
	CredentialsFile string
	FolderID        string
}

// GDriveStorage keeps archives as files in a single Drive folder. The folder
// plays the role of the destination prefix.
type GDriveStorage struct {
	service  *drive.Service
	folderID string
}

func NewGDrive(ctx context.Context, cfg GDriveConfig) (*GDriveStorage, error) {
	service, err := drive.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &GDriveStorage{
		service:  service,
		folderID: cfg.FolderID,
	}, nil
}

func (g *GDriveStorage) List(ctx context.Context) ([]domain.Object, error) {
	query := fmt.Sprintf("'%s' in parents and trashed=false", g.folderID)

	var objects []domain.Object
	err := g.service.Files.List().
		Q(query).
		Fields("nextPageToken, files(id, name, size, modifiedTime)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, file := range page.Files {
				modified, _ := time.Parse(time.RFC3339, file.ModifiedTime)
				objects = append(objects, domain.Object{
					Key:          file.Name,
					Size:         file.Size,
					LastModified: modified,
				})
			}
			return nil
		})
	if err != nil {
		return nil, driveError("list", "", err)
	}

	return objects, nil
}

func (g *GDriveStorage) Put(ctx context.Context, localPath, key string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return &domain.FilesystemError{Op: "open", Path: localPath, Err: err}
	}
	defer file.Close()

	fileMetadata := &drive.File{
		Name:    key,
		Parents: []string{g.folderID},
	}

	_, err = g.service.Files.Create(fileMetadata).
		Media(file, googleapi.ContentType("application/gzip")).
		Context(ctx).
		Do()
	if err != nil {
		return driveError("put", key, err)
	}

	return nil
}

func (g *GDriveStorage) Get(ctx context.Context, key, localPath string) error {
	id, err := g.lookup(ctx, "get", key)
	if err != nil {
		return err
	}

	resp, err := g.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return driveError("get", key, err)
	}
	defer resp.Body.Close()

	file, err := os.Create(localPath)
	if err != nil {
		return &domain.FilesystemError{Op: "create", Path: localPath, Err: err}
	}

	_, err = io.Copy(file, resp.Body)
	closeErr := file.Close()

	if err != nil {
		return driveError("get", key, err)
	}
	if closeErr != nil {
		return &domain.FilesystemError{Op: "close", Path: localPath, Err: closeErr}
	}

	return nil
}

func (g *GDriveStorage) Delete(ctx context.Context, key string) error {
	id, err := g.lookup(ctx, "delete", key)
	if err != nil {
		return err
	}

	if err := g.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return driveError("delete", key, err)
	}

	return nil
}

func (g *GDriveStorage) lookup(ctx context.Context, op, name string) (string, error) {
	query := fmt.Sprintf("'%s' in parents and name='%s' and trashed=false", g.folderID, escapeQuery(name))

	fileList, err := g.service.Files.List().
		Q(query).
		Fields("files(id)").
		Context(ctx).
		Do()
	if err != nil {
		return "", driveError(op, name, err)
	}

	if len(fileList.Files) == 0 {
		return "", &domain.StoreError{Op: op, Key: name, StatusCode: 404, Err: fmt.Errorf("file not found: %s", name)}
	}

	return fileList.Files[0].Id, nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}

func driveError(op, key string, err error) *domain.StoreError {
	se := &domain.StoreError{Op: op, Key: key, Err: err}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		se.StatusCode = apiErr.Code
		se.Body = apiErr.Message
	}

	return se
}
