package ingest

import (
	"context"
	"io"
)

// StatementFile is one downloadable statement export.
type StatementFile struct {
	ID   string
	Name string
}

// StatementStore abstracts wherever statement exports live. The production
// implementation browses a Google Drive folder tree; tests use an in-memory
// store.
type StatementStore interface {
	// Years lists the per-year folder names, newest first.
	Years(ctx context.Context) ([]string, error)
	// Files lists the statement files inside one year folder.
	Files(ctx context.Context, year string) ([]StatementFile, error)
	// Download streams one file's contents.
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}
