// Package drive implements the statement store on Google Drive: statement
// exports live under a root folder, one child folder per year, one CSV per
// account per period.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	gdrive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"

	"github.com/CohortInsights/financials/internal/ingest"
)

const folderMimeType = "application/vnd.google-apps.folder"

type Client struct {
	svc        *gdrive.Service
	rootFolder string
}

var _ ingest.StatementStore = (*Client)(nil)

// NewFromEnv creates a Drive client using environment variables.
// Optional: DRIVE_STATEMENTS_FOLDER (default "Statements").
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	rootFolder := strings.TrimSpace(os.Getenv("DRIVE_STATEMENTS_FOLDER"))
	if rootFolder == "" {
		rootFolder = "Statements"
	}

	svc, err := newDriveService(ctx)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Client{svc: svc, rootFolder: rootFolder}, nil
}

func newDriveService(ctx context.Context) (*gdrive.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gdrive.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gdrive.DriveReadonlyScope))
}

// Years lists the year folders under the statements root, newest first.
func (c *Client) Years(ctx context.Context) ([]string, error) {
	rootID, err := c.folderIDByName(ctx, c.rootFolder)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", rootID, folderMimeType)
	var years []string
	err = c.svc.Files.List().Context(ctx).
		Q(query).Fields("nextPageToken, files(id, name)").
		Pages(ctx, func(page *gdrive.FileList) error {
			for _, f := range page.Files {
				years = append(years, f.Name)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list year folders: %w", err)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years, nil
}

// Files lists the statement files inside one year folder.
func (c *Client) Files(ctx context.Context, year string) ([]ingest.StatementFile, error) {
	rootID, err := c.folderIDByName(ctx, c.rootFolder)
	if err != nil {
		return nil, err
	}
	yearID, err := c.childFolderID(ctx, rootID, year)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false", yearID)
	var files []ingest.StatementFile
	err = c.svc.Files.List().Context(ctx).
		Q(query).Fields("nextPageToken, files(id, name)").
		Pages(ctx, func(page *gdrive.FileList) error {
			for _, f := range page.Files {
				files = append(files, ingest.StatementFile{ID: f.Id, Name: f.Name})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list files for %s: %w", year, err)
	}
	return files, nil
}

// Download streams one file's contents. The caller owns the reader.
func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	return resp.Body, nil
}

func (c *Client) folderIDByName(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(name), folderMimeType)
	list, err := c.svc.Files.List().Context(ctx).
		Q(query).Fields("files(id, name)").PageSize(1).Do()
	if err != nil {
		return "", fmt.Errorf("find folder %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("folder %q not found", name)
	}
	return list.Files[0].Id, nil
}

func (c *Client) childFolderID(ctx context.Context, parentID, name string) (string, error) {
	query := fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		parentID, escapeQuery(name), folderMimeType)
	list, err := c.svc.Files.List().Context(ctx).
		Q(query).Fields("files(id, name)").PageSize(1).Do()
	if err != nil {
		return "", fmt.Errorf("find folder %q: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("folder %q not found", name)
	}
	return list.Files[0].Id, nil
}

// escapeQuery escapes single quotes inside a Drive query string literal.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, `'`, `\'`)
}
