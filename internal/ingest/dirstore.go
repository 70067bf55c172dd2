package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DirStore serves statement exports from a local directory laid out the same
// way as the Drive folder tree: one subdirectory per year, CSV files inside.
// File paths double as file IDs.
type DirStore struct {
	root string
}

var _ StatementStore = (*DirStore)(nil)

func NewDirStore(root string) *DirStore {
	return &DirStore{root: root}
}

func (s *DirStore) Years(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read statements dir: %w", err)
	}

	var years []string
	for _, e := range entries {
		if e.IsDir() {
			years = append(years, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years, nil
}

func (s *DirStore) Files(ctx context.Context, year string) ([]StatementFile, error) {
	dir := filepath.Join(s.root, year)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read year dir %s: %w", year, err)
	}

	var files []StatementFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		files = append(files, StatementFile{
			ID:   filepath.Join(dir, e.Name()),
			Name: e.Name(),
		})
	}
	return files, nil
}

func (s *DirStore) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	f, err := os.Open(fileID)
	if err != nil {
		return nil, fmt.Errorf("open statement %s: %w", fileID, err)
	}
	return f, nil
}
