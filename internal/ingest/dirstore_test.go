package ingest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestDirStore(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(parts ...string) {
		path := filepath.Join(append([]string{root}, parts...)...)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("2023", "bmo.csv")
	mustWrite("2024", "citi.CSV")
	mustWrite("2024", "notes.txt")
	mustWrite("stray.csv")

	store := NewDirStore(root)
	ctx := context.Background()

	years, err := store.Years(ctx)
	if err != nil {
		t.Fatalf("Years() error = %v", err)
	}
	if len(years) != 2 || years[0] != "2024" || years[1] != "2023" {
		t.Fatalf("Years() = %v, want [2024 2023]", years)
	}

	files, err := store.Files(ctx, "2024")
	if err != nil {
		t.Fatalf("Files() error = %v", err)
	}
	if len(files) != 1 || files[0].Name != "citi.CSV" {
		t.Fatalf("Files(2024) = %v, want just citi.CSV", files)
	}

	rc, err := store.Download(ctx, files[0].ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "data" {
		t.Fatalf("Download() = %q, want %q", body, "data")
	}

	if _, err := store.Files(ctx, "2025"); err == nil {
		t.Fatal("Files() for a missing year should fail")
	}
}
