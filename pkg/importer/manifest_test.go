package importer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	statement := filepath.Join(dir, "june.csv")
	if err := os.WriteFile(statement, []byte(validCSV), 0o644); err != nil {
		t.Fatalf("write statement: %v", err)
	}

	manifestPath := filepath.Join(dir, "import.yaml")
	manifest := "clear_first: true\nfiles:\n  - file: " + statement + "\n"
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	m, err := LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("LoadManifest failed: %v", err)
	}
	if !m.ClearFirst {
		t.Error("clear_first should be true")
	}
	if len(m.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(m.Files))
	}

	drafts, err := m.Files[0].Drafts(New(log.New(io.Discard)))
	if err != nil {
		t.Fatalf("Drafts failed: %v", err)
	}
	if len(drafts) != 3 {
		t.Errorf("expected 3 drafts, got %d", len(drafts))
	}
}

func TestLoadManifestRejectsEmptyFileList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "import.yaml")
	if err := os.WriteFile(path, []byte("clear_first: false\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	if _, err := LoadManifest(path); err == nil {
		t.Error("expected an error for a manifest with no files")
	}
}
