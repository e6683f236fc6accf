package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/HelioWoi/liveplan3/pkg/models"
)

// Manifest is the YAML description of a bulk import: which spreadsheet files
// to read and whether the ledger is wiped first.
type Manifest struct {
	ClearFirst bool         `yaml:"clear_first"`
	Files      []ImportFile `yaml:"files"`
}

// ImportFile is a single spreadsheet to import.
type ImportFile struct {
	FilePath string `yaml:"file"`
}

// File returns the absolute path to the spreadsheet, expanding ~.
func (f *ImportFile) File() (string, error) {
	if strings.HasPrefix(f.FilePath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, f.FilePath[2:]), nil
	}
	return f.FilePath, nil
}

// Drafts reads and parses the spreadsheet into transaction drafts.
func (f *ImportFile) Drafts(i *Importer) ([]models.TransactionDraft, error) {
	path, err := f.File()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file %s: %w", path, err)
	}
	drafts, err := i.ProcessBytes(data, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to process import file %s: %w", path, err)
	}
	return drafts, nil
}

// LoadManifest reads an import manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	if len(m.Files) == 0 {
		return nil, fmt.Errorf("manifest has no files")
	}
	return &m, nil
}
