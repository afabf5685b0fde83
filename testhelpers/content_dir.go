package testhelpers

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/standardbeagle/medcat/internal/types"
)

// WriteContentDir lays out records as one JSON file each under a fresh temp
// directory, plus a categories.toml registry, and returns the directory.
// Record files are named <id>.json.
func WriteContentDir(tb testing.TB, records []types.ContentRecord, categories map[string][]types.RecordID) string {
	tb.Helper()
	root := tb.TempDir()

	for _, rec := range records {
		data, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			tb.Fatalf("marshal %s: %v", rec.ID, err)
		}
		WriteFile(tb, root, string(rec.ID)+".json", data)
	}

	if categories != nil {
		data, err := toml.Marshal(struct {
			Categories map[string][]types.RecordID `toml:"categories"`
		}{categories})
		if err != nil {
			tb.Fatalf("marshal categories: %v", err)
		}
		WriteFile(tb, root, "categories.toml", data)
	}
	return root
}

// WriteCatalogDir writes the Catalog fixture with CatalogCategories
func WriteCatalogDir(tb testing.TB) string {
	tb.Helper()
	return WriteContentDir(tb, Catalog(), CatalogCategories())
}

// WriteFile writes data to root/rel, creating parent directories
func WriteFile(tb testing.TB, root, rel string, data []byte) {
	tb.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		tb.Fatalf("mkdir %s: %v", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", full, err)
	}
}
