package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Export wraps a Summary with run metadata for persistence.
type Export struct {
	CatalogHash string   `json:"catalogHash"`
	ExportedAt  string   `json:"exportedAt"`
	Summary     *Summary `json:"summary"`
}

// WriteJSON marshals the summary to w as indented JSON.
func WriteJSON(w io.Writer, catalogHash string, s *Summary) error {
	export := Export{
		CatalogHash: catalogHash,
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Summary:     s,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("report: encode summary: %w", err)
	}
	return nil
}

// WriteJSONFile writes the summary to path, creating parent directories as
// needed.
func WriteJSONFile(path, catalogHash string, s *Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: mkdir %s: %w", filepath.Dir(path), err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(f, catalogHash, s)
}
