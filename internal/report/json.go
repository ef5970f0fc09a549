// Package report renders a run's report snapshot to JSON and HTML files.
// Both renderers are pure consumers of run.Report; neither touches run
// state.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/v0xg/vistest/internal/run"
)

// WriteJSON writes the report as indented JSON, creating parent
// directories as needed.
func WriteJSON(rep run.Report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: mkdir %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}
