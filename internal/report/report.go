// Package report persists run records and imports results produced by
// external harnesses.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mika/cycheck/internal/model"
)

// MakeRunID builds a filesystem-safe unique id for a run directory.
func MakeRunID() string {
	ts := time.Now().UTC().Format("2006-01-02T15-04-05Z")
	return fmt.Sprintf("%s_%06d", ts, os.Getpid()%1_000_000)
}

// WriteRunRecord writes run.json under <outputRoot>/runs/<runID>/ and returns
// the record path.
func WriteRunRecord(outputRoot string, record model.RunRecord) (string, error) {
	runDir := filepath.Join(outputRoot, "runs", record.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create run directory %s: %w", runDir, err)
	}

	path := filepath.Join(runDir, "run.json")
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write run record %s: %w", path, err)
	}
	return path, nil
}
