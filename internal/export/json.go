package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	backupPrefix      = "rest-tracker-backup-"
	completionsPrefix = "rest-tracker-completions-"

	// maxImportSize bounds files read by ReadJSON.
	maxImportSize = 16 << 20
)

// BackupFilename is the date-stamped name of an exported envelope.
func BackupFilename(now time.Time) string {
	return backupPrefix + now.Format("2006-01-02") + ".json"
}

// CompletionsFilename is the date-stamped name of the completion log.
func CompletionsFilename(now time.Time) string {
	return completionsPrefix + now.Format("2006-01-02") + ".csv"
}

// ToJSON writes an exported envelope into dir under BackupFilename and
// returns the full path.
func ToJSON(data, dir string, now time.Time) (string, error) {
	path := filepath.Join(dir, BackupFilename(now))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		return "", fmt.Errorf("write json file: %w", err)
	}
	return path, nil
}

// ReadJSON loads an envelope file for import.
func ReadJSON(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat import file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("import file %s is a directory", path)
	}
	if info.Size() > maxImportSize {
		return "", fmt.Errorf("import file %s is too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read import file: %w", err)
	}
	return string(data), nil
}
