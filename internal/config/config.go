// Package config reads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/sadopc/resttrackr/internal/kv"
)

type StoreKind string

const (
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

type Config struct {
	DataDir        string
	Namespace      string
	StorageQuota   int
	LogLevel       string
	LogFile        string
	ExportDir      string
	BackupSchedule string
	Store          StoreKind
}

// DBPath is the SQLite file inside DataDir.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, "resttrackr.db")
}

// Load reads .env files (if present) and then the environment. Missing
// .env files are not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	dataDir := getEnv("RESTTRACKR_DATA_DIR", "")
	if dataDir == "" {
		d, err := DefaultDataDir()
		if err != nil {
			return Config{}, err
		}
		dataDir = d
	}
	exportDir := getEnv("RESTTRACKR_EXPORT_DIR", "")
	if exportDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			exportDir = home
		} else {
			exportDir = "."
		}
	}

	cfg := Config{
		DataDir:        dataDir,
		Namespace:      getEnv("RESTTRACKR_NAMESPACE", ""),
		StorageQuota:   getIntEnv("RESTTRACKR_STORAGE_QUOTA", kv.DefaultQuota),
		LogLevel:       strings.ToLower(getEnv("RESTTRACKR_LOG_LEVEL", "info")),
		LogFile:        getEnv("RESTTRACKR_LOG_FILE", filepath.Join(dataDir, "resttrackr.log")),
		ExportDir:      exportDir,
		BackupSchedule: getEnv("RESTTRACKR_BACKUP_SCHEDULE", "*/15 * * * *"),
		Store:          StoreKind(strings.ToLower(getEnv("RESTTRACKR_STORE", string(StoreSQLite)))),
	}
	switch cfg.Store {
	case StoreSQLite, StoreMemory:
	default:
		return Config{}, fmt.Errorf("RESTTRACKR_STORE: unknown store %q", cfg.Store)
	}
	return cfg, nil
}

// DefaultDataDir returns ~/.config/resttrackr (or the platform equivalent).
func DefaultDataDir() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "resttrackr"), nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
