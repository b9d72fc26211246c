package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the docent home directory.
	DefaultDirName = ".docent"

	// CacheDirName is the subdirectory for cached LLM responses.
	CacheDirName = "cache"

	// CatalogDirName is the subdirectory for user schema manifests.
	CatalogDirName = "catalog"

	// ResultsDirName is the subdirectory for batch extraction output.
	ResultsDirName = "results"

	// RedisDirName is the subdirectory mounted into the managed Redis container.
	RedisDirName = "redis"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the docent home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.docent).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// CachePath returns the path to the response cache directory.
func (d *Dir) CachePath() string {
	return filepath.Join(d.path, CacheDirName)
}

// CatalogPath returns the path to the user schema manifest directory.
func (d *Dir) CatalogPath() string {
	return filepath.Join(d.path, CatalogDirName)
}

// ResultsPath returns the path to the batch results directory.
func (d *Dir) ResultsPath() string {
	return filepath.Join(d.path, ResultsDirName)
}

// RedisDataPath returns the host path mounted into the managed Redis container.
func (d *Dir) RedisDataPath() string {
	return filepath.Join(d.path, RedisDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.CachePath(), d.CatalogPath(), d.ResultsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
