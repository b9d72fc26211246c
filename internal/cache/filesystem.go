package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/docentlabs/docent/internal/fingerprint"
)

// Filesystem stores one file per fingerprint under a root directory.
// Writes go through a temp file and rename so readers never observe a
// partial entry. Entries shard into subdirectories by digest prefix to
// keep directory listings manageable.
type Filesystem struct {
	root string
}

var hexKey = regexp.MustCompile(`^[0-9a-f]{64}$`)

// NewFilesystem creates a filesystem store rooted at dir, creating it if
// needed.
func NewFilesystem(dir string) (*Filesystem, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Filesystem{root: dir}, nil
}

func (f *Filesystem) path(fp fingerprint.Fingerprint) (string, error) {
	key := fp.String()
	if !hexKey.MatchString(key) {
		return "", fmt.Errorf("malformed cache key %q", key)
	}
	return filepath.Join(f.root, key[:2], key+".bin"), nil
}

// Get returns the cached value for fp.
func (f *Filesystem) Get(_ context.Context, fp fingerprint.Fingerprint) ([]byte, bool, error) {
	path, err := f.path(fp)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return data, true, nil
}

// Set stores val under fp atomically.
func (f *Filesystem) Set(_ context.Context, fp fingerprint.Fingerprint, val []byte) error {
	path, err := f.path(fp)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache shard: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(val); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close cache entry: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to publish cache entry: %w", err)
	}
	return nil
}

// Stats walks the cache tree and reports entry count and total size.
func (f *Filesystem) Stats(_ context.Context) (Stats, error) {
	var stats Stats
	err := filepath.WalkDir(f.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".bin") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Entries++
		stats.SizeBytes += info.Size()
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to walk cache: %w", err)
	}
	return stats, nil
}

// Clear removes every entry and empty shards.
func (f *Filesystem) Clear(ctx context.Context) (int, error) {
	stats, err := f.Stats(ctx)
	if err != nil {
		return 0, err
	}
	shards, err := os.ReadDir(f.root)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache: %w", err)
	}
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(f.root, shard.Name())); err != nil {
			return 0, fmt.Errorf("failed to remove cache shard: %w", err)
		}
	}
	return stats.Entries, nil
}

var _ Manager = (*Filesystem)(nil)
