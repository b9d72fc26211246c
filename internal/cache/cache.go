// Package cache stores provider responses keyed by request fingerprint.
// Entries are immutable once written and never expire; a fingerprint fully
// determines its value, so there is nothing to invalidate.
package cache

import (
	"context"

	"github.com/docentlabs/docent/internal/fingerprint"
)

// Store is a fingerprint-keyed byte store. Implementations must be safe
// for concurrent use.
type Store interface {
	// Get returns the cached value for fp. The second return is false on
	// a miss; err is reserved for backend failures.
	Get(ctx context.Context, fp fingerprint.Fingerprint) ([]byte, bool, error)

	// Set stores val under fp, overwriting any existing entry.
	Set(ctx context.Context, fp fingerprint.Fingerprint, val []byte) error
}

// Stats summarizes a store's contents.
type Stats struct {
	Entries   int   `json:"entries" yaml:"entries"`
	SizeBytes int64 `json:"size_bytes" yaml:"size_bytes"`
}

// Manager extends Store with maintenance operations. The filesystem and
// Redis backends implement it; callers degrade gracefully when a Store
// does not.
type Manager interface {
	Store

	// Stats reports the entry count and total payload size.
	Stats(ctx context.Context) (Stats, error)

	// Clear removes every entry and returns the number removed.
	Clear(ctx context.Context) (int, error)
}
