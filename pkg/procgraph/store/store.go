// Package store provides local persistence for user-defined process
// definitions, so a process built once can be reloaded and resubmitted
// without rebuilding the graph.
package store

import (
	"errors"
	"time"
)

// Store persists serialized process definitions keyed by process id.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores a process definition.
	// Overwrites if a definition for id already exists.
	Save(id string, definition []byte) error

	// Load retrieves a process definition.
	// Returns ErrNotFound if the definition doesn't exist.
	Load(id string) ([]byte, error)

	// List returns metadata for all stored definitions, ordered by
	// most recent update first. Returns empty slice (not error) if
	// the store is empty.
	List() ([]Info, error)

	// Delete removes a definition.
	// Returns nil if the definition doesn't exist.
	Delete(id string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the full definition.
type Info struct {
	ID      string
	Updated time.Time
	Size    int64
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a process definition doesn't exist.
	ErrNotFound = errors.New("process definition not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("process store closed")
)
