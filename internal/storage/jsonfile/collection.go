// Package jsonfile persists a collection as a pretty-printed JSON array
// file, creating it on first use and silently repairing corrupt content.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Collection is a file-backed set of records of one entity type. Reads
// and writes always cover the whole array; there is no locking, so two
// concurrent read-modify-write sequences can race and the last writer
// wins.
type Collection[T any] struct {
	path string
}

// NewCollection binds a collection to its backing file path.
func NewCollection[T any](path string) *Collection[T] {
	return &Collection[T]{path: path}
}

// Path returns the backing file path.
func (c *Collection[T]) Path() string {
	return c.path
}

// Ensure creates the parent directory and the backing file if absent,
// seeding it with an empty array. Idempotent.
func (c *Collection[T]) Ensure() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	if _, err := os.Stat(c.path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat collection file: %w", err)
		}
		if err := os.WriteFile(c.path, []byte("[]"), 0o644); err != nil {
			return fmt.Errorf("failed to seed collection file: %w", err)
		}
	}
	return nil
}

// Read parses the backing file. Empty or malformed content is overwritten
// with an empty array and the empty collection is returned; no error
// surfaces for that case.
func (c *Collection[T]) Read() ([]T, error) {
	if err := c.Ensure(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}

	var items []T
	if len(strings.TrimSpace(string(raw))) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		items = []T{}
		if err := c.Write(items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// Write serializes items as pretty-printed JSON and overwrites the file
// in full. A crash mid-write can corrupt the file; the next Read repairs
// it to the empty collection.
func (c *Collection[T]) Write(items []T) error {
	if err := c.Ensure(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize collection: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write collection file: %w", err)
	}
	return nil
}
