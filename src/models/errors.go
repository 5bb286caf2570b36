// src/models/errors.go
package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested record id is absent from the store.
	ErrNotFound = errors.New("record not found")
	// ErrAborted is returned when the user cancels the save-before-proceeding prompt.
	ErrAborted = errors.New("operation cancelled by user")
	// ErrAtBoundary is returned by Previous/Next when the cursor is already at an end.
	ErrAtBoundary = errors.New("no record in that direction")
	// ErrNoRecords is returned when an operation needs at least one record.
	ErrNoRecords = errors.New("no records in store")
)

// ParseError reports a single field whose text does not match its grammar.
// The field contributes zero to every total it is folded into.
type ParseError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %s: cannot parse %q: %s", e.Field, e.Value, e.Reason)
}

// StorageError wraps any engine-level failure (disk, corruption, locking, schema mismatch).
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ConfigError reports a missing or corrupt settings resource.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
