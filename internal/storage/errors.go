package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrPersistenceWriteFailed means the store rejected a write. The caller
	// must not assume anything was saved.
	ErrPersistenceWriteFailed = errors.New("persistence write failed")
	// ErrCorruptedRecord means stored content is not valid JSON or not
	// shaped like an envelope.
	ErrCorruptedRecord = errors.New("corrupted record")
	// ErrInvalidImportFormat means user supplied content failed validation.
	// Nothing from it was applied.
	ErrInvalidImportFormat = errors.New("invalid import format")
)

// OpError records which operation on which key failed. It matches both its
// Kind and the underlying cause with errors.Is.
type OpError struct {
	Op   string
	Key  string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.Key != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error { return []error{e.Kind, e.Err} }

func writeErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Key: key, Kind: ErrPersistenceWriteFailed, Err: err}
}

func corruptErr(op, key string, err error) error {
	return &OpError{Op: op, Key: key, Kind: ErrCorruptedRecord, Err: err}
}

func importErr(err error) error {
	return &OpError{Op: "import", Kind: ErrInvalidImportFormat, Err: err}
}
