package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers malformed or missing input
	ErrValidation = errors.New("invalid input")

	// ErrEncoding means the base64 payload could not be decoded
	ErrEncoding = errors.New("malformed base64 payload")

	// ErrAlreadyExists means the derived storage path is already taken.
	// With fresh random identifiers this is practically unreachable
	ErrAlreadyExists = errors.New("file already exists in storage")

	// ErrNotFound means no active metadata row matched the identifier
	ErrNotFound = errors.New("file not found")

	// ErrNotFoundInStore means the metadata row exists but the blob is
	// gone from the object store. Signals store-level inconsistency
	ErrNotFoundInStore = errors.New("file not found in storage")
)

// StoreError wraps a failure from one of the backing stores with the
// operation and key it happened on. Never retried, always surfaced.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op, key string, err error) error {
	return &StoreError{Op: op, Key: key, Err: err}
}
