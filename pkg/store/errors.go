package store

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactNotFound indicates no artifact exists for the id.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrInvalidCategory indicates an unknown artifact category.
	ErrInvalidCategory = errors.New("invalid artifact category")
)

// StorageError wraps artifact store failures with operation context.
// Storage failures are always fatal to the task they occur in.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("artifact %s failed for %s: %v", e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("artifact %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsArtifactNotFound checks whether err indicates a missing artifact.
func IsArtifactNotFound(err error) bool {
	return errors.Is(err, ErrArtifactNotFound)
}

// IsStorageError checks whether err originated in the artifact store.
func IsStorageError(err error) bool {
	var se *StorageError

	return errors.As(err, &se)
}
