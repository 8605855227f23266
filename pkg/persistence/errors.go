package persistence

import (
	"errors"
	"fmt"
)

// Standard store error types that all implementations should use.
var (
	// ErrAutomationNotFound indicates no automation exists for the id.
	ErrAutomationNotFound = errors.New("automation not found")

	// ErrConversationNotFound indicates no conversation exists for the id.
	ErrConversationNotFound = errors.New("conversation not found")
)

// StoreError wraps store failures with operation context.
type StoreError struct {
	Op  string // Operation being performed (e.g. "SaveAutomation")
	ID  string // Entity id if applicable
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a store error with context.
func NewStoreError(op, id string, err error) *StoreError {
	return &StoreError{Op: op, ID: id, Err: err}
}

// IsAutomationNotFound checks whether err indicates a missing automation.
func IsAutomationNotFound(err error) bool {
	return errors.Is(err, ErrAutomationNotFound)
}

// IsConversationNotFound checks whether err indicates a missing conversation.
func IsConversationNotFound(err error) bool {
	return errors.Is(err, ErrConversationNotFound)
}
