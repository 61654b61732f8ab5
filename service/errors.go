package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParticipantNotFound is returned when an identity has not been registered
	ErrParticipantNotFound = errors.New("participant not found")

	// ErrSpinInProgress is returned when a session already has a claim in flight
	ErrSpinInProgress = errors.New("a spin is already in progress")

	// ErrSpinDisabled is returned when a session can no longer spin
	ErrSpinDisabled = errors.New("spinning is disabled for this session")

	// ErrSessionNotFound is returned for unknown or expired session ids
	ErrSessionNotFound = errors.New("session not found")
)

// ValidationError is a field that failed its format contract
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every failing field of a request
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fieldErr := range e {
		parts = append(parts, fieldErr.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields maps field names to their messages
func (e ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(e))
	for _, fieldErr := range e {
		fields[fieldErr.Field] = fieldErr.Message
	}
	return fields
}

// ConfigurationError is a fatal, non-retryable setup problem such as an empty prize table
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// StorageError wraps a store fault. The operation had no observable effect
// unless Unknown is set, in which case the write may have committed.
type StorageError struct {
	Op      string
	Err     error
	Unknown bool
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// newStorageError wraps err unless it already is a StorageError
func newStorageError(op string, err error) error {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return err
	}
	return &StorageError{
		Op:      op,
		Err:     err,
		Unknown: errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled),
	}
}

// IsValidationError reports whether err is a ValidationError or ValidationErrors
func IsValidationError(err error) bool {
	var single *ValidationError
	var multiple ValidationErrors
	return errors.As(err, &single) || errors.As(err, &multiple)
}

// IsStorageError reports whether err is a StorageError
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// IsConfigurationError reports whether err is a ConfigurationError
func IsConfigurationError(err error) bool {
	var configErr *ConfigurationError
	return errors.As(err, &configErr)
}
