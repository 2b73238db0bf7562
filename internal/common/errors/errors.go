// Package errors provides the structured failure taxonomy for the firm
// synchronization pipeline. Adapters return these as values; the orchestrator
// short-circuits on the first failure and surfaces it verbatim.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Canonical store
	ErrCodeFirmNotFound     ErrorCode = "FIRM_NOT_FOUND"
	ErrCodeStoreReadFailed  ErrorCode = "STORE_READ_FAILED"
	ErrCodeStoreWriteFailed ErrorCode = "STORE_WRITE_FAILED"

	// Payload / input validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// External systems
	ErrCodeRemoteCallFailed ErrorCode = "REMOTE_CALL_FAILED"
	ErrCodeObjectNotFound   ErrorCode = "INDEX_OBJECT_NOT_FOUND"

	// Invocation boundary
	ErrCodeSyncLockHeld ErrorCode = "SYNC_LOCK_HELD"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewFirmNotFoundError reports a firm absent from the canonical store.
// Non-retryable: re-invoking cannot make the row appear.
func NewFirmNotFoundError(firmID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeFirmNotFound,
		Message:   "Firm not found in canonical store",
		Details:   fmt.Sprintf("firmId: %d", firmID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreReadError creates a retryable canonical-store read error.
func NewStoreReadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreReadFailed,
		Message:   "Canonical store read failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreWriteError creates a retryable canonical-store write error.
func NewStoreWriteError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreWriteFailed,
		Message:   "Canonical store write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteError creates an error for a non-2xx response from an external
// system. Status code and response body travel in Metadata so callers can
// branch without parsing the message.
func NewRemoteError(service string, status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteCallFailed,
		Message:   fmt.Sprintf("External service '%s' returned status %d", service, status),
		Details:   body,
		Retryable: status == 0 || status >= 500,
		Metadata: map[string]interface{}{
			"service": service,
			"status":  status,
			"body":    body,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewObjectNotFoundError reports a document absent from the search index.
func NewObjectNotFoundError(objectID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeObjectNotFound,
		Message:   "Object not found in search index",
		Details:   fmt.Sprintf("objectId: %s", objectID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSyncLockHeldError reports a sync already in flight for the firm.
func NewSyncLockHeldError(firmID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeSyncLockHeld,
		Message:   "Another synchronization is in flight for this firm",
		Details:   fmt.Sprintf("firmId: %d", firmID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// AsStandard unwraps err into a *StandardError when possible.
func AsStandard(err error) (*StandardError, bool) {
	var std *StandardError
	if errors.As(err, &std) {
		return std, true
	}
	return nil, false
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	if std, ok := AsStandard(err); ok {
		return std.Code == code
	}
	return false
}

// RemoteStatus extracts the HTTP status from a remote error, or 0.
func RemoteStatus(err error) int {
	std, ok := AsStandard(err)
	if !ok || std.Code != ErrCodeRemoteCallFailed {
		return 0
	}
	if status, ok := std.Metadata["status"].(int); ok {
		return status
	}
	return 0
}
