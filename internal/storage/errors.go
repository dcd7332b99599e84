package storage

import (
	"errors"
	"fmt"
)

// ============================================================================
// STORAGE ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.

const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
	codeNotFound = "not_found"
)

// ============================================================================
// STORAGE ERROR TYPE
// ============================================================================

// StorageError represents a storage-specific error with a code and message.
// It satisfies the ErrorCode/ErrorMessage pattern the domain package reads.
type StorageError struct {
	Code    string
	Message string
	Err     error
}

func (e *StorageError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorCode returns the error code.
func (e *StorageError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *StorageError) ErrorMessage() string {
	return e.Message
}

// ============================================================================
// STORAGE DOMAIN ERRORS
// ============================================================================

// ErrKeyNotFound creates an error for when nothing is stored under key.
func ErrKeyNotFound(key string) error {
	return &StorageError{
		Code:    codeNotFound,
		Message: fmt.Sprintf("key not found: %s", key),
	}
}

// errUndecodable marks errors built by ErrCorrupt.
var errUndecodable = errors.New("undecodable")

// ErrCorrupt creates an error for a stored value that cannot be decoded.
func ErrCorrupt(key string, err error) error {
	return &StorageError{
		Code:    codeInternal,
		Message: fmt.Sprintf("stored value for %s is corrupt", key),
		Err:     fmt.Errorf("%w: %w", errUndecodable, err),
	}
}

// ErrInvalidKey creates an error for keys that would escape the store.
func ErrInvalidKey(key string) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("invalid storage key: %q", key),
	}
}

// ErrUnknownProvider creates an error for unknown storage providers.
func ErrUnknownProvider(provider string) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown storage provider: %s", provider),
	}
}

// ErrInvalidRedisURL creates an error for an unparseable REDIS_URL.
func ErrInvalidRedisURL(url string, err error) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("invalid redis url: %s", url),
		Err:     err,
	}
}

// ErrInvalidEncryptionKey creates an error for an unusable STORAGE_ENCRYPTION_KEY.
func ErrInvalidEncryptionKey(err error) error {
	return &StorageError{
		Code:    codeInvalid,
		Message: "invalid storage encryption key",
		Err:     err,
	}
}
