package shipping

// ============================================================================
// SHIPPING ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.

const (
	codeInvalid     = "invalid"
	codeUnavailable = "unavailable" // For service-level errors like no rates
)

// ============================================================================
// SHIPPING ERROR TYPE
// ============================================================================

// ShippingError represents a shipping-specific error with a code and message.
// It satisfies the ErrorCode/ErrorMessage pattern the domain package reads.
type ShippingError struct {
	Code    string
	Message string
}

func (e *ShippingError) Error() string {
	return e.Message
}

// ErrorCode returns the error code.
func (e *ShippingError) ErrorCode() string {
	return e.Code
}

// ErrorMessage returns the user-facing message.
func (e *ShippingError) ErrorMessage() string {
	return e.Message
}

// newShippingError creates a new shipping error.
func newShippingError(code, message string) *ShippingError {
	return &ShippingError{Code: code, Message: message}
}

// ============================================================================
// SHIPPING DOMAIN ERRORS
// ============================================================================

var (
	// ErrNoItems is returned when there is nothing to deliver.
	ErrNoItems = newShippingError(codeInvalid, "At least one item is required")

	// ErrInvalidSubtotal is returned for a negative order value.
	ErrInvalidSubtotal = newShippingError(codeInvalid, "Order value cannot be negative")

	// ErrNoRates is returned when no delivery rates are available.
	ErrNoRates = newShippingError(codeUnavailable, "No delivery options available")
)
