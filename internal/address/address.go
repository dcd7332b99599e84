package address

import (
	"context"

	"github.com/dukerupert/wicket/internal/domain"
)

// Validator defines the interface for address validation.
// Implementations can use external APIs (a pincode directory, a courier
// serviceability check) or local format rules.
type Validator interface {
	// Validate checks if an address is complete and well-formed.
	// Returns the normalized address if validation succeeds.
	// Even if IsValid is false, NormalizedAddress may contain corrections.
	Validate(ctx context.Context, addr domain.Address) (*ValidationResult, error)
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *domain.Address
	Errors            []ValidationError
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Err converts a failed result into a *domain.ValidationError for op.
// Returns nil when the result is valid.
func (r *ValidationResult) Err(op string) error {
	if r == nil || r.IsValid {
		return nil
	}
	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(r.Errors))}
	for _, e := range r.Errors {
		ve.Fields[e.Field] = e.Message
	}
	return ve
}
