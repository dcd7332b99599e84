package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Code: EINVALID, Message: "select a delivery address"},
			expected: "select a delivery address",
		},
		{
			name:     "with operation",
			err:      &Error{Code: EINVALID, Op: "checkout.place_order", Message: "select a delivery address"},
			expected: "checkout.place_order: select a delivery address",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EUNAVAILABLE,
				Op:      "api.submit_order",
				Message: "store unreachable",
				Err:     errors.New("connection refused"),
			},
			expected: "api.submit_order: store unreachable: connection refused",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EUNAVAILABLE,
				Message: "store unreachable",
				Err:     errors.New("connection refused"),
			},
			expected: "store unreachable: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := &Error{Code: EINTERNAL, Message: "wrapped", Err: underlying}

	if unwrapped := err.Unwrap(); unwrapped != underlying {
		t.Errorf("Error.Unwrap() = %v, want %v", unwrapped, underlying)
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is should find underlying error")
	}
}

func TestWithOp_KeepsSentinelIdentity(t *testing.T) {
	sentinel := &Error{Code: EINVALID, Message: "Your cart is empty"}

	err := WithOp(sentinel, "checkout.place_order")

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should match sentinel after WithOp")
	}
	if ErrorOp(err) != "checkout.place_order" {
		t.Errorf("ErrorOp() = %q, want %q", ErrorOp(err), "checkout.place_order")
	}
	if sentinel.Op != "" {
		t.Error("WithOp must not mutate the sentinel")
	}

	plain := errors.New("plain")
	if WithOp(plain, "x") != plain {
		t.Error("WithOp should return non-domain errors unchanged")
	}
}

type codedError struct{ code, msg string }

func (e *codedError) Error() string        { return e.msg }
func (e *codedError) ErrorCode() string    { return e.code }
func (e *codedError) ErrorMessage() string { return e.msg }

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "domain error", err: &Error{Code: EINVALID, Message: "test"}, expected: EINVALID},
		{name: "wrapped domain error", err: fmt.Errorf("wrapped: %w", &Error{Code: ENOTFOUND, Message: "test"}), expected: ENOTFOUND},
		{name: "package error type", err: &codedError{code: EUNAVAILABLE, msg: "down"}, expected: EUNAVAILABLE},
		{name: "validation error", err: NewValidationError("address.create", "pincode", "bad"), expected: EINVALID},
		{name: "non-domain error", err: errors.New("some error"), expected: EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil error", err: nil, expected: ""},
		{name: "domain error with message", err: &Error{Code: EINVALID, Message: "Only 2 left in stock"}, expected: "Only 2 left in stock"},
		{name: "internal error hides message", err: &Error{Code: EINTERNAL, Message: "token leaked"}, expected: genericMessage},
		{name: "package error type", err: &codedError{code: ECONFLICT, msg: "already cancelled"}, expected: "already cancelled"},
		{name: "internal package error hides message", err: &codedError{code: EINTERNAL, msg: "disk path"}, expected: genericMessage},
		{name: "non-domain error returns generic message", err: errors.New("some internal detail"), expected: genericMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(ECONFLICT, "cart.add", "only %d left in stock", 3)

	var domainErr *Error
	if !errors.As(err, &domainErr) {
		t.Fatal("Errorf should return *Error")
	}
	if domainErr.Code != ECONFLICT {
		t.Errorf("Code = %q, want %q", domainErr.Code, ECONFLICT)
	}
	if domainErr.Op != "cart.add" {
		t.Errorf("Op = %q, want %q", domainErr.Op, "cart.add")
	}
	if domainErr.Message != "only 3 left in stock" {
		t.Errorf("Message = %q, want %q", domainErr.Message, "only 3 left in stock")
	}
}

func TestWrapError(t *testing.T) {
	t.Run("wraps non-nil error", func(t *testing.T) {
		underlying := errors.New("dial tcp: refused")
		err := WrapError(underlying, EUNAVAILABLE, "api.get_product", "store unreachable")

		if ErrorCode(err) != EUNAVAILABLE {
			t.Errorf("Code = %q, want %q", ErrorCode(err), EUNAVAILABLE)
		}
		if !errors.Is(err, underlying) {
			t.Error("should wrap underlying error")
		}
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		if err := WrapError(nil, EINTERNAL, "test", "test"); err != nil {
			t.Errorf("WrapError(nil) should return nil, got %v", err)
		}
	})
}

func TestValidationError(t *testing.T) {
	t.Run("single field error", func(t *testing.T) {
		err := NewValidationError("address.create", "pincode", "Enter a valid 6-digit pincode")

		expected := "address.create: pincode: Enter a valid 6-digit pincode"
		if err.Error() != expected {
			t.Errorf("Error() = %q, want %q", err.Error(), expected)
		}
	})

	t.Run("multiple field errors summarise in field order", func(t *testing.T) {
		err := NewValidationError("address.create", "phone", "Enter a valid phone number")
		err = AddFieldError(err, "city", "City is required")

		fields := GetValidationFields(err)
		if len(fields) != 2 {
			t.Fatalf("Fields count = %d, want 2", len(fields))
		}
		if got := ErrorMessage(err); got != "City is required; Enter a valid phone number" {
			t.Errorf("ErrorMessage() = %q", got)
		}
	})

	t.Run("add field to nil", func(t *testing.T) {
		err := AddFieldError(nil, "fullName", "Full name is required")
		if !IsValidationError(err) {
			t.Fatal("AddFieldError(nil) should return *ValidationError")
		}
	})

	t.Run("non-validation error has no fields", func(t *testing.T) {
		if GetValidationFields(errors.New("test")) != nil {
			t.Error("GetValidationFields should return nil for non-validation error")
		}
	})
}

func TestIsCode(t *testing.T) {
	if !IsCode(NotFound("checkout.select_address", "address", "a1"), ENOTFOUND) {
		t.Error("NotFound should carry ENOTFOUND")
	}
	if !IsCode(Invalid("x", "y"), EINVALID) {
		t.Error("Invalid should carry EINVALID")
	}
	if !IsCode(Conflict("x", "y"), ECONFLICT) {
		t.Error("Conflict should carry ECONFLICT")
	}
	if !IsCode(Internal(errors.New("boom"), "x", "y"), EINTERNAL) {
		t.Error("Internal should carry EINTERNAL")
	}
	if !IsCode(errors.New("test"), EINTERNAL) {
		t.Error("non-domain error should match EINTERNAL")
	}
}
