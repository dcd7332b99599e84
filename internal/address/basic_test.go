package address

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/wicket/internal/domain"
)

func validAddress() domain.Address {
	return domain.Address{
		FullName: "Asha Rao",
		Phone:    "9876543210",
		Street:   "12 MG Road",
		City:     "Bengaluru",
		State:    "Karnataka",
		Pincode:  "560001",
		Country:  "India",
	}
}

func TestBasicValidator_Valid(t *testing.T) {
	v := NewBasicValidator()

	result, err := v.Validate(context.Background(), validAddress())
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Nil(t, result.Err("address.create"))
}

func TestBasicValidator_PhoneFormats(t *testing.T) {
	v := NewBasicValidator()

	tests := []struct {
		phone     string
		valid     bool
		wantPhone string
	}{
		{"9876543210", true, "9876543210"},
		{"+91 98765 43210", true, "9876543210"},
		{"+91-9876543210", true, "9876543210"},
		{"09876543210", true, "9876543210"},
		{"919876543210", true, "9876543210"},
		{"9123456789", true, "9123456789"},
		{"5876543210", false, ""},
		{"987654321", false, ""},
		{"98765432101", false, ""},
		{"98765abcde", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			addr := validAddress()
			addr.Phone = tt.phone

			result, err := v.Validate(context.Background(), addr)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.IsValid, "errors: %v", result.Errors)
			if tt.valid {
				assert.Equal(t, tt.wantPhone, result.NormalizedAddress.Phone)
			} else {
				require.Len(t, result.Errors, 1)
				assert.Equal(t, "phone", result.Errors[0].Field)
			}
		})
	}
}

func TestBasicValidator_Pincode(t *testing.T) {
	v := NewBasicValidator()

	tests := []struct {
		pincode string
		valid   bool
	}{
		{"560001", true},
		{" 110 001 ", true},
		{"060001", false},
		{"56001", false},
		{"5600011", false},
		{"56000A", false},
	}

	for _, tt := range tests {
		t.Run(tt.pincode, func(t *testing.T) {
			addr := validAddress()
			addr.Pincode = tt.pincode

			result, err := v.Validate(context.Background(), addr)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.IsValid)
		})
	}
}

func TestBasicValidator_RequiredFields(t *testing.T) {
	v := NewBasicValidator()

	result, err := v.Validate(context.Background(), domain.Address{Country: "India"})
	require.NoError(t, err)
	assert.False(t, result.IsValid)

	fields := map[string]string{}
	for _, e := range result.Errors {
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "Full name is required", fields["fullName"])
	assert.Equal(t, "Phone is required", fields["phone"])
	assert.Equal(t, "Street address is required", fields["street"])
	assert.Contains(t, fields, "city")
	assert.Contains(t, fields, "state")
	assert.Contains(t, fields, "pincode")
	assert.NotContains(t, fields, "country")

	err = result.Err("address.create")
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	assert.Len(t, domain.GetValidationFields(err), 6)
}

func TestNormalize(t *testing.T) {
	addr := Normalize(domain.Address{
		FullName: "  Asha Rao ",
		Phone:    "+91 (98765) 43210",
		Pincode:  "560 001",
	})

	assert.Equal(t, "Asha Rao", addr.FullName)
	assert.Equal(t, "9876543210", addr.Phone)
	assert.Equal(t, "560001", addr.Pincode)
	assert.Equal(t, DefaultCountry, addr.Country)
}

func TestMockValidator(t *testing.T) {
	m := NewMockValidator()
	result, err := m.Validate(context.Background(), domain.Address{})
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}

func TestMustRegister_PanicsOnBadTag(t *testing.T) {
	v := validator.New()
	accept := func(validator.FieldLevel) bool { return true }

	assert.Panics(t, func() { mustRegister(v, "", accept) })
	assert.Panics(t, func() { mustRegister(v, "in_mobile", nil) })
	assert.NotPanics(t, func() { mustRegister(v, "in_mobile", accept) })
}
