package address

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/wicket/internal/domain"
)

var (
	// Indian mobile numbers: ten digits starting 6-9, optionally prefixed
	// with +91, 91 or 0.
	mobilePattern  = regexp.MustCompile(`^(?:\+?91|0)?([6-9][0-9]{9})$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	phoneNoise     = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// DefaultCountry is filled in when the form leaves country blank.
const DefaultCountry = "India"

// addressForm carries the validation rules for a delivery address.
type addressForm struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Phone    string `json:"phone" validate:"required,in_mobile"`
	Street   string `json:"street" validate:"required,max=200"`
	City     string `json:"city" validate:"required,max=60"`
	State    string `json:"state" validate:"required,max=60"`
	Pincode  string `json:"pincode" validate:"required,in_pincode"`
	Country  string `json:"country" validate:"required,max=60"`
}

// BasicValidator performs format validation without external API calls.
// Checks for required fields, the mobile number and the pincode format.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so they line up with the form.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "in_mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "in_pincode", func(fl validator.FieldLevel) bool {
		return pincodePattern.MatchString(fl.Field().String())
	})

	return &BasicValidator{validate: v}
}

// mustRegister adds a custom tag or panics. A rule that failed to register
// would otherwise let every value through.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("address: registering %q validation: %v", tag, err))
	}
}

// Validate normalizes the address and checks it.
func (v *BasicValidator) Validate(ctx context.Context, addr domain.Address) (*ValidationResult, error) {
	normalized := Normalize(addr)

	form := addressForm{
		FullName: normalized.FullName,
		Phone:    normalized.Phone,
		Street:   normalized.Street,
		City:     normalized.City,
		State:    normalized.State,
		Pincode:  normalized.Pincode,
		Country:  normalized.Country,
	}

	result := &ValidationResult{IsValid: true, NormalizedAddress: &normalized}

	err := v.validate.StructCtx(ctx, form)
	if err == nil {
		return result, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("validating address: %w", err)
	}

	result.IsValid = false
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return result, nil
}

// Normalize trims every field, reduces the phone number to its ten digits
// when it is a recognisable Indian mobile, and defaults the country.
func Normalize(addr domain.Address) domain.Address {
	addr.FullName = strings.TrimSpace(addr.FullName)
	addr.Street = strings.TrimSpace(addr.Street)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.Pincode = strings.ReplaceAll(strings.TrimSpace(addr.Pincode), " ", "")
	addr.Country = strings.TrimSpace(addr.Country)
	if addr.Country == "" {
		addr.Country = DefaultCountry
	}

	phone := phoneNoise.Replace(strings.TrimSpace(addr.Phone))
	if m := mobilePattern.FindStringSubmatch(phone); m != nil {
		phone = m[1]
	}
	addr.Phone = phone

	return addr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label(fe.Field()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label(fe.Field()), fe.Param())
	case "in_mobile":
		return "Enter a valid 10-digit mobile number"
	case "in_pincode":
		return "Enter a valid 6-digit pincode"
	default:
		return fmt.Sprintf("%s is invalid", label(fe.Field()))
	}
}

var fieldLabels = map[string]string{
	"fullName": "Full name",
	"phone":    "Phone",
	"street":   "Street address",
	"city":     "City",
	"state":    "State",
	"pincode":  "Pincode",
	"country":  "Country",
}

func label(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	return field
}
