package validation

import (
	"reflect"

	sferrors "github.com/vnykmshr/seqflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return sferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that a count is non-negative (>= 0).
// Returns a ValidationError if the value is negative.
func ValidateNonNegative(module, field string, value int64) error {
	if value < 0 {
		return sferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateFunc validates that a callback is not nil.
// A nil func stored in an interface is not == nil, so the check goes through reflect.
func ValidateFunc(module, field string, fn interface{}) error {
	if fn == nil {
		return sferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a non-nil " + field)
	}
	v := reflect.ValueOf(fn)
	if v.Kind() == reflect.Func && v.IsNil() {
		return sferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a non-nil " + field)
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
// Returns a ValidationError if the value is nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return sferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}
