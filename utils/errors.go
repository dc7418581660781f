package utils

import (
	"github.com/pkg/errors"
)

// NewOutOfRangeError is used when a configured value falls outside its allowed range.
func NewOutOfRangeError(name string, value, low, high interface{}) error {
	return errors.Errorf("%s must be between %v and %v, got %v", name, low, high, value)
}

// NewConfigValidationFieldRequiredError is used when a required config field is missing.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return errors.Errorf("%s: %q is required", path, field)
}
