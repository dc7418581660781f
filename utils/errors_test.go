package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestNewOutOfRangeError(t *testing.T) {
	for _, tc := range []struct {
		name      string
		value     interface{}
		low, high interface{}
		errStr    string
	}{
		{"y_high", 256, 0, 255, `y_high must be between 0 and 255, got 256`},
		{"frequency_hz", 250.5, 0, 200, `frequency_hz must be between 0 and 200, got 250.5`},
		{"rotation", int32(-1), 0, 359, `rotation must be between 0 and 359, got -1`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := NewOutOfRangeError(tc.name, tc.value, tc.low, tc.high)
			test.That(t, err.Error(), test.ShouldEqual, tc.errStr)
		})
	}
}

func TestNewConfigValidationFieldRequiredError(t *testing.T) {
	err := NewConfigValidationFieldRequiredError("control", "listen_address")
	test.That(t, err.Error(), test.ShouldEqual, `control: "listen_address" is required`)
}
