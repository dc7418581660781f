package utils

import "cmp"

// Clamp limits value to the inclusive range [low, high].
func Clamp[T cmp.Ordered](low, high, value T) T {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

// ClampBool maps a wire integer onto a flag, treating anything above zero as set.
func ClampBool(value int32) bool {
	return Clamp(0, 1, value) == 1
}
