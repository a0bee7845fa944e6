package math

import (
	m "math"

	"golang.org/x/exp/constraints"
)

/** @brief Default tolerance used when comparing accumulated weights. */
const K_WEIGHT_EPSILON float64 = 1e-6

// Clamp returns the value `f` clamped to the range [low, high].
// It works for any numeric type (integers and floats).
func Clamp[T constraints.Ordered](f, low, high T) T {
	if f < low {
		return low
	}
	if f > high {
		return high
	}
	return f
}

// Sum adds up all values of `s`.
func Sum[T constraints.Integer | constraints.Float](s []T) T {
	var total T
	for _, v := range s {
		total += v
	}
	return total
}

/**
 * @brief Indicates if the difference between a and b is within tolerance.
 *
 * @param a The first value.
 * @param b The second value.
 * @param tolerance The difference tolerance. Typically K_WEIGHT_EPSILON.
 * @return True if within tolerance; otherwise false.
 */
func NearlyEqual[T constraints.Float](a, b, tolerance T) bool {
	return T(m.Abs(float64(a-b))) <= tolerance
}
