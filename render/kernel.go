// Package render holds the per-pixel escape-time algorithm and its color mapping.
package render

// EscapeRadiusSquared bounds the orbit: escape radius 4.
const EscapeRadiusSquared = 16.0

// EscapeTime iterates z = z² + c for c = (fx, fy), starting at z = c.
// It returns the 0-based iteration at which |z|² exceeds EscapeRadiusSquared,
// or maxIter if the orbit stays bounded.
// Inf escapes at once; NaN never compares greater and runs to maxIter.
func EscapeTime(fx, fy float64, maxIter int) int {
	a, b := fx, fy
	n := 0
	for ; n < maxIter; n++ {
		aa := a * a
		bb := b * b
		twoab := 2 * a * b
		a = aa - bb + fx
		b = twoab + fy
		if aa+bb > EscapeRadiusSquared {
			return n
		}
	}
	return maxIter
}
