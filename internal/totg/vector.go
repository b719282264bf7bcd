package totg

import (
	"gonum.org/v1/gonum/floats"
)

// Configuration vectors are plain []float64 slices of fixed dimension.
// Helpers below always allocate their result; inputs are never aliased.

func vecClone(a []float64) []float64 {
	return append([]float64(nil), a...)
}

func vecSub(a, b []float64) []float64 {
	dst := make([]float64, len(a))
	floats.SubTo(dst, a, b)
	return dst
}

func vecAdd(a, b []float64) []float64 {
	dst := make([]float64, len(a))
	floats.AddTo(dst, a, b)
	return dst
}

// vecAddScaled returns a + k*b.
func vecAddScaled(a []float64, k float64, b []float64) []float64 {
	dst := vecClone(a)
	floats.AddScaled(dst, k, b)
	return dst
}

func vecScale(k float64, a []float64) []float64 {
	dst := vecClone(a)
	floats.Scale(k, dst)
	return dst
}

func vecNorm(a []float64) float64 {
	return floats.Norm(a, 2)
}

// vecNormalize returns a/‖a‖. The caller must ensure ‖a‖ > 0.
func vecNormalize(a []float64) []float64 {
	return vecScale(1/vecNorm(a), a)
}

// vecMidpoint returns (a+b)/2.
func vecMidpoint(a, b []float64) []float64 {
	return vecScale(0.5, vecAdd(a, b))
}

func vecZero(dim int) []float64 {
	return make([]float64, dim)
}
