package similarity

import "math"

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector has zero norm.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// BoostVector scales every third component by 1+confidence*0.1. The input
// is not modified.
func BoostVector(v []float32, confidence float64) []float32 {
	if len(v) == 0 {
		return v
	}
	out := make([]float32, len(v))
	copy(out, v)
	f := float32(1 + confidence*0.1)
	for i := 0; i < len(out); i += 3 {
		out[i] *= f
	}
	return out
}
