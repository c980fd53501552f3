package local

import "math"

// MeanPool averages the token states whose mask entry is non-zero.
// Returns nil when no token is unmasked.
func MeanPool(out Output) []float32 {
	var sum []float32
	count := 0
	for i, state := range out.States {
		if out.Mask != nil && (i >= len(out.Mask) || out.Mask[i] == 0) {
			continue
		}
		if sum == nil {
			sum = make([]float32, len(state))
		}
		for j := range min(len(sum), len(state)) {
			sum[j] += state[j]
		}
		count++
	}
	if count == 0 {
		return nil
	}
	for j := range sum {
		sum[j] /= float32(count)
	}
	return sum
}

// Normalize scales a vector to unit length.
// Returns a new slice; the input is not modified. A zero vector stays zero.
func Normalize(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}
