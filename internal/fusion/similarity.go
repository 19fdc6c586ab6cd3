package fusion

import "math"

// Cosine returns the cosine similarity of two vectors, 0 for mismatched
// dimensions or zero vectors.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// OverlapRatio returns the shared fraction of two entity sets, measured
// against the smaller set. 0 when either set is empty.
func OverlapRatio(a, b []string) float64 {
	setA := make(map[string]bool, len(a))
	for _, e := range a {
		setA[e] = true
	}
	setB := make(map[string]bool, len(b))
	for _, e := range b {
		setB[e] = true
	}

	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for e := range setA {
		if setB[e] {
			shared++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}

	return float64(shared) / float64(smaller)
}

// AlignStepVectors scores two ordered step sequences by positional cosine
// similarity, scaled by length agreement. 1.0 means identical sequences.
func AlignStepVectors(a, b [][]float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += Cosine(a[i], b[i])
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}

	return (sum / float64(n)) * (float64(n) / float64(longer))
}

// AlignStepText is the fallback alignment when step embeddings are absent:
// positional exact-match ratio scaled by length agreement.
func AlignStepText(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	matched := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matched++
		}
	}

	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}

	return (float64(matched) / float64(n)) * (float64(n) / float64(longer))
}
