// Package match decides identity from face embeddings: cosine similarity,
// 1:1 verification against a single reference, and 1:N identification over
// a registry snapshot.
package match

import "math"

// Similarity computes the cosine similarity between two vectors.
// Returns a value between -1 (opposite) and 1 (identical direction).
// Mismatched, empty or zero vectors score -1 so they can never match.
func Similarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return -1
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}

	return similarity
}

// Verify performs 1:1 verification of a probe against a stored reference.
// Accepts when similarity reaches the threshold.
func Verify(probe, reference []float32, threshold float64) (float64, bool) {
	sim := Similarity(probe, reference)
	return sim, sim >= threshold
}
