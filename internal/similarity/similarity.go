// Package similarity provides the cosine similarity math and threshold
// helpers used by clustering, relationship detection and citation validation.
package similarity

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrEmptyEmbedding indicates a zero-length embedding vector.
	ErrEmptyEmbedding = errors.New("embedding has zero length")
	// ErrDimensionMismatch indicates two embeddings of different dimensions.
	ErrDimensionMismatch = errors.New("embedding dimensions do not match")
	// ErrZeroVector indicates an all-zero embedding, for which cosine
	// similarity is undefined. Returning 0 instead would silently hide a
	// data-quality problem upstream.
	ErrZeroVector = errors.New("embedding is a zero vector")
)

// Thresholds holds the tunable similarity cutoffs. They are empirically
// chosen constants expected to change as the embedding model or article mix
// evolves, so they live in configuration rather than code.
type Thresholds struct {
	Clustering   float64 // two articles are the same story (default 0.85)
	Relationship float64 // pre-filter before relationship detection (default 0.70)
	Citation     float64 // admission cutoff for rendered citations (default 0.75)
}

// DefaultThresholds returns the thresholds the newsletter currently runs with.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Clustering:   0.85,
		Relationship: 0.70,
		Citation:     0.75,
	}
}

// Cosine calculates the cosine similarity between two embeddings, in [-1, 1].
// Malformed input (empty, mismatched or zero vectors) is a fatal error for
// the caller's whole run, never a silent 0.
func Cosine(a, b []float64) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyEmbedding
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// Exceeds reports whether a score clears a threshold. Kept as a named helper
// so the comparison direction is identical at every call site.
func Exceeds(score, threshold float64) bool {
	return score >= threshold
}
