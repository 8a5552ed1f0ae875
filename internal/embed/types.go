// Package embed defines the abstract Embedder and CrossEncoder capabilities
// consumed by the rest of codii, plus a deterministic implementation of each
// (hashed embeddings, token-overlap cross-encoding) usable without a network
// call or model weights.
package embed

import (
	"context"
	"math"
)

// DefaultDimensions is the embedding dimension produced by StaticEmbedder.
const DefaultDimensions = 256

// DefaultBatchSize is the default embedding batch size.
const DefaultBatchSize = 32

// Embedder turns text into dense vectors. Real backends (local model
// servers, hosted APIs) are wired in behind this interface; codii's core
// components never construct one concretely.
type Embedder interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts in one call.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension produced by this Embedder.
	Dimensions() int

	// Available reports whether the embedder is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases any held resources.
	Close() error
}

// CrossEncoder scores (query, passage) pairs directly, returning a raw
// relevance logit per passage (not yet normalized). The Hybrid Retriever
// applies the sigmoid normalization itself.
type CrossEncoder interface {
	// Score returns one logit per passage, in the same order as passages.
	Score(ctx context.Context, query string, passages []string) ([]float64, error)

	Available(ctx context.Context) bool
	Close() error
}

// normalizeVector normalizes v to unit length, returning v unchanged if it
// is the zero vector.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
