// Package search implements the hybrid retriever: it runs BM25 and ANN
// retrieval in parallel, fuses their rankings with Reciprocal Rank Fusion,
// and optionally applies cross-encoder re-ranking.
package search

import "github.com/oOSomnus/codii/internal/store"

// SearchResult is one fused (and optionally re-ranked) hit.
type SearchResult struct {
	ID            int64
	Chunk         store.CodeChunk
	BM25Score     float64
	VectorScore   float64
	CombinedScore float64
	RerankScore   float64
	Rank          int
}

// Weights controls how much each retriever contributes to the fused score.
type Weights struct {
	BM25   float64
	Vector float64
}

// DefaultWeights gives BM25 and vector scores equal weight.
func DefaultWeights() Weights {
	return Weights{BM25: 0.5, Vector: 0.5}
}

// Config configures a Retriever.
type Config struct {
	Weights          Weights
	KRRF             int
	MaxSearchLimit   int
	RerankCandidates int
	RerankThreshold  float64
	RerankEnabled    bool
}

// DefaultConfig returns the documented retrieval defaults.
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		KRRF:             60,
		MaxSearchLimit:   50,
		RerankCandidates: 20,
		RerankThreshold:  0.5,
		RerankEnabled:    true,
	}
}
