package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oOSomnus/codii/internal/store"
)

func TestRRFFuseSymmetricTie(t *testing.T) {
	// Chunk X is 1st by BM25, 3rd by vector; chunk Y is 3rd by BM25, 1st by
	// vector. With equal weights the two must tie exactly.
	bm25 := []store.BM25Row{
		{StoredChunk: store.StoredChunk{ID: 1}},
		{StoredChunk: store.StoredChunk{ID: 99}},
		{StoredChunk: store.StoredChunk{ID: 2}},
	}
	vector := []store.VectorResult{
		{ChunkID: 2},
		{ChunkID: 99},
		{ChunkID: 1},
	}

	fused := rrfFuse(bm25, vector, DefaultWeights(), 60)
	assert.InDelta(t, fused[1].combined, fused[2].combined, 1e-12)
}

func TestRRFFuseFirstInBothWins(t *testing.T) {
	bm25 := []store.BM25Row{
		{StoredChunk: store.StoredChunk{ID: 3}}, // Z: 1st
		{StoredChunk: store.StoredChunk{ID: 1}}, // X: 2nd
	}
	vector := []store.VectorResult{
		{ChunkID: 3}, // Z: 1st
		{ChunkID: 1}, // X: 2nd
	}

	fused := rrfFuse(bm25, vector, DefaultWeights(), 60)
	assert.Greater(t, fused[3].combined, fused[1].combined)
}

func TestRRFFuseAbsentListContributesNothing(t *testing.T) {
	bm25 := []store.BM25Row{{StoredChunk: store.StoredChunk{ID: 1}}}
	fused := rrfFuse(bm25, nil, DefaultWeights(), 60)
	assert.InDelta(t, 0.5/61.0, fused[1].combined, 1e-12)
}

func TestSigmoidBounds(t *testing.T) {
	assert.InDelta(t, 0.5, sigmoid(0), 1e-9)
	assert.Greater(t, sigmoid(10), 0.99)
	assert.Less(t, sigmoid(-10), 0.01)
}
