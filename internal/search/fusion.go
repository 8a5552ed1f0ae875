package search

import (
	"github.com/oOSomnus/codii/internal/store"
)

// fused accumulates one chunk's Reciprocal Rank Fusion score across the two
// retrievers before payloads are attached.
type fused struct {
	chunkID     int64
	bm25Score   float64
	bm25Rank    int
	vectorScore float64
	vectorRank  int
	combined    float64
}

// rrfFuse combines BM25 rows and vector results with Reciprocal Rank
// Fusion: for each list and each 1-based rank r, contribute weight/(k+r) to
// that chunk's combined score. A chunk absent from a list simply
// contributes 0 from that list; there is no missing-rank substitution.
func rrfFuse(bm25 []store.BM25Row, vector []store.VectorResult, w Weights, k int) map[int64]*fused {
	results := make(map[int64]*fused)

	get := func(id int64) *fused {
		if f, ok := results[id]; ok {
			return f
		}
		f := &fused{chunkID: id}
		results[id] = f
		return f
	}

	for i, row := range bm25 {
		rank := i + 1
		f := get(row.ID)
		f.bm25Score = row.Score
		f.bm25Rank = rank
		f.combined += w.BM25 / float64(k+rank)
	}

	for i, r := range vector {
		rank := i + 1
		f := get(r.ChunkID)
		f.vectorScore = float64(r.Score)
		f.vectorRank = rank
		f.combined += w.Vector / float64(k+rank)
	}

	return results
}
