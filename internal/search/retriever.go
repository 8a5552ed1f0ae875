package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/oOSomnus/codii/internal/embed"
	"github.com/oOSomnus/codii/internal/store"
)

// Retriever is the hybrid (BM25 + ANN) search entry point.
type Retriever struct {
	chunkStore   *store.ChunkStore
	vectorStore  *store.VectorStore
	embedder     embed.Embedder
	crossEncoder embed.CrossEncoder
	config       Config
}

// New creates a Retriever over the given stores and capabilities.
// crossEncoder may be nil; re-ranking is then unavailable regardless of
// cfg.RerankEnabled.
func New(chunkStore *store.ChunkStore, vectorStore *store.VectorStore, embedder embed.Embedder, crossEncoder embed.CrossEncoder, cfg Config) *Retriever {
	return &Retriever{
		chunkStore:   chunkStore,
		vectorStore:  vectorStore,
		embedder:     embedder,
		crossEncoder: crossEncoder,
		config:       cfg,
	}
}

// Search runs the full retrieval pipeline: parallel BM25 + ANN retrieval,
// RRF fusion, and optional cross-encoder re-ranking.
func (r *Retriever) Search(ctx context.Context, queryText string, limit int, pathFilter string, rerank bool) ([]SearchResult, error) {
	if limit <= 0 || limit > r.config.MaxSearchLimit {
		limit = r.config.MaxSearchLimit
	}

	candidateK := r.candidateK(rerank, limit)
	pathFilter = normalizePathFilter(pathFilter)

	var bm25Rows []store.BM25Row
	var vectorRows []store.VectorResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := r.chunkStore.SearchBM25(gctx, queryText, candidateK, pathFilter)
		if err != nil {
			return err
		}
		bm25Rows = rows
		return nil
	})
	g.Go(func() error {
		if r.embedder == nil {
			return nil
		}
		vec, err := r.embedder.Embed(gctx, queryText)
		if err != nil {
			return err
		}
		rows, err := r.vectorStore.Search(gctx, vec, candidateK)
		if err != nil {
			return err
		}
		vectorRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	k := r.config.KRRF
	if k <= 0 {
		k = 60
	}
	fusedByID := rrfFuse(bm25Rows, vectorRows, r.config.Weights, k)

	chunkByID := make(map[int64]store.CodeChunk, len(bm25Rows))
	for _, row := range bm25Rows {
		chunkByID[row.ID] = row.CodeChunk
	}

	results := make([]SearchResult, 0, len(fusedByID))
	for id, f := range fusedByID {
		chunk, ok := chunkByID[id]
		if !ok {
			stored, found, err := r.chunkStore.GetChunk(ctx, id)
			if err != nil || !found {
				// Missing payload: the chunk was deleted between the ANN
				// search and this lookup. Skip rather than fail the call.
				continue
			}
			chunk = stored.CodeChunk
		}
		results = append(results, SearchResult{
			ID:            id,
			Chunk:         chunk,
			BM25Score:     f.bm25Score,
			VectorScore:   f.vectorScore,
			CombinedScore: f.combined,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].CombinedScore != results[j].CombinedScore {
			return results[i].CombinedScore > results[j].CombinedScore
		}
		return results[i].ID < results[j].ID
	})

	useRerank := rerank && r.config.RerankEnabled && r.crossEncoder != nil
	if !useRerank {
		return r.finalizeRanks(results, limit), nil
	}

	reranked, err := r.applyRerank(ctx, queryText, results)
	if err != nil {
		slog.Warn("cross-encoder re-ranking failed, falling back to RRF order", slog.String("error", err.Error()))
		return r.finalizeRanks(results, limit), nil
	}
	return r.finalizeRanks(reranked, limit), nil
}

func (r *Retriever) candidateK(rerank bool, limit int) int {
	if rerank && r.config.RerankEnabled {
		if r.config.RerankCandidates > 0 {
			return r.config.RerankCandidates
		}
		return 20
	}
	k := 2 * limit
	if k > 50 || k <= 0 {
		k = 50
	}
	return k
}

func (r *Retriever) applyRerank(ctx context.Context, queryText string, results []SearchResult) ([]SearchResult, error) {
	if len(results) == 0 {
		return results, nil
	}

	passages := make([]string, len(results))
	for i, res := range results {
		passages[i] = res.Chunk.Content
	}

	logits, err := r.crossEncoder.Score(ctx, queryText, passages)
	if err != nil {
		return nil, err
	}
	if len(logits) != len(results) {
		return nil, fmt.Errorf("cross-encoder returned %d scores for %d passages", len(logits), len(results))
	}

	out := make([]SearchResult, 0, len(results))
	threshold := r.config.RerankThreshold
	for i, res := range results {
		score := sigmoid(logits[i])
		if score < threshold {
			continue
		}
		res.RerankScore = score
		out = append(out, res)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RerankScore != out[j].RerankScore {
			return out[i].RerankScore > out[j].RerankScore
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Retriever) finalizeRanks(results []SearchResult, limit int) []SearchResult {
	if len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// normalizePathFilter trims surrounding whitespace and slashes so substring
// matching against stored absolute paths behaves the same whether the
// caller passes "internal/foo", "/internal/foo", or "internal/foo/".
func normalizePathFilter(filter string) string {
	return strings.Trim(strings.TrimSpace(filter), "/")
}
