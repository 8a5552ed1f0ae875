package embed

import (
	"context"
	"fmt"
	"math"
	"sync"
)

// StaticCrossEncoder scores (query, passage) pairs by token overlap,
// mapped onto a logit scale so that it composes with the sigmoid
// normalization the Hybrid Retriever applies. Like StaticEmbedder, it
// trades semantic quality for a dependency-free, deterministic backend.
type StaticCrossEncoder struct {
	mu     sync.RWMutex
	closed bool
}

// NewStaticCrossEncoder creates a StaticCrossEncoder.
func NewStaticCrossEncoder() *StaticCrossEncoder {
	return &StaticCrossEncoder{}
}

func (c *StaticCrossEncoder) Score(_ context.Context, query string, passages []string) ([]float64, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("cross-encoder is closed")
	}

	queryTokens := tokenSet(query)
	logits := make([]float64, len(passages))
	for i, passage := range passages {
		logits[i] = overlapLogit(queryTokens, tokenSet(passage))
	}
	return logits, nil
}

func (c *StaticCrossEncoder) Available(_ context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

func (c *StaticCrossEncoder) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokenize(text) {
		set[t] = true
	}
	return set
}

// overlapLogit maps the fraction of query tokens present in the passage
// onto (-inf, inf) via a logit transform, so the caller's sigmoid recovers
// the coverage as a score. Coverage rather than symmetric Jaccard: a long
// passage containing every query term is fully relevant regardless of how
// many other tokens it carries. An empty query or passage yields 0.
func overlapLogit(query, passage map[string]bool) float64 {
	if len(query) == 0 || len(passage) == 0 {
		return 0
	}

	covered := 0
	for t := range query {
		if passage[t] {
			covered++
		}
	}

	coverage := float64(covered) / float64(len(query))
	// Clamp away from the poles so the logit stays finite.
	coverage = math.Min(math.Max(coverage, 1e-6), 1-1e-6)
	return math.Log(coverage / (1 - coverage))
}

var _ CrossEncoder = (*StaticCrossEncoder)(nil)
