package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessPlainQuery(t *testing.T) {
	p := New()
	result := p.Process("page table walk")
	assert.Equal(t, "page* OR table* OR walk*", result.FTSQuery)
}

func TestProcessCamelCaseQuery(t *testing.T) {
	p := New()
	result := p.Process("pageTableWalk")
	assert.Contains(t, result.ExpandedTerms, "page")
	assert.Contains(t, result.ExpandedTerms, "table")
	assert.Contains(t, result.ExpandedTerms, "walk")
	assert.Contains(t, result.FTSQuery, "page*")
	assert.Contains(t, result.FTSQuery, "table*")
	assert.Contains(t, result.FTSQuery, "walk*")
}

func TestProcessEmptyQueryYieldsEmptyFTSQuery(t *testing.T) {
	p := New()
	result := p.Process("   ")
	assert.Empty(t, result.FTSQuery)
	assert.Empty(t, result.ExpandedTerms)
}

func TestProcessStripsFTSSpecialChars(t *testing.T) {
	p := New()
	result := p.Process(`alloc("buffer") -test*`)
	for _, term := range result.ExpandedTerms {
		assert.NotContains(t, term, `"`)
		assert.NotContains(t, term, "(")
		assert.NotContains(t, term, "*")
	}
}

func TestProcessExpandsAbbreviations(t *testing.T) {
	p := New()
	result := p.Process("alloc")
	assert.Contains(t, result.ExpandedTerms, "alloc")
	assert.Contains(t, result.ExpandedTerms, "allocate")
	assert.Contains(t, result.ExpandedTerms, "allocator")
}

func TestProcessDropsShortTerms(t *testing.T) {
	p := New()
	result := p.Process("a an the walk")
	assert.NotContains(t, result.Terms, "a")
	assert.Contains(t, result.Terms, "an")
	assert.Contains(t, result.Terms, "the")
	assert.Contains(t, result.Terms, "walk")
}

func TestProcessDeduplicatesPreservingOrder(t *testing.T) {
	p := New()
	result := p.Process("context ctx")
	count := 0
	for _, term := range result.ExpandedTerms {
		if term == "context" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestProcessScreamingSnakeCase(t *testing.T) {
	p := New()
	result := p.Process("MAX_CHUNK_SIZE")
	assert.Contains(t, result.ExpandedTerms, "max")
	assert.Contains(t, result.ExpandedTerms, "chunk")
	assert.Contains(t, result.ExpandedTerms, "size")
}

func TestProcessIdempotentOnNonWildcardParts(t *testing.T) {
	p := New()
	first := p.Process("page table walk")
	second := p.Process(first.FTSQuery)

	for _, term := range first.ExpandedTerms {
		assert.Contains(t, second.ExpandedTerms, term)
	}
}
