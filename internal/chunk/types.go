// Package chunk implements the Syntax Chunker: it splits a
// file's text into CodeChunk records using a tree-sitter traversal for
// recognised languages, with a graceful fallback to line-window chunking
// for everything else.
package chunk

import "github.com/oOSomnus/codii/internal/store"

// CodeChunk mirrors store.CodeChunk; the chunker and the chunk store share
// the same shape so chunks can be handed to InsertChunksBatch unmodified.
type CodeChunk = store.CodeChunk

// Options configures one chunking call.
type Options struct {
	MaxChunkSize int
	MinChunkSize int
	ChunkOverlap int
}

// DefaultOptions mirrors chunking defaults.
func DefaultOptions() Options {
	return Options{
		MaxChunkSize: 1500,
		MinChunkSize: 100,
		ChunkOverlap: 200,
	}
}

func (o Options) maxChunkSize() int {
	if o.MaxChunkSize <= 0 {
		return DefaultOptions().MaxChunkSize
	}
	return o.MaxChunkSize
}

func (o Options) minChunkSize() int {
	if o.MinChunkSize <= 0 {
		return DefaultOptions().MinChunkSize
	}
	return o.MinChunkSize
}

func (o Options) chunkOverlap() int {
	if o.ChunkOverlap <= 0 {
		return DefaultOptions().ChunkOverlap
	}
	return o.ChunkOverlap
}

// semanticFloor is the relaxed minimum length a syntax-tree chunk must meet
// to be emitted.
func semanticFloor(minChunkSize int) int {
	floor := minChunkSize / 5
	if floor < 20 {
		return 20
	}
	return floor
}
