package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestChunkStore(t *testing.T) *ChunkStore {
	t.Helper()
	cs, err := OpenChunkStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestInsertChunksBatchReturnsAssignedIDs(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	ids, err := cs.InsertChunksBatch(ctx, []CodeChunk{
		{Content: "func walkPageTable() {}", Path: "mm/walk.go", StartLine: 1, EndLine: 3, Language: "go", ChunkType: "function", Name: "walkPageTable"},
		{Content: "func allocate() {}", Path: "mm/alloc.go", StartLine: 1, EndLine: 3, Language: "go", ChunkType: "function", Name: "allocate"},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.NotEqual(t, ids[0], ids[1])

	count, err := cs.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSearchBM25FindsMatchingChunk(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	_, err := cs.InsertChunksBatch(ctx, []CodeChunk{
		{Content: "function that walks the page table entries", Path: "mm/walk.go", StartLine: 1, EndLine: 5, Language: "go", ChunkType: "function"},
		{Content: "completely unrelated cooking recipe text", Path: "recipes/soup.go", StartLine: 1, EndLine: 5, Language: "go", ChunkType: "function"},
	})
	require.NoError(t, err)

	rows, err := cs.SearchBM25(ctx, "page table walk", 10, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mm/walk.go", rows[0].Path)
}

func TestSearchBM25EmptyQueryReturnsNoResults(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	_, err := cs.InsertChunksBatch(ctx, []CodeChunk{
		{Content: "some content", Path: "a.go", StartLine: 1, EndLine: 1, Language: "go", ChunkType: "function"},
	})
	require.NoError(t, err)

	rows, err := cs.SearchBM25(ctx, "   ", 10, "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSearchBM25MalformedQueryNeverErrors(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	_, err := cs.InsertChunksBatch(ctx, []CodeChunk{
		{Content: "some content here", Path: "a.go", StartLine: 1, EndLine: 1, Language: "go", ChunkType: "function"},
	})
	require.NoError(t, err)

	rows, err := cs.SearchBM25(ctx, `((()))***"""`, 10, "")
	require.NoError(t, err)
	_ = rows
}

func TestSearchBM25FiltersByPathSubstring(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	_, err := cs.InsertChunksBatch(ctx, []CodeChunk{
		{Content: "allocator function body", Path: "mm/alloc.go", StartLine: 1, EndLine: 2, Language: "go", ChunkType: "function"},
		{Content: "allocator function body", Path: "net/alloc.go", StartLine: 1, EndLine: 2, Language: "go", ChunkType: "function"},
	})
	require.NoError(t, err)

	rows, err := cs.SearchBM25(ctx, "allocator", 10, "mm/")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "mm/alloc.go", rows[0].Path)
}

func TestDeleteChunksByPathRemovesOnlyThatPath(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	_, err := cs.InsertChunksBatch(ctx, []CodeChunk{
		{Content: "a", Path: "a.go", StartLine: 1, EndLine: 1, Language: "go", ChunkType: "function"},
		{Content: "b", Path: "b.go", StartLine: 1, EndLine: 1, Language: "go", ChunkType: "function"},
	})
	require.NoError(t, err)

	n, err := cs.DeleteChunksByPath(ctx, "a.go")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	count, err := cs.CountChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClearAllChunksEmptiesStoreAndFiles(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	_, err := cs.InsertChunksBatch(ctx, []CodeChunk{
		{Content: "a", Path: "a.go", StartLine: 1, EndLine: 1, Language: "go", ChunkType: "function"},
	})
	require.NoError(t, err)
	require.NoError(t, cs.UpsertFileHash(ctx, "a.go", "deadbeef"))

	n, err := cs.ClearAllChunks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	hashes, err := cs.GetAllFileHashes(ctx)
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestUpsertFileHashOverwritesExisting(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	require.NoError(t, cs.UpsertFileHash(ctx, "a.go", "hash1"))
	require.NoError(t, cs.UpsertFileHash(ctx, "a.go", "hash2"))

	hashes, err := cs.GetAllFileHashes(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hash2", hashes["a.go"])
}

func TestGetChunkIDsByPath(t *testing.T) {
	cs := openTestChunkStore(t)
	ctx := context.Background()

	ids, err := cs.InsertChunksBatch(ctx, []CodeChunk{
		{Content: "a", Path: "a.go", StartLine: 1, EndLine: 1, Language: "go", ChunkType: "function"},
		{Content: "b", Path: "a.go", StartLine: 2, EndLine: 2, Language: "go", ChunkType: "function"},
		{Content: "c", Path: "b.go", StartLine: 1, EndLine: 1, Language: "go", ChunkType: "function"},
	})
	require.NoError(t, err)

	gotIDs, err := cs.GetChunkIDsByPath(ctx, "a.go")
	require.NoError(t, err)
	assert.ElementsMatch(t, ids[:2], gotIDs)
}

func TestGetChunkReturnsFalseWhenAbsent(t *testing.T) {
	cs := openTestChunkStore(t)
	_, ok, err := cs.GetChunk(context.Background(), 9999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOperationsAfterCloseFail(t *testing.T) {
	cs, err := OpenChunkStore("")
	require.NoError(t, err)
	require.NoError(t, cs.Close())
	require.NoError(t, cs.Close())

	_, err = cs.InsertChunksBatch(context.Background(), []CodeChunk{{Content: "x", Path: "x.go"}})
	assert.Error(t, err)
}
