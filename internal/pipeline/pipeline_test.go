package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oOSomnus/codii/internal/chunk"
	"github.com/oOSomnus/codii/internal/embed"
	"github.com/oOSomnus/codii/internal/layout"
	"github.com/oOSomnus/codii/internal/registry"
	"github.com/oOSomnus/codii/internal/scanner"
	"github.com/oOSomnus/codii/internal/store"
)

func newTestPipeline(t *testing.T, baseDir string) *Pipeline {
	t.Helper()
	scn, err := scanner.New()
	require.NoError(t, err)

	lm := layout.New(baseDir)
	reg := registry.New(lm.SnapshotFile())

	cfg := StoreConfig{
		Scan: scanner.Options{
			Extensions:       []string{".go", ".py"},
			RespectGitignore: false,
		},
		Chunking:       chunk.DefaultOptions(),
		VectorStore:    store.VectorStoreConfig{Dimensions: embed.DefaultDimensions},
		EmbeddingBatch: 8,
	}

	return New(lm, reg, scn, chunk.New(), embed.NewStaticEmbedder(), cfg)
}

func waitForTerminal(t *testing.T, p *Pipeline, path string) registry.CodebaseStatus {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status, err := p.registry.GetStatus(path)
		require.NoError(t, err)
		if status.StatusValue == registry.StatusIndexed || status.StatusValue == registry.StatusFailed {
			return status
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("timed out waiting for indexing run to finish")
	return registry.CodebaseStatus{}
}

func writeRepoFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestIndexFullRunThenIncrementalAdd(t *testing.T) {
	repo := t.TempDir()
	baseDir := t.TempDir()
	writeRepoFiles(t, repo, map[string]string{
		"main.go": "package main\n\nfunc main() {\n\tprintln(\"hi\")\n}\n",
		"util.go": "package main\n\nfunc helper() int {\n\treturn 42\n}\n",
	})

	p := newTestPipeline(t, baseDir)
	ctx := context.Background()

	msg, err := p.Index(ctx, repo, Options{})
	require.NoError(t, err)
	require.Equal(t, "Indexing started", msg)

	status := waitForTerminal(t, p, mustAbs(t, repo))
	require.Equal(t, registry.StatusIndexed, status.StatusValue)
	require.Equal(t, 2, status.IndexedFiles)
	require.Greater(t, status.TotalChunks, 0)

	writeRepoFiles(t, repo, map[string]string{
		"extra.go": "package main\n\nfunc extra() string {\n\treturn \"added\"\n}\n",
	})

	msg, err = p.Index(ctx, repo, Options{})
	require.NoError(t, err)
	require.Equal(t, "Indexing started", msg)

	status = waitForTerminal(t, p, mustAbs(t, repo))
	require.Equal(t, registry.StatusIndexed, status.StatusValue)
	require.Equal(t, 3, status.IndexedFiles)
}

func TestIndexIncrementalRemoval(t *testing.T) {
	repo := t.TempDir()
	baseDir := t.TempDir()
	writeRepoFiles(t, repo, map[string]string{
		"a.go": "package main\n\nfunc A() {}\n",
		"b.go": "package main\n\nfunc B() {}\n",
	})

	p := newTestPipeline(t, baseDir)
	ctx := context.Background()

	_, err := p.Index(ctx, repo, Options{})
	require.NoError(t, err)
	status := waitForTerminal(t, p, mustAbs(t, repo))
	require.Equal(t, registry.StatusIndexed, status.StatusValue)
	chunksBefore := status.TotalChunks

	require.NoError(t, os.Remove(filepath.Join(repo, "b.go")))

	_, err = p.Index(ctx, repo, Options{})
	require.NoError(t, err)
	status = waitForTerminal(t, p, mustAbs(t, repo))
	require.Equal(t, registry.StatusIndexed, status.StatusValue)
	require.Equal(t, 1, status.IndexedFiles)
	require.Less(t, status.TotalChunks, chunksBefore)

	// Chunk rows are keyed by absolute file path; the removed file's ids
	// are gone while the surviving file's remain.
	cs, err := store.OpenChunkStore(p.layout.ChunkStorePath(mustAbs(t, repo)))
	require.NoError(t, err)
	defer cs.Close()

	removedIDs, err := cs.GetChunkIDsByPath(ctx, filepath.Join(mustAbs(t, repo), "b.go"))
	require.NoError(t, err)
	require.Empty(t, removedIDs)

	keptIDs, err := cs.GetChunkIDsByPath(ctx, filepath.Join(mustAbs(t, repo), "a.go"))
	require.NoError(t, err)
	require.NotEmpty(t, keptIDs)
}

func TestIndexNoChangesDetected(t *testing.T) {
	repo := t.TempDir()
	baseDir := t.TempDir()
	writeRepoFiles(t, repo, map[string]string{
		"a.go": "package main\n\nfunc A() {}\n",
	})

	p := newTestPipeline(t, baseDir)
	ctx := context.Background()

	_, err := p.Index(ctx, repo, Options{})
	require.NoError(t, err)
	waitForTerminal(t, p, mustAbs(t, repo))

	msg, err := p.Index(ctx, repo, Options{})
	require.NoError(t, err)
	require.Equal(t, "no changes detected", msg)
}

func TestIndexRejectsAlreadyIndexing(t *testing.T) {
	repo := t.TempDir()
	baseDir := t.TempDir()
	writeRepoFiles(t, repo, map[string]string{
		"a.go": "package main\n\nfunc A() {}\n",
	})

	p := newTestPipeline(t, baseDir)
	ctx := context.Background()

	require.NoError(t, p.registry.MarkIndexing(mustAbs(t, repo), 1))

	_, err := p.Index(ctx, repo, Options{})
	require.Error(t, err)
}

func TestIndexRejectsMissingPath(t *testing.T) {
	p := newTestPipeline(t, t.TempDir())
	_, err := p.Index(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"), Options{})
	require.Error(t, err)
}

func TestIndexMarksFailedWhenNoFilesFound(t *testing.T) {
	repo := t.TempDir()
	baseDir := t.TempDir()

	p := newTestPipeline(t, baseDir)
	ctx := context.Background()

	msg, err := p.Index(ctx, repo, Options{})
	require.NoError(t, err)
	require.Equal(t, "Indexing started", msg)

	status := waitForTerminal(t, p, mustAbs(t, repo))
	require.Equal(t, registry.StatusFailed, status.StatusValue)
}

func mustAbs(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return abs
}
