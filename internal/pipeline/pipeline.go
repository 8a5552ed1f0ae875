// Package pipeline implements the Indexing Pipeline: the
// orchestrator that ties the scanner, Merkle snapshot, Syntax Chunker,
// Embedder, Chunk Store, Vector Store, and Snapshot Registry together into
// a staged, resumable-by-rerun repository index.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/oOSomnus/codii/internal/chunk"
	"github.com/oOSomnus/codii/internal/embed"
	codiierrors "github.com/oOSomnus/codii/internal/errors"
	"github.com/oOSomnus/codii/internal/layout"
	"github.com/oOSomnus/codii/internal/merkle"
	"github.com/oOSomnus/codii/internal/registry"
	"github.com/oOSomnus/codii/internal/scanner"
	"github.com/oOSomnus/codii/internal/store"
)

// Options configures one Index call: (path, custom_extensions,
// ignore_patterns, force). Splitter selection is implicit: the syntax
// chunker always runs, falling back to the line-window chunker per file
// as needed, so there is no separate splitter knob to plumb through.
type Options struct {
	CustomExtensions []string
	IgnorePatterns   []string
	Force            bool
}

// StoreConfig bundles the tunables the pipeline needs to open or create a
// repository's Chunk Store and Vector Store and to drive chunking.
type StoreConfig struct {
	Scan           scanner.Options
	Chunking       chunk.Options
	VectorStore    store.VectorStoreConfig
	EmbeddingBatch int
}

// Pipeline orchestrates indexing runs for any number of repositories. A
// single Pipeline value is safe to reuse across repositories; per-run state
// lives entirely in the goroutine spawned by Index.
type Pipeline struct {
	layout   *layout.Manager
	registry *registry.Registry
	scanner  *scanner.Scanner
	chunker  *chunk.Chunker
	embedder embed.Embedder
	cfg      StoreConfig
}

// New creates a Pipeline.
func New(lm *layout.Manager, reg *registry.Registry, scn *scanner.Scanner, chunker *chunk.Chunker, embedder embed.Embedder, cfg StoreConfig) *Pipeline {
	return &Pipeline{
		layout:   lm,
		registry: reg,
		scanner:  scn,
		chunker:  chunker,
		embedder: embedder,
		cfg:      cfg,
	}
}

// Index runs the pre-flight checks synchronously and, unless the run short
// circuits, spawns the worker goroutine and returns immediately. The
// returned string is the user-facing message: "no changes detected" or
// "Indexing started".
func (p *Pipeline) Index(ctx context.Context, path string, opts Options) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", codiierrors.PathError(codiierrors.ErrCodePathNotFound, path, err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", codiierrors.PathError(codiierrors.ErrCodePathNotFound, absPath, err)
	}
	if !info.IsDir() {
		return "", codiierrors.PathError(codiierrors.ErrCodePathNotDir, absPath, nil)
	}

	indexing, err := p.registry.IsIndexing(absPath)
	if err != nil {
		return "", err
	}
	if indexing {
		return "", codiierrors.AlreadyIndexing(absPath)
	}

	scanOpts := p.scanOptions(opts)

	status, err := p.registry.GetStatus(absPath)
	if err != nil {
		return "", err
	}

	if status.StatusValue == registry.StatusIndexed && !opts.Force {
		files, err := p.scanner.Scan(ctx, absPath, scanOpts)
		if err != nil {
			return "", err
		}
		newSnap := snapshotFrom(files)
		if newSnap.ComputeRoot() == status.MerkleRoot {
			return "no changes detected", nil
		}
		// Falls through: changes exist, start an incremental run below.
	}

	if opts.Force && status.StatusValue == registry.StatusIndexed {
		if err := p.clearIndex(absPath); err != nil {
			return "", err
		}
	}

	if err := p.registry.MarkIndexing(absPath, 0); err != nil {
		return "", err
	}

	go p.runWorker(context.Background(), absPath, scanOpts, opts)

	return "Indexing started", nil
}

func (p *Pipeline) scanOptions(opts Options) scanner.Options {
	so := p.cfg.Scan
	if len(opts.CustomExtensions) > 0 {
		so.Extensions = append(append([]string{}, so.Extensions...), opts.CustomExtensions...)
	}
	if len(opts.IgnorePatterns) > 0 {
		so.IgnorePatterns = append(append([]string{}, so.IgnorePatterns...), opts.IgnorePatterns...)
	}
	return so
}

// clearIndex synchronously deletes the Chunk Store, Vector Store, and
// Merkle snapshot for path.
func (p *Pipeline) clearIndex(path string) error {
	chunkPath := p.layout.ChunkStorePath(path)
	cs, err := store.OpenChunkStore(chunkPath)
	if err == nil {
		_, _ = cs.ClearAllChunks(context.Background())
		_ = cs.Close()
	}

	vs := store.NewVectorStore(p.cfg.VectorStore)
	_ = vs.Clear(p.layout.VectorStorePath(path))

	_ = os.Remove(p.layout.MerkleFile(path))
	return nil
}

// snapshotFrom builds a Merkle snapshot keyed by absolute file path, the
// same key the chunk rows and the files table use.
func snapshotFrom(files []scanner.FileInfo) *merkle.Snapshot {
	snap := merkle.New()
	for _, f := range files {
		snap.AddFile(f.Path, f.ContentHash)
	}
	return snap
}

// runWorker executes the six-stage pipeline. It never returns an error to
// a caller: every terminal condition is recorded in the Snapshot Registry
// instead.
func (p *Pipeline) runWorker(ctx context.Context, path string, scanOpts scanner.Options, opts Options) {
	fail := func(err error) {
		slog.Error("indexing run failed", slog.String("path", path), slog.String("error", err.Error()))
		_ = p.registry.MarkFailed(path, err.Error())
	}

	// --- preparing: 0 -> 10 ---
	files, err := p.scanner.Scan(ctx, path, scanOpts)
	if err != nil {
		fail(err)
		return
	}
	if len(files) == 0 {
		fail(codiierrors.NoFilesFound(path))
		return
	}

	newSnap := snapshotFrom(files)
	newSnap.ComputeRoot()
	var prior *merkle.Snapshot
	if !opts.Force {
		prior, err = merkle.Load(p.layout.MerkleFile(path))
		if err != nil {
			fail(err)
			return
		}
	}

	totalFiles := len(files)
	if err := p.registry.UpdateProgress(path, 10, registry.StagePreparing, 0, 0, &totalFiles, nil); err != nil {
		slog.Warn("failed to report progress", slog.String("error", err.Error()))
	}

	if ctx.Err() != nil {
		fail(codiierrors.InterruptedByUser())
		return
	}

	// --- diff ---
	added, removed, modified := newSnap.Diff(prior)
	if opts.Force || prior == nil {
		added = make(map[string]bool, len(newSnap.FileHashes))
		for f := range newSnap.FileHashes {
			added[f] = true
		}
		removed = make(map[string]bool)
		modified = make(map[string]bool)
	}

	if len(added)+len(removed)+len(modified) == 0 {
		cs, err := store.OpenChunkStore(p.layout.ChunkStorePath(path))
		indexedFiles, totalChunks := 0, 0
		if err == nil {
			indexedFiles = len(newSnap.FileHashes)
			totalChunks, _ = cs.CountChunks(ctx)
			_ = cs.Close()
		}
		_ = p.registry.MarkIndexed(path, newSnap.RootHash, indexedFiles, totalChunks)
		return
	}

	chunkPath := p.layout.ChunkStorePath(path)
	cs, err := store.OpenChunkStore(chunkPath)
	if err != nil {
		fail(codiierrors.StoreCorruption(err))
		return
	}
	defer cs.Close()

	vs := store.NewVectorStore(p.cfg.VectorStore)
	vectorPath := p.layout.VectorStorePath(path)
	if _, statErr := os.Stat(vectorPath); statErr == nil {
		if loadErr := vs.Load(vectorPath); loadErr != nil {
			// VectorStoreLoadFailure: recovered locally.
			slog.Warn("vector store unreadable, starting fresh", slog.String("error", loadErr.Error()))
			vs = store.NewVectorStore(p.cfg.VectorStore)
		}
	}

	// --- deleting: 10 -> 20 ---
	staleFiles := make([]string, 0, len(removed)+len(modified))
	for f := range removed {
		staleFiles = append(staleFiles, f)
	}
	for f := range modified {
		staleFiles = append(staleFiles, f)
	}
	sort.Strings(staleFiles)

	for i, filePath := range staleFiles {
		ids, err := cs.GetChunkIDsByPath(ctx, filePath)
		if err != nil {
			fail(codiierrors.StoreCorruption(err))
			return
		}
		if len(ids) > 0 {
			if _, err := vs.RemoveByChunkIDs(ids); err != nil {
				fail(err)
				return
			}
		}
		if _, err := cs.DeleteChunksByPath(ctx, filePath); err != nil {
			fail(codiierrors.StoreCorruption(err))
			return
		}
		if removed[filePath] {
			_ = cs.DeleteFileHash(ctx, filePath)
		}

		progress := 10 + (10 * (i + 1) / len(staleFiles))
		_ = p.registry.UpdateProgress(path, progress, registry.StageDeleting, 0, 0, nil, nil)
	}

	if ctx.Err() != nil {
		fail(codiierrors.InterruptedByUser())
		return
	}

	// --- chunking: 20 -> 40 ---
	toChunk := make([]string, 0, len(added)+len(modified))
	for f := range added {
		toChunk = append(toChunk, f)
	}
	for f := range modified {
		toChunk = append(toChunk, f)
	}
	sort.Strings(toChunk)

	langRegistry := chunk.DefaultRegistry()
	newChunks := make([]store.CodeChunk, 0, len(toChunk)*4)
	filesToProcess := len(toChunk)

	for i, filePath := range toChunk {
		content, err := os.ReadFile(filePath)
		if err != nil {
			slog.Warn("failed to read file during chunking, skipping", slog.String("path", filePath), slog.String("error", err.Error()))
			continue
		}
		language := langRegistry.DetectLanguage(filePath)
		chunks := p.chunker.Chunk(ctx, string(content), filePath, language, p.cfg.Chunking)
		newChunks = append(newChunks, chunks...)

		indexedFiles := i + 1
		progress := 20 + (20 * indexedFiles / filesToProcess)
		_ = p.registry.UpdateProgress(path, progress, registry.StageChunking, indexedFiles, len(newChunks), nil, &filesToProcess)
	}

	if ctx.Err() != nil {
		fail(codiierrors.InterruptedByUser())
		return
	}

	// --- embedding: 40 -> 80 ---
	batchSize := p.cfg.EmbeddingBatch
	if batchSize <= 0 {
		batchSize = embed.DefaultBatchSize
	}

	vectors := make([][]float32, len(newChunks))
	for start := 0; start < len(newChunks); start += batchSize {
		end := start + batchSize
		if end > len(newChunks) {
			end = len(newChunks)
		}
		texts := make([]string, end-start)
		for i := start; i < end; i++ {
			texts[i-start] = newChunks[i].Content
		}
		batchVecs, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			fail(codiierrors.EmbedderFailure(err))
			return
		}
		copy(vectors[start:end], batchVecs)

		progress := 40 + (40 * end / max(len(newChunks), 1))
		_ = p.registry.UpdateProgress(path, progress, registry.StageEmbedding, filesToProcess, len(newChunks), nil, nil)
	}

	if ctx.Err() != nil {
		fail(codiierrors.InterruptedByUser())
		return
	}

	// --- indexing: 80 -> 100 ---
	ids, err := cs.InsertChunksBatch(ctx, newChunks)
	if err != nil {
		fail(codiierrors.StoreCorruption(err))
		return
	}
	if len(vectors) > 0 {
		if err := vs.Add(ctx, ids, vectors); err != nil {
			fail(err)
			return
		}
	}
	if err := vs.Save(vectorPath); err != nil {
		fail(codiierrors.StoreCorruption(err))
		return
	}
	for f, h := range newSnap.FileHashes {
		if added[f] || modified[f] {
			_ = cs.UpsertFileHash(ctx, f, h)
		}
	}
	if err := newSnap.Save(p.layout.MerkleFile(path)); err != nil {
		fail(codiierrors.StoreCorruption(err))
		return
	}

	totalChunks, _ := cs.CountChunks(ctx)
	indexedFiles := len(newSnap.FileHashes)
	_ = p.registry.UpdateProgress(path, 100, registry.StageIndexing, indexedFiles, totalChunks, nil, nil)
	if err := p.registry.MarkIndexed(path, newSnap.RootHash, indexedFiles, totalChunks); err != nil {
		slog.Error("failed to mark repository indexed", slog.String("path", path), slog.String("error", err.Error()))
	}
}

// ClearIndex removes every persisted artifact for path: chunks, vectors,
// Merkle snapshot, and the registry record itself.
func (p *Pipeline) ClearIndex(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if err := p.clearIndex(absPath); err != nil {
		return err
	}
	return p.registry.RemoveCodebase(absPath)
}
