// Package app wires together codii's components into the single
// long-lived object the CLI and the MCP server both build once at
// startup: configuration, the Layout Manager, the Snapshot Registry, the
// Indexing Pipeline, and the process-global Embedder/CrossEncoder
// singletons.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oOSomnus/codii/internal/chunk"
	"github.com/oOSomnus/codii/internal/config"
	"github.com/oOSomnus/codii/internal/embed"
	"github.com/oOSomnus/codii/internal/layout"
	"github.com/oOSomnus/codii/internal/pipeline"
	"github.com/oOSomnus/codii/internal/registry"
	"github.com/oOSomnus/codii/internal/scanner"
	"github.com/oOSomnus/codii/internal/search"
	"github.com/oOSomnus/codii/internal/store"
)

// App bundles every component the CLI and the MCP server need.
type App struct {
	Config       *config.Config
	Layout       *layout.Manager
	Registry     *registry.Registry
	Embedder     embed.Embedder
	CrossEncoder embed.CrossEncoder
	Pipeline     *pipeline.Pipeline
}

// New constructs an App from cfg. It sweeps abandoned "indexing" records
// once at startup so a process killed mid-run doesn't wedge future
// invocations on that repository path.
func New(cfg *config.Config) (*App, error) {
	lm := layout.New(cfg.BaseDir)
	reg := registry.New(lm.SnapshotFile())

	threshold := time.Duration(cfg.Registry.WatchdogThresholdMinutes) * time.Minute
	if threshold > 0 {
		if _, err := reg.SweepAbandoned(threshold); err != nil {
			return nil, fmt.Errorf("sweeping abandoned indexing records: %w", err)
		}
	}

	scn, err := scanner.New()
	if err != nil {
		return nil, fmt.Errorf("creating scanner: %w", err)
	}

	embedder := embed.NewStaticEmbedder()
	crossEncoder := embed.NewStaticCrossEncoder()

	storeCfg := pipeline.StoreConfig{
		Scan: scanner.Options{
			Extensions:       cfg.Scan.Extensions,
			IgnorePatterns:   cfg.Scan.IgnorePatterns,
			RespectGitignore: cfg.Scan.RespectGitignore,
		},
		Chunking: chunk.Options{
			MaxChunkSize: cfg.Chunking.MaxChunkSize,
			MinChunkSize: cfg.Chunking.MinChunkSize,
			ChunkOverlap: cfg.Chunking.ChunkOverlap,
		},
		VectorStore: store.VectorStoreConfig{
			Dimensions:     embedder.Dimensions(),
			M:              cfg.Search.HNSWM,
			EfConstruction: cfg.Search.HNSWEfConstruction,
			EfSearch:       cfg.Search.HNSWEfSearch,
		},
		EmbeddingBatch: cfg.Embedding.BatchSize,
	}

	pl := pipeline.New(lm, reg, scn, chunk.New(), embedder, storeCfg)

	return &App{
		Config:       cfg,
		Layout:       lm,
		Registry:     reg,
		Embedder:     embedder,
		CrossEncoder: crossEncoder,
		Pipeline:     pl,
	}, nil
}

// Close releases the process-global capability singletons.
func (a *App) Close() error {
	if err := a.Embedder.Close(); err != nil {
		return err
	}
	return a.CrossEncoder.Close()
}

// ResolvePath validates and absolutizes a repository path, the same
// check every entry point performs before touching the registry or the
// stores.
func ResolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	return abs, nil
}

// OpenRetriever opens path's Chunk Store and Vector Store read-write and
// returns a Retriever over them, plus a close function the caller must
// invoke when done. Search against a repository mid-index is permitted
// but may observe an incomplete index; callers should check IsIndexing
// and surface a warning themselves.
func (a *App) OpenRetriever(path string) (*search.Retriever, func() error, error) {
	cs, err := store.OpenChunkStore(a.Layout.ChunkStorePath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("opening chunk store: %w", err)
	}

	vs := store.NewVectorStore(store.VectorStoreConfig{
		Dimensions:     a.Embedder.Dimensions(),
		M:              a.Config.Search.HNSWM,
		EfConstruction: a.Config.Search.HNSWEfConstruction,
		EfSearch:       a.Config.Search.HNSWEfSearch,
	})
	vectorPath := a.Layout.VectorStorePath(path)
	if _, statErr := os.Stat(vectorPath); statErr == nil {
		_ = vs.Load(vectorPath) // VectorStoreLoadFailure: recovered locally, search proceeds BM25-only.
	}

	searchCfg := search.Config{
		Weights: search.Weights{
			BM25:   a.Config.Search.BM25Weight,
			Vector: a.Config.Search.VectorWeight,
		},
		KRRF:             a.Config.Search.KRRF,
		MaxSearchLimit:   a.Config.Search.MaxSearchLimit,
		RerankCandidates: a.Config.Search.RerankCandidates,
		RerankThreshold:  a.Config.Search.RerankThreshold,
		RerankEnabled:    a.Config.Search.RerankEnabled,
	}

	retriever := search.New(cs, vs, a.Embedder, a.CrossEncoder, searchCfg)

	closeFn := func() error {
		_ = vs.Close()
		return cs.Close()
	}
	return retriever, closeFn, nil
}

// Search is a convenience wrapper that opens path's stores, runs one
// query, and closes them again.
func (a *App) Search(ctx context.Context, path, query string, limit int, pathFilter string, rerank bool) ([]search.SearchResult, error) {
	retriever, closeFn, err := a.OpenRetriever(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	return retriever.Search(ctx, query, limit, pathFilter, rerank)
}
