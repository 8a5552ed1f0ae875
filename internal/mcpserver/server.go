// Package mcpserver exposes codii's indexing and search operations as MCP
// tools over stdio, so an AI coding assistant can call them directly instead
// of shelling out to the CLI.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/oOSomnus/codii/internal/app"
	"github.com/oOSomnus/codii/internal/pipeline"
	"github.com/oOSomnus/codii/internal/registry"
	"github.com/oOSomnus/codii/pkg/version"
)

// Server bridges an *app.App to the MCP stdio transport.
type Server struct {
	mcp    *mcp.Server
	app    *app.App
	logger *slog.Logger
}

// New constructs a Server over app and registers its tools.
func New(a *app.App) *Server {
	s := &Server{
		app:    a,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(&mcp.Implementation{
		Name:    "codii",
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s
}

// registerTools registers every MCP tool this server exposes.
func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index",
		Description: "Index (or incrementally re-index) a local repository so it can be searched. Starts a background run and returns immediately; poll index_status for progress.",
	}, s.handleIndex)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "search",
		Description: "Hybrid BM25 + semantic search over a previously indexed repository. Returns the most relevant code chunks for a natural-language or keyword query.",
	}, s.handleSearch)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Check whether a repository is indexed, currently indexing, or failed, including progress and chunk counts.",
	}, s.handleIndexStatus)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "clear",
		Description: "Remove a repository's index (chunk store, vector store, and registry record) entirely.",
	}, s.handleClear)

	s.logger.Info("mcp tools registered", slog.Int("count", 4))
}

func (s *Server) handleIndex(ctx context.Context, _ *mcp.CallToolRequest, input IndexInput) (*mcp.CallToolResult, IndexOutput, error) {
	if input.Path == "" {
		return nil, IndexOutput{}, invalidParamsError("path is required")
	}

	msg, err := s.app.Pipeline.Index(ctx, input.Path, pipeline.Options{Force: input.Force})
	if err != nil {
		return nil, IndexOutput{}, mapError(err)
	}

	return nil, IndexOutput{Message: msg}, nil
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.Query == "" {
		return nil, SearchOutput{}, invalidParamsError("query is required")
	}
	if input.Path == "" {
		return nil, SearchOutput{}, invalidParamsError("path is required")
	}

	abs, err := app.ResolvePath(input.Path)
	if err != nil {
		return nil, SearchOutput{}, invalidParamsError(err.Error())
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	rerank := input.Rerank == nil || *input.Rerank
	results, err := s.app.Search(ctx, abs, input.Query, limit, input.Scope, rerank)
	if err != nil {
		return nil, SearchOutput{}, mapError(err)
	}

	out := SearchOutput{Results: make([]SearchResultOutput, 0, len(results))}
	if indexing, err := s.app.Registry.IsIndexing(abs); err == nil && indexing {
		out.Warning = "indexing is in progress; results may be incomplete"
	}
	for _, r := range results {
		score := r.CombinedScore
		if r.RerankScore != 0 {
			score = r.RerankScore
		}
		out.Results = append(out.Results, SearchResultOutput{
			Path:          r.Chunk.Path,
			Content:       r.Chunk.Content,
			StartLine:     r.Chunk.StartLine,
			EndLine:       r.Chunk.EndLine,
			Language:      r.Chunk.Language,
			ChunkType:     r.Chunk.ChunkType,
			Name:          r.Chunk.Name,
			Score:         score,
			CombinedScore: r.CombinedScore,
		})
	}

	return nil, out, nil
}

func (s *Server) handleIndexStatus(_ context.Context, _ *mcp.CallToolRequest, input IndexStatusInput) (*mcp.CallToolResult, IndexStatusOutput, error) {
	if input.Path == "" {
		return nil, IndexStatusOutput{}, invalidParamsError("path is required")
	}

	abs, err := app.ResolvePath(input.Path)
	if err != nil {
		return nil, IndexStatusOutput{}, invalidParamsError(err.Error())
	}

	cs, err := s.app.Registry.GetStatus(abs)
	if err != nil {
		return nil, IndexStatusOutput{}, mapError(err)
	}

	if cs.StatusValue == registry.StatusNotFound {
		return nil, IndexStatusOutput{}, indexNotFoundError(abs)
	}

	return nil, IndexStatusOutput{
		Status:       string(cs.StatusValue),
		Stage:        string(cs.CurrentStage),
		Progress:     cs.Progress,
		IndexedFiles: cs.IndexedFiles,
		TotalFiles:   cs.TotalFiles,
		TotalChunks:  cs.TotalChunks,
		MerkleRoot:   cs.MerkleRoot,
		ErrorMessage: cs.ErrorMessage,
	}, nil
}

func (s *Server) handleClear(_ context.Context, _ *mcp.CallToolRequest, input ClearInput) (*mcp.CallToolResult, ClearOutput, error) {
	if input.Path == "" {
		return nil, ClearOutput{}, invalidParamsError("path is required")
	}

	abs, err := app.ResolvePath(input.Path)
	if err != nil {
		return nil, ClearOutput{}, invalidParamsError(err.Error())
	}

	if err := s.app.Pipeline.ClearIndex(abs); err != nil {
		return nil, ClearOutput{}, mapError(err)
	}

	return nil, ClearOutput{Message: fmt.Sprintf("index cleared for %s", abs)}, nil
}

// Serve runs the server over stdio until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting mcp server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("mcp server stopped with error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("mcp server stopped")
	return nil
}
