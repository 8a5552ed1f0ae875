package chunk

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Chunker splits file text into CodeChunk records: a tree-sitter traversal
// for recognised languages, falling back to line-window chunking
// otherwise.
type Chunker struct {
	registry *LanguageRegistry
}

// New creates a Chunker using the shared default language registry.
func New() *Chunker {
	return &Chunker{registry: DefaultRegistry()}
}

// Chunk splits content (the text of the file at path, tagged language)
// into an ordered list of CodeChunks.
func (c *Chunker) Chunk(ctx context.Context, content, path, language string, opts Options) []CodeChunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}

	if cfg, ok := c.registry.ByName(language); ok {
		if chunks, ok := c.chunkSyntax(ctx, content, path, cfg, opts); ok {
			return chunks
		}
		// ChunkerFailure: parser raised or produced nothing usable.
		// Recovered locally by falling back below.
	}

	return chunkLineWindow(content, path, language, opts)
}

// chunkSyntax runs the tree-sitter traversal. The second return value is
// false when parsing failed outright, signalling the caller to fall back
// to the line-window chunker; a successful parse that merely emits zero
// semantic chunks still returns true (the module-fallback chunk already
// covers that case).
func (c *Chunker) chunkSyntax(ctx context.Context, content, path string, cfg *LanguageConfig, opts Options) ([]CodeChunk, bool) {
	source := []byte(content)
	root, err := parse(ctx, source, cfg)
	if err != nil || root == nil {
		return nil, false
	}

	floor := semanticFloor(opts.minChunkSize())
	var chunks []CodeChunk

	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if cfg.SemanticTypes[n.Type()] {
			span := n.Content(source)
			if len(span) >= floor {
				chunks = append(chunks, CodeChunk{
					Content:   span,
					Path:      path,
					StartLine: int(n.StartPoint().Row) + 1,
					EndLine:   int(n.EndPoint().Row) + 1,
					Language:  cfg.Name,
					ChunkType: chunkTypeFromNode(n.Type()),
					Name:      firstIdentifierChild(n, source),
				})
			}
			// Stop descending: step 2.
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)

	if len(chunks) == 0 {
		chunks = append(chunks, moduleChunk(content, path, cfg.Name))
	}
	return chunks, true
}

// chunkTypeFromNode strips the canonical grammar suffix from a tree-sitter
// node type to produce chunk_type tag, e.g.
// "function_definition" -> "function", "struct_item" -> "struct".
func chunkTypeFromNode(nodeType string) string {
	for _, suffix := range []string{"_definition", "_declaration", "_item", "_specifier"} {
		if strings.HasSuffix(nodeType, suffix) {
			return strings.TrimSuffix(nodeType, suffix)
		}
	}
	return nodeType
}

// moduleChunk is the whole-file fallback emitted when a traversal (or a
// degenerate line-window pass) never emits anything but the file is
// non-empty.
func moduleChunk(content, path, language string) CodeChunk {
	lines := strings.Split(content, "\n")
	return CodeChunk{
		Content:   content,
		Path:      path,
		StartLine: 1,
		EndLine:   len(lines),
		Language:  language,
		ChunkType: "module",
	}
}
