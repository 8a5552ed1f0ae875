package mcpserver

// IndexInput is the input schema for the index tool.
type IndexInput struct {
	Path  string `json:"path" jsonschema:"absolute or relative path to the repository to index"`
	Force bool   `json:"force,omitempty" jsonschema:"re-index from scratch even if the stored Merkle root is unchanged"`
}

// IndexOutput is the output schema for the index tool.
type IndexOutput struct {
	Message string `json:"message" jsonschema:"the pipeline's pre-flight result, e.g. 'Indexing started' or 'no changes detected'"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Path   string `json:"path" jsonschema:"absolute or relative path to the indexed repository"`
	Query  string `json:"query" jsonschema:"the search query to execute"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Scope  string `json:"scope,omitempty" jsonschema:"restrict results to chunks whose file path contains this substring"`
	Rerank *bool  `json:"rerank,omitempty" jsonschema:"apply cross-encoder re-ranking to the top candidates, default true"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results" jsonschema:"list of search results, ordered by relevance"`
	Warning string               `json:"warning,omitempty" jsonschema:"set when the repository is still indexing and results may be incomplete"`
}

// SearchResultOutput is one chunk hit returned by the search tool.
type SearchResultOutput struct {
	Path          string  `json:"path" jsonschema:"absolute path of the file the chunk came from"`
	Content       string  `json:"content" jsonschema:"the chunk's source text"`
	StartLine     int     `json:"start_line"`
	EndLine       int     `json:"end_line"`
	Language      string  `json:"language,omitempty"`
	ChunkType     string  `json:"chunk_type,omitempty" jsonschema:"syntax node kind such as function, method or class; text_block or module for non-syntax chunks"`
	Name          string  `json:"name,omitempty" jsonschema:"symbol name, if the chunk is a named syntax unit"`
	Score         float64 `json:"score" jsonschema:"the chunk's final ranking score (re-ranked if rerank was applied, else fused)"`
	CombinedScore float64 `json:"combined_score" jsonschema:"the Reciprocal Rank Fusion score before any re-ranking"`
}

// IndexStatusInput is the input schema for the index_status tool.
type IndexStatusInput struct {
	Path string `json:"path" jsonschema:"absolute or relative path to the repository"`
}

// IndexStatusOutput is the output schema for the index_status tool.
type IndexStatusOutput struct {
	Status       string `json:"status" jsonschema:"indexed, indexing, failed, or not_found"`
	Stage        string `json:"stage,omitempty" jsonschema:"current pipeline stage while indexing"`
	Progress     int    `json:"progress" jsonschema:"percent complete, 0-100"`
	IndexedFiles int    `json:"indexed_files"`
	TotalFiles   int    `json:"total_files"`
	TotalChunks  int    `json:"total_chunks"`
	MerkleRoot   string `json:"merkle_root,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// ClearInput is the input schema for the clear tool.
type ClearInput struct {
	Path string `json:"path" jsonschema:"absolute or relative path to the repository whose index should be removed"`
}

// ClearOutput is the output schema for the clear tool.
type ClearOutput struct {
	Message string `json:"message"`
}
