// Package errors provides the structured error taxonomy used across codii.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: path / filesystem errors
//   - 2XX: store (chunk store / vector store) errors
//   - 3XX: embedding / reranking / chunking errors
//   - 4XX: indexing lifecycle errors
//   - 5XX: internal errors
package errors

// Category classifies an error for logging and user presentation.
type Category string

const (
	CategoryPath     Category = "PATH"
	CategoryStore    Category = "STORE"
	CategoryModel    Category = "MODEL"
	CategoryLifecyle Category = "LIFECYCLE"
	CategoryInternal Category = "INTERNAL"
)

// Severity classifies how an error should be handled by a caller.
type Severity string

const (
	// SeverityFatal invalidates index integrity; the pipeline marks the
	// repository failed.
	SeverityFatal Severity = "FATAL"
	// SeverityWarning is a transient or cosmetic degradation that is
	// recovered locally (e.g. a chunker or reranker falling back).
	SeverityWarning Severity = "WARNING"
	// SeverityInfo is purely informational.
	SeverityInfo Severity = "INFO"
)

const (
	// Path errors (100-199)
	ErrCodePathNotFound   = "ERR_101_PATH_NOT_FOUND"
	ErrCodePathNotDir     = "ERR_102_PATH_NOT_DIR"
	ErrCodePathUnreadable = "ERR_103_PATH_UNREADABLE"

	// Store errors (200-299)
	ErrCodeStoreCorruption   = "ERR_201_STORE_CORRUPTION"
	ErrCodeVectorLoadFailure = "ERR_202_VECTOR_LOAD_FAILURE"
	ErrCodeDimensionMismatch = "ERR_203_DIMENSION_MISMATCH"

	// Model errors (300-399)
	ErrCodeEmbedderFailure     = "ERR_301_EMBEDDER_FAILURE"
	ErrCodeCrossEncoderFailure = "ERR_302_CROSS_ENCODER_FAILURE"
	ErrCodeChunkerFailure      = "ERR_303_CHUNKER_FAILURE"

	// Lifecycle errors (400-499)
	ErrCodeAlreadyIndexing  = "ERR_401_ALREADY_INDEXING"
	ErrCodeNoFilesFound     = "ERR_402_NO_FILES_FOUND"
	ErrCodeInterrupted      = "ERR_403_INTERRUPTED_BY_USER"
	ErrCodeRepositoryFailed = "ERR_404_REPOSITORY_FAILED"

	// Internal errors (500-599)
	ErrCodeInternal = "ERR_501_INTERNAL"
)

// categoryFromCode extracts the category from the numeric prefix of a code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}
	switch code[4] {
	case '1':
		return CategoryPath
	case '2':
		return CategoryStore
	case '3':
		return CategoryModel
	case '4':
		return CategoryLifecyle
	default:
		return CategoryInternal
	}
}

// recoverableCodes are absorbed locally: they degrade a component's
// behavior but never invalidate index integrity, so they never set a
// repository's status to failed.
var recoverableCodes = map[string]bool{
	ErrCodeChunkerFailure:      true,
	ErrCodeVectorLoadFailure:   true,
	ErrCodeCrossEncoderFailure: true,
}

// IsRecoverable reports whether the error code is absorbed locally rather
// than surfaced as a failed indexing run.
func IsRecoverable(code string) bool {
	return recoverableCodes[code]
}

func severityFromCode(code string) Severity {
	if IsRecoverable(code) {
		return SeverityWarning
	}
	if code == ErrCodeStoreCorruption {
		return SeverityFatal
	}
	return SeverityFatal
}
