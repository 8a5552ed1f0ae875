package chunk

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageConfig pairs a tree-sitter grammar with the semantic node-type
// set that the traversal in code_chunker.go stops descent on.
type LanguageConfig struct {
	Name          string
	Extensions    []string
	TSLanguage    *sitter.Language
	SemanticTypes map[string]bool
}

// LanguageRegistry maps file extensions and language tags to their
// LanguageConfig.
type LanguageRegistry struct {
	byName map[string]*LanguageConfig
	byExt  map[string]string
}

// NewLanguageRegistry builds the registry covering every supported
// language and its semantic node types.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		byName: make(map[string]*LanguageConfig),
		byExt:  make(map[string]string),
	}

	r.register(&LanguageConfig{
		Name:       "python",
		Extensions: []string{".py"},
		TSLanguage: python.GetLanguage(),
		SemanticTypes: set(
			"function_definition", "class_definition", "async_function_definition",
		),
	})
	r.register(&LanguageConfig{
		Name:       "javascript",
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		TSLanguage: javascript.GetLanguage(),
		SemanticTypes: set(
			"function_declaration", "class_declaration", "method_definition",
			"arrow_function", "function_expression",
		),
	})
	r.register(&LanguageConfig{
		Name:       "typescript",
		Extensions: []string{".ts"},
		TSLanguage: typescript.GetLanguage(),
		SemanticTypes: set(
			"function_declaration", "class_declaration", "method_definition",
			"arrow_function", "function_expression",
			"interface_declaration", "type_alias_declaration",
		),
	})
	r.register(&LanguageConfig{
		Name:       "tsx",
		Extensions: []string{".tsx"},
		TSLanguage: tsx.GetLanguage(),
		SemanticTypes: set(
			"function_declaration", "class_declaration", "method_definition",
			"arrow_function", "function_expression",
			"interface_declaration", "type_alias_declaration",
		),
	})
	r.register(&LanguageConfig{
		Name:       "go",
		Extensions: []string{".go"},
		TSLanguage: golang.GetLanguage(),
		SemanticTypes: set(
			"function_declaration", "method_declaration", "type_declaration",
		),
	})
	r.register(&LanguageConfig{
		Name:       "rust",
		Extensions: []string{".rs"},
		TSLanguage: rust.GetLanguage(),
		SemanticTypes: set(
			"function_definition", "struct_item", "enum_item", "impl_item", "trait_item",
		),
	})
	r.register(&LanguageConfig{
		Name:       "java",
		Extensions: []string{".java"},
		TSLanguage: java.GetLanguage(),
		SemanticTypes: set(
			"method_declaration", "class_declaration", "interface_declaration", "enum_declaration",
		),
	})
	r.register(&LanguageConfig{
		Name:       "c",
		Extensions: []string{".c", ".h"},
		TSLanguage: c.GetLanguage(),
		SemanticTypes: set(
			"function_definition", "struct_specifier", "enum_specifier",
		),
	})
	r.register(&LanguageConfig{
		Name:       "cpp",
		Extensions: []string{".cpp", ".cc", ".cxx", ".hpp", ".hxx"},
		TSLanguage: cpp.GetLanguage(),
		SemanticTypes: set(
			"function_definition", "class_specifier", "struct_specifier", "namespace_definition",
		),
	})

	return r
}

func (r *LanguageRegistry) register(cfg *LanguageConfig) {
	r.byName[cfg.Name] = cfg
	for _, ext := range cfg.Extensions {
		r.byExt[ext] = cfg.Name
	}
}

// ByName returns the config for a language tag.
func (r *LanguageRegistry) ByName(name string) (*LanguageConfig, bool) {
	cfg, ok := r.byName[name]
	return cfg, ok
}

// DetectLanguage maps a file path to a language tag from the registry's
// closed set, falling back to "text" for anything unrecognised.
func (r *LanguageRegistry) DetectLanguage(path string) string {
	ext := strings.ToLower(extOf(path))
	if name, ok := r.byExt[ext]; ok {
		return name
	}
	switch ext {
	case ".md", ".markdown":
		return "markdown"
	default:
		return "text"
	}
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' || path[i] == '\\' {
			break
		}
	}
	return ""
}

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// defaultRegistry is shared process-wide; building per-language tree-sitter
// grammars is cheap and stateless, so one registry instance serves every
// Chunker.
var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the shared LanguageRegistry.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
