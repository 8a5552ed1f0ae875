package chunk

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
)

// parse runs tree-sitter over content using the grammar registered for
// language, returning the root node.
func parse(ctx context.Context, content []byte, cfg *LanguageConfig) (*sitter.Node, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(cfg.TSLanguage)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, errNilTree
	}
	return tree.RootNode(), nil
}

var errNilTree = parseError("tree-sitter returned a nil tree")

type parseError string

func (e parseError) Error() string { return string(e) }

// firstIdentifierChild returns the text of the first identifier-like child
// of n; identifier node types vary by grammar.
func firstIdentifierChild(n *sitter.Node, source []byte) string {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier", "type_identifier", "field_identifier",
			"property_identifier", "name":
			return child.Content(source)
		}
	}
	return ""
}
