// Package syntax parses C# source with tree-sitter and projects the raw
// tree into the declaration model the rules work against.
package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// MaxFileSize bounds the source size the parser will accept.
const MaxFileSize = 10 * 1024 * 1024

// Tree couples a parsed tree with the source it was parsed from.
type Tree struct {
	tree *sitter.Tree
	src  []byte
}

// Root returns the root node.
func (t *Tree) Root() *sitter.Node {
	return t.tree.RootNode()
}

// Src returns the source bytes backing the tree.
func (t *Tree) Src() []byte {
	return t.src
}

// Parse parses C# source. Each call creates its own tree-sitter parser so
// Parse is safe for concurrent use. Tree-sitter is error tolerant; a tree
// is returned even for syntactically broken input.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	if len(src) > MaxFileSize {
		return nil, fmt.Errorf("source exceeds maximum size of %d bytes", MaxFileSize)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(csharp.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return &Tree{tree: tree, src: src}, nil
}
