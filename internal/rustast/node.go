// Package rustast wraps tree-sitter's Rust grammar to parse CosmWasm
// contract source into a concrete syntax tree. Detectors and the contract
// extractor never touch the underlying tree-sitter types directly — they
// walk the tree through the Node interface and the Walk/FindAll/Text
// helpers below, which are defined once regardless of build tag.
package rustast

import (
	"context"

	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// Point is a zero-based row/column location, matching tree-sitter's own
// point type so conversion to finding.Position is a single +1 per axis.
type Point struct {
	Row    uint32
	Column uint32
}

// Node is the minimal surface of a parsed syntax node that the contract
// extractor and detectors need. Implemented by a thin wrapper over
// *sitter.Node under the cgo build, and unimplemented under the stub build
// (Parser.Parse always fails there, so no stub Node value is ever produced).
type Node interface {
	Type() string
	StartByte() uint32
	EndByte() uint32
	StartPoint() Point
	EndPoint() Point
	ChildCount() int
	Child(i int) Node
	ChildByFieldName(name string) Node
	HasError() bool
}

// Tree is a parsed source file: its root node plus the raw bytes the node
// spans reference, since tree-sitter nodes carry byte offsets, not text.
type Tree struct {
	Path   string
	Root   Node
	Source []byte
}

// Parser parses Rust source files one at a time. Not safe for concurrent
// use — callers must serialize calls to Parse, mirroring the underlying
// tree-sitter parser's non-reentrancy.
type Parser interface {
	Parse(ctx context.Context, path string, source []byte) (*Tree, error)
}

// Text returns the source slice a node spans.
func Text(t *Tree, n Node) string {
	if n == nil {
		return ""
	}
	return string(t.Source[n.StartByte():n.EndByte()])
}

// Span converts a node's byte range into a finding.Span anchored to path.
func Span(path string, n Node) finding.Span {
	start := n.StartPoint()
	end := n.EndPoint()
	return finding.Span{
		File:  path,
		Start: finding.Position{Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:   finding.Position{Line: int(end.Row) + 1, Column: int(end.Column) + 1},
	}
}

// Walk calls visit for n and every descendant, depth-first, preorder.
// visit returns false to skip n's children (but siblings still visit).
func Walk(n Node, visit func(Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := 0; i < n.ChildCount(); i++ {
		Walk(n.Child(i), visit)
	}
}

// FindAll returns every descendant node (including n) whose Type() matches
// one of the given node types.
func FindAll(n Node, nodeTypes ...string) []Node {
	want := make(map[string]bool, len(nodeTypes))
	for _, t := range nodeTypes {
		want[t] = true
	}
	var out []Node
	Walk(n, func(node Node) bool {
		if want[node.Type()] {
			out = append(out, node)
		}
		return true
	})
	return out
}
