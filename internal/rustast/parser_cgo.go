//go:build cgo

package rustast

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/lucasamorimca/cosmwasm-guard/internal/guarderr"
)

// sitterNode adapts *sitter.Node to the Node interface.
type sitterNode struct {
	n *sitter.Node
}

func wrap(n *sitter.Node) Node {
	if n == nil {
		return nil
	}
	return sitterNode{n: n}
}

func (s sitterNode) Type() string      { return s.n.Type() }
func (s sitterNode) StartByte() uint32 { return s.n.StartByte() }
func (s sitterNode) EndByte() uint32   { return s.n.EndByte() }
func (s sitterNode) StartPoint() Point {
	p := s.n.StartPoint()
	return Point{Row: p.Row, Column: p.Column}
}
func (s sitterNode) EndPoint() Point {
	p := s.n.EndPoint()
	return Point{Row: p.Row, Column: p.Column}
}
func (s sitterNode) ChildCount() int { return int(s.n.ChildCount()) }
func (s sitterNode) Child(i int) Node {
	return wrap(s.n.Child(i))
}
func (s sitterNode) ChildByFieldName(name string) Node {
	return wrap(s.n.ChildByFieldName(name))
}
func (s sitterNode) HasError() bool { return s.n.HasError() }

// treeSitterParser implements Parser using tree-sitter's Rust grammar.
// Sequential by construction: a sitter.Parser is not reentrant, and guarded
// here by a mutex so a misbehaving caller gets a safe (if serialized)
// result rather than corrupting shared parser state.
type treeSitterParser struct {
	mu sync.Mutex
	p  *sitter.Parser
}

// NewParser builds a Parser configured for the Rust grammar.
func NewParser() Parser {
	p := sitter.NewParser()
	p.SetLanguage(rust.GetLanguage())
	return &treeSitterParser{p: p}
}

func (tp *treeSitterParser) Parse(ctx context.Context, path string, source []byte) (*Tree, error) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	tree, err := tp.p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, guarderr.Wrap(guarderr.Parse, "failed to parse source", err).WithFile(path)
	}
	root := tree.RootNode()
	if root.HasError() {
		return nil, guarderr.New(guarderr.Parse, fmt.Sprintf("syntax error near byte %d", firstErrorByte(root))).WithFile(path)
	}
	return &Tree{Path: path, Root: wrap(root), Source: source}, nil
}

func firstErrorByte(n *sitter.Node) uint32 {
	if n.IsError() || n.IsMissing() {
		return n.StartByte()
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && child.HasError() {
			return firstErrorByte(child)
		}
	}
	return n.StartByte()
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool { return true }
