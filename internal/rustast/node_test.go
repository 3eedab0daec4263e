package rustast

import "testing"

// fakeNode is a minimal Node implementation for testing Walk/FindAll without
// requiring a cgo-enabled build.
type fakeNode struct {
	typ      string
	start    Point
	end      Point
	startB   uint32
	endB     uint32
	children []*fakeNode
}

func (f *fakeNode) Type() string      { return f.typ }
func (f *fakeNode) StartByte() uint32 { return f.startB }
func (f *fakeNode) EndByte() uint32   { return f.endB }
func (f *fakeNode) StartPoint() Point { return f.start }
func (f *fakeNode) EndPoint() Point   { return f.end }
func (f *fakeNode) ChildCount() int   { return len(f.children) }
func (f *fakeNode) Child(i int) Node {
	if i < 0 || i >= len(f.children) {
		return nil
	}
	return f.children[i]
}
func (f *fakeNode) ChildByFieldName(name string) Node { return nil }
func (f *fakeNode) HasError() bool                    { return false }

func TestWalkVisitsAllDescendants(t *testing.T) {
	leaf1 := &fakeNode{typ: "identifier"}
	leaf2 := &fakeNode{typ: "identifier"}
	root := &fakeNode{typ: "function_item", children: []*fakeNode{leaf1, leaf2}}

	var visited []string
	Walk(root, func(n Node) bool {
		visited = append(visited, n.Type())
		return true
	})

	if len(visited) != 3 {
		t.Fatalf("expected 3 visited nodes, got %d", len(visited))
	}
}

func TestFindAllFiltersByType(t *testing.T) {
	leaf1 := &fakeNode{typ: "identifier"}
	leaf2 := &fakeNode{typ: "string_literal"}
	root := &fakeNode{typ: "function_item", children: []*fakeNode{leaf1, leaf2}}

	found := FindAll(root, "string_literal")
	if len(found) != 1 {
		t.Fatalf("expected 1 match, got %d", len(found))
	}
}

func TestSpanConvertsZeroBasedToOneBased(t *testing.T) {
	n := &fakeNode{
		typ:   "function_item",
		start: Point{Row: 4, Column: 0},
		end:   Point{Row: 4, Column: 10},
	}
	tree := &Tree{Path: "lib.rs", Source: []byte("0123456789")}
	span := Span(tree.Path, n)
	if span.Start.Line != 5 || span.Start.Column != 1 {
		t.Errorf("expected 1-based start (5,1), got (%d,%d)", span.Start.Line, span.Start.Column)
	}
}

func TestTextSlicesSource(t *testing.T) {
	n := &fakeNode{typ: "identifier", startB: 2, endB: 5}
	tree := &Tree{Source: []byte("ab_cde_fg")}
	if got := Text(tree, n); got != "_cd" {
		t.Errorf("Text() = %q, want %q", got, "_cd")
	}
}
