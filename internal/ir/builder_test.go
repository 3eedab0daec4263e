package ir

import (
	"strings"
	"testing"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/rustast"
)

// fakeNode is a minimal rustast.Node that resolves byte offsets by locating
// its text within a shared source string, mirroring the contract package's
// own test double.
type fakeNode struct {
	typ      string
	text     string
	source   string
	fields   map[string]*fakeNode
	children []*fakeNode
}

func node(source, typ, text string) *fakeNode {
	return &fakeNode{typ: typ, text: text, source: source, fields: map[string]*fakeNode{}}
}

func (f *fakeNode) withField(name string, child *fakeNode) *fakeNode {
	f.fields[name] = child
	return f
}

func (f *fakeNode) withChildren(children ...*fakeNode) *fakeNode {
	f.children = children
	return f
}

func (f *fakeNode) Type() string { return f.typ }
func (f *fakeNode) StartByte() uint32 {
	return uint32(strings.Index(f.source, f.text))
}
func (f *fakeNode) EndByte() uint32 {
	return f.StartByte() + uint32(len(f.text))
}
func (f *fakeNode) StartPoint() rustast.Point { return rustast.Point{} }
func (f *fakeNode) EndPoint() rustast.Point   { return rustast.Point{} }
func (f *fakeNode) ChildCount() int           { return len(f.children) }
func (f *fakeNode) Child(i int) rustast.Node {
	if i < 0 || i >= len(f.children) {
		return nil
	}
	return f.children[i]
}
func (f *fakeNode) ChildByFieldName(name string) rustast.Node {
	child, ok := f.fields[name]
	if !ok {
		return nil
	}
	return child
}
func (f *fakeNode) HasError() bool { return false }

// buildFromBody wraps a block of statements in a fake `block` node whose
// children are expression_statement/let_declaration wrappers, and lowers it
// through a single function named "f".
func buildFromBody(t *testing.T, source string, stmts ...*fakeNode) *FunctionIr {
	t.Helper()
	block := node(source, "block", source).withChildren(stmts...)
	tree := &rustast.Tree{Path: "lib.rs", Root: block, Source: []byte(source)}
	fn := &contract.FunctionInfo{Name: "f", Body: block, Tree: tree}
	return BuildFunction(fn, false)
}

func exprStmt(source string, expr *fakeNode) *fakeNode {
	return node(source, "expression_statement", expr.text).withChildren(expr)
}

func TestLowerSimpleLet(t *testing.T) {
	source := `let x = 42;`
	lit := node(source, "integer_literal", "42")
	pattern := node(source, "identifier", "x")
	let := node(source, "let_declaration", source).withField("pattern", pattern).withField("value", lit)

	fn := buildFromBody(t, source, let)
	if len(fn.Cfg.Blocks) == 0 {
		t.Fatal("expected at least one block")
	}
	entry := fn.Cfg.Block(fn.Cfg.EntryBlock)
	if len(entry.Instructions) != 1 || entry.Instructions[0].Op != OpAssign {
		t.Fatalf("expected a single Assign instruction, got %+v", entry.Instructions)
	}
	if entry.Instructions[0].Dest.Name != "x" {
		t.Errorf("dest = %+v, want x", entry.Instructions[0].Dest)
	}
}

func TestLowerAddrValidateRecognized(t *testing.T) {
	source := `deps.api.addr_validate("someone");`
	deps := node(source, "identifier", "deps")
	depsField := node(source, "field_expression", "deps.api").
		withField("value", deps).withField("field", node(source, "field_identifier", "api"))
	methodField := node(source, "field_identifier", "addr_validate")
	receiver := node(source, "field_expression", "deps.api.addr_validate").
		withField("value", depsField).withField("field", methodField)
	arg := node(source, "string_literal", `"someone"`)
	args := node(source, "arguments", `("someone")`).withChildren(arg)
	call := node(source, "call_expression", source).withField("function", receiver).withField("arguments", args)

	fn := buildFromBody(t, source, exprStmt(source, call))
	entry := fn.Cfg.Block(fn.Cfg.EntryBlock)
	found := false
	for _, inst := range entry.Instructions {
		if inst.Op == OpAddrValidate {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an AddrValidate instruction, got %+v", entry.Instructions)
	}
}

func TestLowerEnumVariantNotSsaVar(t *testing.T) {
	source := `let x = Response::new();`
	path := node(source, "scoped_identifier", "Response::new")
	args := node(source, "arguments", "()")
	call := node(source, "call_expression", "Response::new()").withField("function", path).withField("arguments", args)
	pattern := node(source, "identifier", "x")
	let := node(source, "let_declaration", source).withField("pattern", pattern).withField("value", call)

	fn := buildFromBody(t, source, let)
	entry := fn.Cfg.Block(fn.Cfg.EntryBlock)
	for _, inst := range entry.Instructions {
		if inst.Op == OpAssign && strings.Contains(inst.Dest.Name, "Response") {
			t.Fatalf("enum-like path leaked into an SSA var name: %+v", inst)
		}
	}
}

func TestLowerIfCreatesBranches(t *testing.T) {
	source := `if x { 1; } else { 2; }`
	cond := node(source, "identifier", "x")
	thenLit := node(source, "integer_literal", "1")
	thenBlock := node(source, "block", "{ 1; }").withChildren(exprStmt(source, thenLit))
	elseLit := node(source, "integer_literal", "2")
	elseBlock := node(source, "block", "{ 2; }").withChildren(exprStmt(source, elseLit))
	ifExpr := node(source, "if_expression", source).
		withField("condition", cond).withField("consequence", thenBlock).withField("alternative", elseBlock)

	fn := buildFromBody(t, source, exprStmt(source, ifExpr))
	if len(fn.Cfg.Blocks) < 4 {
		t.Fatalf("expected entry+then+else+merge blocks, got %d", len(fn.Cfg.Blocks))
	}
}

func TestLowerReturnMarksExitBlock(t *testing.T) {
	source := `return 1;`
	lit := node(source, "integer_literal", "1")
	ret := node(source, "return_expression", source).withChildren(lit)

	fn := buildFromBody(t, source, exprStmt(source, ret))
	if len(fn.Cfg.ExitBlocks) != 1 {
		t.Fatalf("expected exactly one exit block, got %v", fn.Cfg.ExitBlocks)
	}
}
