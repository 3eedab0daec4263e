package ir

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/rustast"
)

// pathKind classifies a bare identifier expression to avoid creating
// phantom SSA vars for enum variants and type paths (e.g. Response::new,
// ExecuteMsg::Withdraw) that happen to appear where a variable could.
type pathKind int

const (
	pathVariable pathKind = iota
	pathTypeOrVariant
)

func classifyIdent(name string, varCounter map[string]uint32) pathKind {
	if _, ok := varCounter[name]; ok {
		return pathVariable
	}
	if isScreamingSnake(name) {
		return pathVariable
	}
	if len(name) > 0 && unicode.IsUpper(rune(name[0])) {
		return pathTypeOrVariant
	}
	return pathVariable
}

func isScreamingSnake(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(unicode.IsUpper(r) || r == '_' || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// builder lowers a single function's tree-sitter body into SSA-form IR,
// mirroring the shape (running var counters, one current block, temp
// naming) an equivalent syn-based visitor would use.
type builder struct {
	tree         *rustast.Tree
	currentBlock BlockId
	cfg          *Cfg
	varCounter   map[string]uint32
	tempCounter  uint32
}

// BuildContract lowers every function with a body in info into a
// ContractIr. Functions with no body (trait declarations, externs) are
// skipped since there is nothing to build a Cfg from.
func BuildContract(info *contract.ContractInfo) *ContractIr {
	out := NewContractIr()
	for _, ep := range info.EntryPoints {
		out.EntryPoints = append(out.EntryPoints, ep.Name)
	}
	entrySet := make(map[string]bool, len(out.EntryPoints))
	for _, n := range out.EntryPoints {
		entrySet[n] = true
	}
	for i := range info.Functions {
		fn := &info.Functions[i]
		if fn.Body == nil || fn.Tree == nil {
			continue
		}
		out.Functions = append(out.Functions, BuildFunction(fn, entrySet[fn.Name]))
	}
	return out
}

// BuildFunction lowers a single function's body into a FunctionIr.
func BuildFunction(fn *contract.FunctionInfo, isEntryPoint bool) *FunctionIr {
	b := &builder{
		tree:       fn.Tree,
		cfg:        NewCfg(fn.Name),
		varCounter: make(map[string]uint32),
	}
	entry := b.cfg.AddBlock()
	b.currentBlock = entry

	params := make([]SsaVar, 0, len(fn.Params))
	for _, p := range fn.Params {
		params = append(params, b.newSsaVar(p.Name))
	}

	b.lowerBlock(fn.Body)

	var exits []BlockId
	for _, blk := range b.cfg.Blocks {
		if len(blk.Successors) == 0 {
			exits = append(exits, blk.Id)
			continue
		}
		for _, inst := range blk.Instructions {
			if inst.Op == OpReturn {
				exits = append(exits, blk.Id)
				break
			}
		}
	}
	b.cfg.ExitBlocks = exits

	return &FunctionIr{
		Name:         fn.Name,
		Params:       params,
		Cfg:          b.cfg,
		IsEntryPoint: isEntryPoint,
		Span:         fn.Span,
	}
}

func (b *builder) newSsaVar(name string) SsaVar {
	version := b.varCounter[name]
	b.varCounter[name] = version + 1
	return SsaVar{Name: name, Version: version}
}

func (b *builder) newTemp() SsaVar {
	name := "_t" + itoa(b.tempCounter)
	b.tempCounter++
	return b.newSsaVar(name)
}

func (b *builder) newBlock() BlockId {
	return b.cfg.AddBlock()
}

func (b *builder) emit(inst Instruction) {
	block := b.cfg.Block(b.currentBlock)
	block.Instructions = append(block.Instructions, inst)
}

func (b *builder) span(n rustast.Node) finding.Span {
	return rustast.Span(b.tree.Path, n)
}

func (b *builder) text(n rustast.Node) string {
	return rustast.Text(b.tree, n)
}

func namedChildren(n rustast.Node) []rustast.Node {
	var out []rustast.Node
	for i := 0; i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil || isPunctType(c.Type()) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isPunctType(t string) bool {
	for _, r := range t {
		if unicode.IsLetter(r) || r == '_' {
			return false
		}
	}
	return true
}

var unitOperand = Operand{Kind: OperandLiteral, LitKind: LiteralUnit}

// lowerBlock lowers every statement in a `block` node and returns the
// operand of its trailing tail expression, if any.
func (b *builder) lowerBlock(block rustast.Node) Operand {
	last := unitOperand
	for _, c := range namedChildren(block) {
		switch c.Type() {
		case "let_declaration":
			b.lowerLet(c)
			last = unitOperand
		case "expression_statement":
			children := namedChildren(c)
			if len(children) > 0 {
				b.lowerExpr(children[0])
			}
			last = unitOperand
		case "empty_statement", "line_comment", "block_comment":
			// no-op
		case "macro_invocation":
			b.lowerMacroInvocation(c)
			last = unitOperand
		default:
			if strings.HasSuffix(c.Type(), "_item") {
				continue
			}
			last = b.lowerExpr(c)
		}
	}
	return last
}

func (b *builder) lowerLet(local rustast.Node) {
	pattern := local.ChildByFieldName("pattern")
	varName := "_pat" + itoa(b.tempCounter)
	if pattern != nil && pattern.Type() == "identifier" {
		varName = b.text(pattern)
	}
	dest := b.newSsaVar(varName)

	value := local.ChildByFieldName("value")
	if value == nil {
		return
	}
	v := b.lowerExpr(value)
	b.emit(Instruction{Op: OpAssign, Dest: &dest, Value: v, Span: b.span(local)})
}

func (b *builder) lowerExpr(n rustast.Node) Operand {
	switch n.Type() {
	case "integer_literal":
		return b.lowerIntLiteral(n)
	case "string_literal", "raw_string_literal":
		if s, ok := unquoteRust(b.text(n)); ok {
			return StringLiteral(s)
		}
		return StringLiteral(b.text(n))
	case "boolean_literal":
		return Operand{Kind: OperandLiteral, LitKind: LiteralBool, BoolVal: b.text(n) == "true"}
	case "identifier":
		return b.lowerIdent(n)
	case "scoped_identifier", "type_identifier":
		return StringLiteral(b.text(n))
	case "field_expression":
		return b.lowerField(n)
	case "call_expression":
		return b.lowerCallExpr(n)
	case "binary_expression":
		return b.lowerBinary(n)
	case "compound_assignment_expr":
		return b.lowerCompoundAssign(n)
	case "unary_expression":
		return b.lowerUnary(n)
	case "reference_expression":
		if v := n.ChildByFieldName("value"); v != nil {
			return b.lowerExpr(v)
		}
	case "parenthesized_expression":
		if inner := firstNamed(n); inner != nil {
			return b.lowerExpr(inner)
		}
	case "if_expression":
		return b.lowerIf(n)
	case "match_expression":
		return b.lowerMatch(n)
	case "block":
		return b.lowerBlock(n)
	case "return_expression":
		return b.lowerReturn(n)
	case "try_expression":
		return b.lowerTry(n)
	case "macro_invocation":
		return b.lowerMacroInvocation(n)
	case "unit_expression":
		return unitOperand
	}

	// Unhandled expression kind: emit an opaque unit value so downstream
	// lowering still has an operand to consume.
	temp := b.newTemp()
	b.emit(Instruction{Op: OpAssign, Dest: &temp, Value: unitOperand, Span: b.span(n)})
	return VarOperand(temp)
}

func firstNamed(n rustast.Node) rustast.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func (b *builder) lowerIntLiteral(n rustast.Node) Operand {
	text := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(b.text(n), "u128"), "i128"), "u64")
	text = strings.TrimRight(text, "uizf3264")
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return Operand{Kind: OperandLiteral, LitKind: LiteralUnit}
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Operand{Kind: OperandLiteral, LitKind: LiteralUnit}
	}
	return IntLiteral(v)
}

func (b *builder) lowerIdent(n rustast.Node) Operand {
	name := b.text(n)
	switch classifyIdent(name, b.varCounter) {
	case pathTypeOrVariant:
		return StringLiteral(name)
	default:
		if version, ok := b.varCounter[name]; ok {
			v := version
			if v > 0 {
				v--
			}
			return VarOperand(SsaVar{Name: name, Version: v})
		}
		return VarOperand(b.newSsaVar(name))
	}
}

func (b *builder) lowerField(n rustast.Node) Operand {
	base := n.ChildByFieldName("value")
	fieldNode := n.ChildByFieldName("field")
	var baseOperand Operand
	if base != nil {
		baseOperand = b.lowerExpr(base)
	}
	fieldName := ""
	if fieldNode != nil {
		fieldName = b.text(fieldNode)
	}
	return FieldAccess(baseOperand, fieldName)
}

func (b *builder) lowerCallExpr(n rustast.Node) Operand {
	fn := n.ChildByFieldName("function")
	argsNode := n.ChildByFieldName("arguments")

	var args []Operand
	if argsNode != nil {
		for _, a := range namedChildren(argsNode) {
			args = append(args, b.lowerExpr(a))
		}
	}

	if fn != nil && fn.Type() == "field_expression" {
		return b.lowerMethodCall(fn, args, n)
	}

	funcName := "unknown"
	if fn != nil {
		funcName = b.text(fn)
	}
	dest := b.newTemp()
	b.emit(Instruction{Op: OpCall, DestOpt: &dest, Func: funcName, Args: args, Span: b.span(n)})
	return VarOperand(dest)
}

func (b *builder) lowerMethodCall(fieldExpr rustast.Node, args []Operand, call rustast.Node) Operand {
	receiverNode := fieldExpr.ChildByFieldName("value")
	methodNode := fieldExpr.ChildByFieldName("field")
	var receiver Operand
	if receiverNode != nil {
		receiver = b.lowerExpr(receiverNode)
	}
	method := ""
	if methodNode != nil {
		method = b.text(methodNode)
	}

	switch method {
	case "addr_validate", "addr_canonicalize":
		dest := b.newTemp()
		address := unitOperand
		if len(args) > 0 {
			address = args[0]
		}
		b.emit(Instruction{Op: OpAddrValidate, Dest: &dest, Address: address, Span: b.span(call)})
		return VarOperand(dest)
	case "save", "update":
		if receiver.Kind == OperandVar {
			var key *Operand
			var value Operand
			switch {
			case len(args) >= 3:
				key = &args[1]
				value = args[2]
			case len(args) >= 2:
				value = args[1]
			default:
				value = unitOperand
			}
			b.emit(Instruction{Op: OpStorageStore, StorageItem: receiver.Var.Name, Key: key, Value: value, Method: method, Span: b.span(call)})
			return unitOperand
		}
	case "load", "may_load":
		if receiver.Kind == OperandVar {
			dest := b.newTemp()
			var key *Operand
			if len(args) > 1 {
				key = &args[1]
			}
			b.emit(Instruction{Op: OpStorageLoad, Dest: &dest, StorageItem: receiver.Var.Name, Key: key, Method: method, Span: b.span(call)})
			return VarOperand(dest)
		}
	case "range", "range_raw":
		dest := b.newTemp()
		b.emit(Instruction{Op: OpRange, DestOpt: &dest, Receiver: receiver, Method: method, Args: args, Span: b.span(call)})
		return VarOperand(dest)
	case "take":
		dest := b.newTemp()
		b.emit(Instruction{Op: OpTake, DestOpt: &dest, Receiver: receiver, Method: method, Args: args, Span: b.span(call)})
		return VarOperand(dest)
	}

	dest := b.newTemp()
	b.emit(Instruction{Op: OpMethodCall, DestOpt: &dest, Receiver: receiver, Method: method, Args: args, Span: b.span(call)})
	return VarOperand(dest)
}

var binaryOps = map[string]BinaryOp{
	"+": BinAdd, "-": BinSub, "*": BinMul, "/": BinDiv, "%": BinMod,
	"==": BinEq, "!=": BinNe, "<": BinLt, "<=": BinLe, ">": BinGt, ">=": BinGe,
	"&&": BinAnd, "||": BinOr,
	"&": BinBitAnd, "|": BinBitOr, "^": BinBitXor, "<<": BinShl, ">>": BinShr,
}

func (b *builder) operatorBetween(left, right rustast.Node) string {
	src := string(b.tree.Source)
	if int(left.EndByte()) > len(src) || int(right.StartByte()) > len(src) || left.EndByte() > right.StartByte() {
		return ""
	}
	return strings.TrimSpace(src[left.EndByte():right.StartByte()])
}

func (b *builder) lowerBinary(n rustast.Node) Operand {
	leftNode := n.ChildByFieldName("left")
	rightNode := n.ChildByFieldName("right")
	if leftNode == nil || rightNode == nil {
		temp := b.newTemp()
		return VarOperand(temp)
	}
	left := b.lowerExpr(leftNode)
	right := b.lowerExpr(rightNode)
	op, ok := binaryOps[b.operatorBetween(leftNode, rightNode)]
	if !ok {
		op = BinUnknown
	}

	dest := b.newTemp()
	b.emit(Instruction{Op: OpBinaryOp, Dest: &dest, BinOp: op, Left: left, Right: right, Span: b.span(n)})
	return VarOperand(dest)
}

func (b *builder) lowerCompoundAssign(n rustast.Node) Operand {
	leftNode := n.ChildByFieldName("left")
	rightNode := n.ChildByFieldName("right")
	if leftNode == nil || rightNode == nil {
		return unitOperand
	}
	left := b.lowerExpr(leftNode)
	right := b.lowerExpr(rightNode)
	opText := strings.TrimSuffix(b.operatorBetween(leftNode, rightNode), "=")
	op, ok := binaryOps[opText]
	if !ok {
		op = BinUnknown
	}
	temp := b.newTemp()
	b.emit(Instruction{Op: OpBinaryOp, Dest: &temp, BinOp: op, Left: left, Right: right, Span: b.span(n)})
	if leftNode.Type() == "identifier" {
		dest := b.newSsaVar(b.text(leftNode))
		b.emit(Instruction{Op: OpAssign, Dest: &dest, Value: VarOperand(temp), Span: b.span(n)})
	}
	return unitOperand
}

func (b *builder) lowerUnary(n rustast.Node) Operand {
	operandNode := lastNamed(n)
	if operandNode == nil {
		return unitOperand
	}
	operand := b.lowerExpr(operandNode)
	prefix := b.text(n)
	op := UnUnknown
	switch {
	case strings.HasPrefix(prefix, "!"):
		op = UnNot
	case strings.HasPrefix(prefix, "-"):
		op = UnNeg
	case strings.HasPrefix(prefix, "*"):
		op = UnDeref
	}
	dest := b.newTemp()
	b.emit(Instruction{Op: OpUnaryOp, Dest: &dest, UnOp: op, Operand: operand, Span: b.span(n)})
	return VarOperand(dest)
}

func lastNamed(n rustast.Node) rustast.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[len(children)-1]
}

func (b *builder) lowerIf(n rustast.Node) Operand {
	condNode := n.ChildByFieldName("condition")
	consequence := n.ChildByFieldName("consequence")
	alternative := n.ChildByFieldName("alternative")

	var condition Operand
	if condNode != nil {
		condition = b.lowerExpr(condNode)
	}

	thenBlock := b.newBlock()
	elseBlock := b.newBlock()
	mergeBlock := b.newBlock()

	b.emit(Instruction{Op: OpBranch, Condition: condition, TrueBlock: thenBlock, FalseBlock: elseBlock, Span: b.span(n)})
	b.cfg.AddEdge(b.currentBlock, thenBlock)
	b.cfg.AddEdge(b.currentBlock, elseBlock)

	b.currentBlock = thenBlock
	if consequence != nil {
		b.lowerBlock(consequence)
	}
	b.emit(Instruction{Op: OpJump, Target: mergeBlock})
	b.cfg.AddEdge(b.currentBlock, mergeBlock)

	b.currentBlock = elseBlock
	if alternative != nil {
		b.lowerElseClause(alternative)
	}
	b.emit(Instruction{Op: OpJump, Target: mergeBlock})
	b.cfg.AddEdge(b.currentBlock, mergeBlock)

	b.currentBlock = mergeBlock
	return unitOperand
}

func (b *builder) lowerElseClause(n rustast.Node) {
	switch n.Type() {
	case "else_clause":
		if inner := firstNamed(n); inner != nil {
			b.lowerElseClause(inner)
		}
	case "block":
		b.lowerBlock(n)
	case "if_expression":
		b.lowerIf(n)
	default:
		b.lowerExpr(n)
	}
}

func (b *builder) lowerMatch(n rustast.Node) Operand {
	scrutinee := n.ChildByFieldName("value")
	if scrutinee != nil {
		b.lowerExpr(scrutinee)
	}
	entryBlock := b.currentBlock
	mergeBlock := b.newBlock()

	body := n.ChildByFieldName("body")
	if body != nil {
		for _, arm := range namedChildren(body) {
			if arm.Type() != "match_arm" {
				continue
			}
			armBlock := b.newBlock()
			b.cfg.AddEdge(entryBlock, armBlock)

			b.currentBlock = armBlock
			if value := arm.ChildByFieldName("value"); value != nil {
				b.lowerExpr(value)
			}
			b.emit(Instruction{Op: OpJump, Target: mergeBlock})
			b.cfg.AddEdge(b.currentBlock, mergeBlock)
		}
	}

	b.currentBlock = entryBlock
	b.emit(Instruction{Op: OpJump, Target: mergeBlock})

	b.currentBlock = mergeBlock
	return unitOperand
}

func (b *builder) lowerReturn(n rustast.Node) Operand {
	var value *Operand
	if inner := firstNamed(n); inner != nil {
		v := b.lowerExpr(inner)
		value = &v
	}
	b.emit(Instruction{Op: OpReturn, ReturnValue: value, Span: b.span(n)})
	return unitOperand
}

func (b *builder) lowerTry(n rustast.Node) Operand {
	inner := firstNamed(n)
	if inner == nil {
		return unitOperand
	}
	value := b.lowerExpr(inner)
	dest := b.newTemp()
	b.emit(Instruction{Op: OpResultUnwrap, Dest: &dest, Value: value, Span: b.span(n)})
	return VarOperand(dest)
}

func (b *builder) lowerMacroInvocation(n rustast.Node) Operand {
	macroNode := n.ChildByFieldName("macro")
	name := "unknown"
	if macroNode != nil {
		name = b.text(macroNode)
	}
	dest := b.newTemp()
	b.emit(Instruction{Op: OpCall, DestOpt: &dest, Func: "macro!" + name, Span: b.span(n)})
	return VarOperand(dest)
}

// unquoteRust strips the surrounding double quotes from a Rust string
// literal's raw source text.
func unquoteRust(raw string) (string, bool) {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return "", false
	}
	return raw[1 : len(raw)-1], true
}
