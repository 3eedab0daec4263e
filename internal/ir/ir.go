// Package ir defines cosmwasm-guard's SSA intermediate representation:
// variables, instructions, basic blocks, and the per-function control flow
// graph that detectors analyze instead of walking the raw AST directly.
package ir

import "github.com/lucasamorimca/cosmwasm-guard/internal/finding"

// SsaVar is a single-assignment variable: (name, version) uniquely
// identifies one definition site within a function.
type SsaVar struct {
	Name    string
	Version uint32
}

func (v SsaVar) String() string {
	return v.Name + "_" + itoa(v.Version)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	digits := [10]byte{}
	i := len(digits)
	for v > 0 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	return string(digits[i:])
}

// BlockId indexes a BasicBlock within a Cfg.
type BlockId int

// Opcode tags which instruction variant a Instruction value holds. Go has no
// sum types, so Instruction carries every variant's fields and callers
// switch on Op to know which are populated — mirroring a tagged union.
type Opcode int

const (
	OpAssign Opcode = iota
	OpBinaryOp
	OpUnaryOp
	OpPhi
	OpCall
	OpMethodCall
	OpStorageLoad
	OpStorageStore
	OpAddrValidate
	OpSendMsg
	OpCheckSender
	OpRange
	OpTake
	OpBranch
	OpJump
	OpReturn
	OpResultUnwrap
	OpErrorReturn
)

// BinaryOp enumerates the normalized binary operators the IR builder lowers
// Rust's token-level operators into.
type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
	BinUnknown
)

// UnaryOp enumerates normalized unary operators.
type UnaryOp int

const (
	UnNot UnaryOp = iota
	UnNeg
	UnDeref
	UnRef
	UnUnknown
)

// OperandKind tags which field of Operand is populated.
type OperandKind int

const (
	OperandVar OperandKind = iota
	OperandLiteral
	OperandFieldAccess
)

// LiteralKind tags which field of a literal Operand is populated.
type LiteralKind int

const (
	LiteralInt LiteralKind = iota
	LiteralUint
	LiteralString
	LiteralBool
	LiteralUnit
)

// Operand is a value consumed by an instruction: an SSA variable, a literal,
// or a field projection off another operand (`msg.sender`, `config.owner`).
type Operand struct {
	Kind OperandKind

	Var SsaVar // valid when Kind == OperandVar

	// valid when Kind == OperandLiteral
	LitKind LiteralKind
	IntVal  int64
	StrVal  string
	BoolVal bool

	// valid when Kind == OperandFieldAccess
	Base  *Operand
	Field string
}

// VarOperand builds an Operand referencing an SSA variable.
func VarOperand(v SsaVar) Operand { return Operand{Kind: OperandVar, Var: v} }

// StringLiteral builds a string-literal Operand.
func StringLiteral(s string) Operand {
	return Operand{Kind: OperandLiteral, LitKind: LiteralString, StrVal: s}
}

// IntLiteral builds an integer-literal Operand.
func IntLiteral(v int64) Operand {
	return Operand{Kind: OperandLiteral, LitKind: LiteralInt, IntVal: v}
}

// FieldAccess builds an Operand projecting Field off base.
func FieldAccess(base Operand, field string) Operand {
	return Operand{Kind: OperandFieldAccess, Base: &base, Field: field}
}

// PhiSource is one incoming edge of a Phi instruction.
type PhiSource struct {
	Var   SsaVar
	Block BlockId
}

// KeyValue is a named operand, used for SendMsg's message fields.
type KeyValue struct {
	Key   string
	Value Operand
}

// Instruction is one normalized operation within a basic block. Op
// determines which of the remaining fields are meaningful.
type Instruction struct {
	Op Opcode

	Dest    *SsaVar // Assign, BinaryOp, UnaryOp, Phi, StorageLoad, AddrValidate, ResultUnwrap
	DestOpt *SsaVar // Call, MethodCall, Range, Take — nil when the call's result is discarded

	Value Operand // Assign, ResultUnwrap value, ErrorReturn error

	BinOp BinaryOp
	Left  Operand
	Right Operand

	UnOp    UnaryOp
	Operand Operand

	PhiSources []PhiSource

	Func string    // Call
	Args []Operand // Call, MethodCall

	Receiver Operand // MethodCall, Range, Take
	Method   string  // MethodCall, Range ("range"/"range_raw"); also the accessor name for StorageLoad ("load"/"may_load") and StorageStore ("save"/"update")

	StorageItem string   // StorageLoad, StorageStore
	Key         *Operand // StorageLoad, StorageStore — nil when unkeyed (Item<T>)

	Address Operand // AddrValidate

	MsgType string     // SendMsg
	Fields  []KeyValue // SendMsg

	SenderVar Operand // CheckSender
	Expected  Operand // CheckSender

	Condition  Operand // Branch
	TrueBlock  BlockId // Branch
	FalseBlock BlockId // Branch

	Target BlockId // Jump

	ReturnValue *Operand // Return — nil for a bare `return`/`Ok(())` with no payload

	// Span anchors the instruction to source, so a detector can turn an IR
	// match into a finding.Span without re-walking the AST.
	Span finding.Span
}

// BasicBlock is a straight-line sequence of instructions with a single
// entry and (conceptually) single exit, linked into the function's Cfg.
type BasicBlock struct {
	Id            BlockId
	Instructions  []Instruction
	Successors    []BlockId
	Predecessors  []BlockId
}

// NewBasicBlock builds an empty block with the given id.
func NewBasicBlock(id BlockId) *BasicBlock {
	return &BasicBlock{Id: id}
}

// DefUse records where a single SSA variable is defined and every block+
// instruction index where it is subsequently used.
type DefUse struct {
	DefBlock      BlockId
	DefInstrIndex int
	Uses          []UseSite
}

// UseSite is one use of a variable: the block and instruction index.
type UseSite struct {
	Block BlockId
	Index int
}

// Cfg is the control flow graph for a single function.
type Cfg struct {
	FunctionName string
	Blocks       []*BasicBlock
	EntryBlock   BlockId
	ExitBlocks   []BlockId
}

// NewCfg builds an empty Cfg for the named function.
func NewCfg(functionName string) *Cfg {
	return &Cfg{FunctionName: functionName}
}

// AddBlock appends a new empty block and returns its id.
func (c *Cfg) AddBlock() BlockId {
	id := BlockId(len(c.Blocks))
	c.Blocks = append(c.Blocks, NewBasicBlock(id))
	return id
}

// AddEdge links source -> target, updating both blocks' adjacency lists.
// A no-op if the edge already exists.
func (c *Cfg) AddEdge(source, target BlockId) {
	src := c.Blocks[source]
	if !containsBlock(src.Successors, target) {
		src.Successors = append(src.Successors, target)
	}
	dst := c.Blocks[target]
	if !containsBlock(dst.Predecessors, source) {
		dst.Predecessors = append(dst.Predecessors, source)
	}
}

func containsBlock(ids []BlockId, id BlockId) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

// Block returns the block with the given id.
func (c *Cfg) Block(id BlockId) *BasicBlock {
	return c.Blocks[id]
}

// DefinedVars returns the set of every variable defined anywhere in c.
func (c *Cfg) DefinedVars() map[SsaVar]struct{} {
	vars := make(map[SsaVar]struct{})
	for _, block := range c.Blocks {
		for _, inst := range block.Instructions {
			if v := instructionDef(inst); v != nil {
				vars[*v] = struct{}{}
			}
		}
	}
	return vars
}

// UsedVars returns the set of every variable used anywhere in c.
func (c *Cfg) UsedVars() map[SsaVar]struct{} {
	vars := make(map[SsaVar]struct{})
	for _, block := range c.Blocks {
		for _, inst := range block.Instructions {
			for _, v := range instructionUses(inst) {
				vars[v] = struct{}{}
			}
		}
	}
	return vars
}

// DefUseChains builds, for every variable defined in c, its definition site
// and every use site.
func (c *Cfg) DefUseChains() map[SsaVar]*DefUse {
	chains := make(map[SsaVar]*DefUse)
	for _, block := range c.Blocks {
		for idx, inst := range block.Instructions {
			if v := instructionDef(inst); v != nil {
				chains[*v] = &DefUse{DefBlock: block.Id, DefInstrIndex: idx}
			}
		}
	}
	for _, block := range c.Blocks {
		for idx, inst := range block.Instructions {
			for _, v := range instructionUses(inst) {
				if du, ok := chains[v]; ok {
					du.Uses = append(du.Uses, UseSite{Block: block.Id, Index: idx})
				}
			}
		}
	}
	return chains
}

// ReversePostorder returns block ids in reverse-postorder from the entry
// block, suitable for forward dataflow analyses that want definitions
// visited before their uses whenever the CFG is reducible.
func (c *Cfg) ReversePostorder() []BlockId {
	visited := make(map[BlockId]bool)
	var postorder []BlockId
	var visit func(id BlockId)
	visit = func(id BlockId) {
		if visited[id] {
			return
		}
		visited[id] = true
		block := c.Blocks[id]
		for _, succ := range block.Successors {
			visit(succ)
		}
		postorder = append(postorder, id)
	}
	visit(c.EntryBlock)
	for i, j := 0, len(postorder)-1; i < j; i, j = i+1, j-1 {
		postorder[i], postorder[j] = postorder[j], postorder[i]
	}
	return postorder
}

func instructionDef(inst Instruction) *SsaVar {
	switch inst.Op {
	case OpAssign, OpBinaryOp, OpUnaryOp, OpPhi, OpStorageLoad, OpAddrValidate, OpResultUnwrap:
		return inst.Dest
	case OpCall, OpMethodCall, OpRange, OpTake:
		return inst.DestOpt
	default:
		return nil
	}
}

func instructionUses(inst Instruction) []SsaVar {
	var uses []SsaVar
	collect := func(o Operand) { collectOperandVars(o, &uses) }
	switch inst.Op {
	case OpAssign:
		collect(inst.Value)
	case OpBinaryOp:
		collect(inst.Left)
		collect(inst.Right)
	case OpUnaryOp:
		collect(inst.Operand)
	case OpPhi:
		for _, s := range inst.PhiSources {
			uses = append(uses, s.Var)
		}
	case OpCall:
		for _, a := range inst.Args {
			collect(a)
		}
	case OpMethodCall, OpRange, OpTake:
		collect(inst.Receiver)
		for _, a := range inst.Args {
			collect(a)
		}
	case OpStorageLoad:
		if inst.Key != nil {
			collect(*inst.Key)
		}
	case OpStorageStore:
		if inst.Key != nil {
			collect(*inst.Key)
		}
		collect(inst.Value)
	case OpAddrValidate:
		collect(inst.Address)
	case OpBranch:
		collect(inst.Condition)
	case OpReturn:
		if inst.ReturnValue != nil {
			collect(*inst.ReturnValue)
		}
	case OpResultUnwrap:
		collect(inst.Value)
	case OpErrorReturn:
		collect(inst.Value)
	case OpCheckSender:
		collect(inst.SenderVar)
		collect(inst.Expected)
	case OpSendMsg:
		for _, f := range inst.Fields {
			collect(f.Value)
		}
	case OpJump:
		// no operands
	}
	return uses
}

func collectOperandVars(o Operand, out *[]SsaVar) {
	switch o.Kind {
	case OperandVar:
		*out = append(*out, o.Var)
	case OperandFieldAccess:
		if o.Base != nil {
			collectOperandVars(*o.Base, out)
		}
	case OperandLiteral:
		// no variables
	}
}

// FunctionIr is the lowered form of a single function.
type FunctionIr struct {
	Name         string
	Params       []SsaVar
	Cfg          *Cfg
	IsEntryPoint bool
	Span         finding.Span
}

// ContractIr is the lowered form of an entire contract (merged from the
// crate's source files, see internal/engine).
type ContractIr struct {
	Functions    []*FunctionIr
	EntryPoints  []string
}

// NewContractIr builds an empty ContractIr.
func NewContractIr() *ContractIr {
	return &ContractIr{}
}

// Function returns the named function's IR, or nil if absent.
func (c *ContractIr) Function(name string) *FunctionIr {
	for _, f := range c.Functions {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// EntryPointFunctions returns every function marked as an entry point.
func (c *ContractIr) EntryPointFunctions() []*FunctionIr {
	var out []*FunctionIr
	for _, f := range c.Functions {
		if f.IsEntryPoint {
			out = append(out, f)
		}
	}
	return out
}
