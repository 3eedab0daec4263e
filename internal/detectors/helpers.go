// Package detectors implements cosmwasm-guard's built-in vulnerability
// detectors and the canonical order they register in.
package detectors

import (
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// operandReferencesName reports whether op is, or projects a field named,
// name — the Go analogue of matching syn::Expr::Path/Field/Reference chains
// against a tracked variable name.
func operandReferencesName(op ir.Operand, name string) bool {
	switch op.Kind {
	case ir.OperandVar:
		return op.Var.Name == name
	case ir.OperandFieldAccess:
		if op.Field == name {
			return true
		}
		if op.Base != nil {
			return operandReferencesName(*op.Base, name)
		}
	}
	return false
}

// allInstructions yields every instruction in fn's Cfg, in block order.
func allInstructions(fn *ir.FunctionIr) []ir.Instruction {
	var out []ir.Instruction
	for _, block := range fn.Cfg.Blocks {
		out = append(out, block.Instructions...)
	}
	return out
}

// chainDefs indexes every Range/Take/MethodCall instruction in fn by its
// destination variable, so a method chain can be walked backward through
// whichever kind of call defined each intermediate receiver.
func chainDefs(fn *ir.FunctionIr) map[ir.SsaVar]ir.Instruction {
	defs := make(map[ir.SsaVar]ir.Instruction)
	for _, inst := range allInstructions(fn) {
		switch inst.Op {
		case ir.OpMethodCall, ir.OpRange, ir.OpTake:
			if inst.DestOpt != nil {
				defs[*inst.DestOpt] = inst
			}
		}
	}
	return defs
}

// methodChain walks backward from a MethodCall's receiver through the
// instructions that defined each intermediate receiver, collecting the
// method names in call order (outermost first), mirroring how the original
// detector walked a chained syn::ExprMethodCall's nested receivers.
func methodChain(fn *ir.FunctionIr, start ir.Instruction) []string {
	defs := chainDefs(fn)

	var chain []string
	cur := start
	for {
		chain = append(chain, cur.Method)
		if cur.Receiver.Kind != ir.OperandVar {
			break
		}
		next, ok := defs[cur.Receiver.Var]
		if !ok {
			break
		}
		cur = next
	}
	// reverse so the chain reads outermost-first
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// rangeReceiver walks backward from start through the method chain looking
// for the OpRange call that started it, returning its receiver operand so a
// caller can apply the storage-qualification guard against the contract
// model. Returns ok=false if the chain never reaches a Range instruction.
func rangeReceiver(fn *ir.FunctionIr, start ir.Instruction) (ir.Operand, bool) {
	defs := chainDefs(fn)
	cur := start
	for {
		if cur.Op == ir.OpRange {
			return cur.Receiver, true
		}
		if cur.Receiver.Kind != ir.OperandVar {
			return ir.Operand{}, false
		}
		next, ok := defs[cur.Receiver.Var]
		if !ok {
			return ir.Operand{}, false
		}
		cur = next
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
