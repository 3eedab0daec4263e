package detectors

import (
	"fmt"
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// UnboundedIteration flags storage range iterations that are fully consumed
// (collect/for_each/count/sum/fold/last/max/min) without a preceding take(),
// which lets gas cost grow linearly with however much state exists.
type UnboundedIteration struct{}

func (UnboundedIteration) Name() string { return "unbounded-iteration" }
func (UnboundedIteration) Description() string {
	return "Detects unbounded storage range iterations lacking a take() limit"
}
func (UnboundedIteration) Severity() finding.Severity     { return finding.SeverityMedium }
func (UnboundedIteration) Confidence() finding.Confidence { return finding.ConfidenceMedium }

var terminalMethods = map[string]bool{
	"collect": true, "for_each": true, "count": true,
	"sum": true, "fold": true, "last": true, "max": true, "min": true,
}

func (d UnboundedIteration) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Ir == nil {
		return out
	}

	for _, fn := range ctx.Ir.Functions {
		for _, inst := range allInstructions(fn) {
			if inst.Op != ir.OpMethodCall || !terminalMethods[inst.Method] {
				continue
			}
			chain := methodChain(fn, inst)
			if !hasRange(chain) || hasTake(chain) {
				continue
			}
			receiver, ok := rangeReceiver(fn, inst)
			if !ok || !isStorageContainer(ctx.Contract, receiver) {
				continue
			}
			out = append(out, finding.Finding{
				Detector: d.Name(),
				Title:    fmt.Sprintf("Unbounded range iteration in `%s`", fn.Name),
				Message: fmt.Sprintf(
					"`%s` iterates a storage range (%s) fully via `.%s()` without a `.take()` "+
						"limit. Gas cost grows with the number of stored entries, which an "+
						"attacker can inflate to exceed the block gas limit.",
					fn.Name, strings.Join(chain, "."), inst.Method),
				Severity:   finding.SeverityMedium,
				Confidence: finding.ConfidenceMedium,
				Span:       inst.Span,
				Function:   fn.Name,
				Suggestion: "Bound the iteration with `.take(limit)` and accept a paginated start-after cursor.",
			})
		}
	}
	return out
}

func hasRange(chain []string) bool {
	for _, m := range chain {
		if m == "range" || m == "range_raw" {
			return true
		}
	}
	return false
}

func hasTake(chain []string) bool {
	for _, m := range chain {
		if m == "take" {
			return true
		}
	}
	return false
}

// isStorageContainer reports whether receiver names a cw-storage-plus item
// (Map, IndexedMap, SnapshotMap). A bare .range() on any other type — a
// Vec, a slice, an unrelated iterator — is not a storage-qualified range and
// must not be flagged.
func isStorageContainer(c *contract.ContractInfo, receiver ir.Operand) bool {
	if c == nil || receiver.Kind != ir.OperandVar {
		return false
	}
	for _, item := range c.StateItems {
		if item.Name != receiver.Var.Name {
			continue
		}
		switch item.StorageType {
		case contract.StorageMap, contract.StorageIndexedMap, contract.StorageSnapshotMap:
			return true
		}
	}
	return false
}
