package detectors

import (
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// UninitializedStateAccess flags state items that instantiate never
// initializes but that a query/execute path loads with the panicking
// load() accessor instead of may_load().
type UninitializedStateAccess struct{}

func (UninitializedStateAccess) Name() string { return "uninitialized-state-access" }
func (UninitializedStateAccess) Description() string {
	return "Detects state loaded without initialization guarantees from instantiate"
}
func (UninitializedStateAccess) Severity() finding.Severity     { return finding.SeverityHigh }
func (UninitializedStateAccess) Confidence() finding.Confidence { return finding.ConfidenceMedium }

func (d UninitializedStateAccess) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil || ctx.Ir == nil {
		return out
	}

	initialized := make(map[string]bool)
	entryKind := make(map[string]contract.EntryPointKind)
	for _, ep := range ctx.Contract.EntryPoints {
		entryKind[ep.Name] = ep.Kind
	}

	for _, fn := range ctx.Ir.Functions {
		if entryKind[fn.Name] != contract.EntryPointInstantiate {
			continue
		}
		for _, inst := range allInstructions(fn) {
			if inst.Op == ir.OpStorageStore {
				initialized[inst.StorageItem] = true
			}
		}
	}

	seen := make(map[string]bool)
	for _, fn := range ctx.Ir.Functions {
		kind := entryKind[fn.Name]
		if kind != contract.EntryPointExecute && kind != contract.EntryPointQuery {
			continue
		}
		for _, inst := range allInstructions(fn) {
			if inst.Op != ir.OpStorageLoad || inst.Method != "load" || initialized[inst.StorageItem] {
				continue
			}
			key := fn.Name + "|" + inst.StorageItem
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, finding.Finding{
				Detector: d.Name(),
				Title:    fmt.Sprintf("Possibly-uninitialized load of `%s` in `%s`", inst.StorageItem, fn.Name),
				Message: fmt.Sprintf(
					"`%s` loads `%s` with a panicking accessor, but no instantiate path was "+
						"found writing `%s` first. If the item is never set, this call panics.",
					fn.Name, inst.StorageItem, inst.StorageItem),
				Severity:   finding.SeverityHigh,
				Confidence: finding.ConfidenceMedium,
				Span:       inst.Span,
				Function:   fn.Name,
				Suggestion: fmt.Sprintf("Initialize `%s` in instantiate, or use `may_load()` and handle the None case.", inst.StorageItem),
			})
		}
	}
	return out
}
