package detectors

import (
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// UnsafeUnwrap flags .unwrap()/.expect() calls reachable from contract
// entry-point logic, where a panic aborts the whole transaction instead of
// returning a ContractError.
type UnsafeUnwrap struct{}

func (UnsafeUnwrap) Name() string        { return "unsafe-unwrap" }
func (UnsafeUnwrap) Description() string { return "Detects .unwrap()/.expect() calls that can panic" }
func (UnsafeUnwrap) Severity() finding.Severity     { return finding.SeverityMedium }
func (UnsafeUnwrap) Confidence() finding.Confidence { return finding.ConfidenceHigh }

func (d UnsafeUnwrap) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Ir == nil {
		return out
	}

	for _, fn := range ctx.Ir.Functions {
		for _, inst := range allInstructions(fn) {
			if inst.Op != ir.OpMethodCall {
				continue
			}
			if inst.Method != "unwrap" && inst.Method != "expect" {
				continue
			}
			out = append(out, finding.Finding{
				Detector: d.Name(),
				Title:    fmt.Sprintf("Panicking `.%s()` in `%s`", inst.Method, fn.Name),
				Message: fmt.Sprintf(
					"`%s` calls `.%s()`, which panics on None/Err instead of returning a "+
						"ContractError. A panic aborts the transaction without the caller-visible "+
						"error message a contract error would carry.",
					fn.Name, inst.Method),
				Severity:   finding.SeverityMedium,
				Confidence: finding.ConfidenceHigh,
				Span:       inst.Span,
				Function:   fn.Name,
				Suggestion: "Propagate the error instead: `.ok_or(ContractError::NotFound {})?` or `?` on a Result.",
			})
		}
	}
	return out
}
