package detectors

import (
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// ArithmeticOverflow flags calls to the explicit wrapping_*/overflowing_*
// arithmetic family, which silently truncate instead of trapping the way
// plain +/-/* do in a debug_assertions-off release contract build.
type ArithmeticOverflow struct{}

func (ArithmeticOverflow) Name() string { return "arithmetic-overflow" }
func (ArithmeticOverflow) Description() string {
	return "Detects wrapping/overflowing arithmetic that silently truncates"
}
func (ArithmeticOverflow) Severity() finding.Severity     { return finding.SeverityHigh }
func (ArithmeticOverflow) Confidence() finding.Confidence { return finding.ConfidenceMedium }

var overflowProneMethods = map[string]bool{
	"wrapping_add": true, "wrapping_sub": true, "wrapping_mul": true,
	"overflowing_add": true, "overflowing_sub": true, "overflowing_mul": true,
	"neg": true,
}

func (d ArithmeticOverflow) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Ir == nil {
		return out
	}

	for _, fn := range ctx.Ir.Functions {
		for _, inst := range allInstructions(fn) {
			if inst.Op != ir.OpMethodCall || !overflowProneMethods[inst.Method] {
				continue
			}
			out = append(out, finding.Finding{
				Detector: d.Name(),
				Title:    fmt.Sprintf("Silent-truncating `.%s()` in `%s`", inst.Method, fn.Name),
				Message: fmt.Sprintf(
					"`%s` uses `.%s()`, which wraps on overflow instead of returning an error "+
						"or panicking. Balances and counters computed this way can silently "+
						"underflow/overflow to an attacker-controlled value.",
					fn.Name, inst.Method),
				Severity:   finding.SeverityHigh,
				Confidence: finding.ConfidenceMedium,
				Span:       inst.Span,
				Function:   fn.Name,
				Suggestion: "Use the checked_* variant and propagate an error on None, e.g. `a.checked_add(b)?`.",
			})
		}
	}
	return out
}
