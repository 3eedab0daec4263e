package detectors

import (
	"fmt"
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// MissingErrorPropagation flags `let _ = <call>;` statements that discard a
// Result, silently swallowing whatever error the call could return.
type MissingErrorPropagation struct{}

func (MissingErrorPropagation) Name() string { return "missing-error-propagation" }
func (MissingErrorPropagation) Description() string {
	return "Detects `let _ = ...;` statements that silently discard a Result"
}
func (MissingErrorPropagation) Severity() finding.Severity     { return finding.SeverityLow }
func (MissingErrorPropagation) Confidence() finding.Confidence { return finding.ConfidenceHigh }

func (d MissingErrorPropagation) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil {
		return out
	}

	for _, fn := range ctx.Contract.Functions {
		for _, lineNo := range findWildcardLetLines(fn.BodyText) {
			out = append(out, finding.Finding{
				Detector: d.Name(),
				Title:    fmt.Sprintf("Discarded result in `%s`", fn.Name),
				Message: fmt.Sprintf(
					"`%s` binds a call result to `_`, discarding it. If the call returns a "+
						"Result, any error it produces is silently swallowed instead of "+
						"propagated with `?`.",
					fn.Name),
				Severity:   finding.SeverityLow,
				Confidence: finding.ConfidenceHigh,
				Span:       finding.Span{File: fn.Span.File, Start: finding.Position{Line: fn.Span.Start.Line + lineNo}},
				Function:   fn.Name,
				Suggestion: "Propagate the error with `?`, or bind and handle it explicitly instead of `let _ =`.",
			})
		}
	}
	return out
}

// findWildcardLetLines returns the 0-based line offsets within body where a
// `let _ = ...;` statement discards what looks like a call result.
func findWildcardLetLines(body string) []int {
	var lines []int
	for i, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "let _ =") && !strings.HasPrefix(trimmed, "let _=") {
			continue
		}
		if strings.Contains(trimmed, "(") {
			lines = append(lines, i)
		}
	}
	return lines
}
