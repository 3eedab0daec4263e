package detectors

import (
	"fmt"
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// NondeterministicIteration flags functions that iterate a std HashMap
// without sorting it first. HashMap iteration order is randomized per
// process, so two validating nodes can compute different results from the
// same state and fail consensus.
type NondeterministicIteration struct{}

func (NondeterministicIteration) Name() string { return "nondeterministic-iteration" }
func (NondeterministicIteration) Description() string {
	return "Detects unsorted HashMap iteration that breaks consensus determinism"
}
func (NondeterministicIteration) Severity() finding.Severity     { return finding.SeverityMedium }
func (NondeterministicIteration) Confidence() finding.Confidence { return finding.ConfidenceMedium }

func (d NondeterministicIteration) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil {
		return out
	}

	for _, fn := range ctx.Contract.Functions {
		if !strings.Contains(fn.BodyText, "HashMap") {
			continue
		}
		if !containsAny(fn.BodyText, ".iter()", ".keys()", ".values()", ".into_iter()", ".drain()") {
			continue
		}
		if containsAny(fn.BodyText, "BTreeMap", ".sorted", "sort_by", "sort_unstable") {
			continue
		}
		out = append(out, finding.Finding{
			Detector: d.Name(),
			Title:    fmt.Sprintf("Nondeterministic HashMap iteration in `%s`", fn.Name),
			Message: fmt.Sprintf(
				"`%s` iterates a std::collections::HashMap. Iteration order is randomized "+
					"per process, so validating nodes can derive different results and "+
					"diverge from consensus.",
				fn.Name),
			Severity:   finding.SeverityMedium,
			Confidence: finding.ConfidenceMedium,
			Span:       fn.Span,
			Function:   fn.Name,
			Suggestion: "Use std::collections::BTreeMap, or sort the keys before iterating.",
		})
	}
	return out
}
