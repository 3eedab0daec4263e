package detectors

import (
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// MissingFundsValidation flags execute entry points that never inspect
// info.funds, which lets callers attach (or omit) native coins the contract
// never checks for.
type MissingFundsValidation struct{}

func (MissingFundsValidation) Name() string { return "missing-funds-validation" }
func (MissingFundsValidation) Description() string {
	return "Detects execute entry points that never inspect info.funds"
}
func (MissingFundsValidation) Severity() finding.Severity     { return finding.SeverityMedium }
func (MissingFundsValidation) Confidence() finding.Confidence { return finding.ConfidenceMedium }

func (d MissingFundsValidation) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil {
		return out
	}

	for _, ep := range ctx.Contract.EntryPoints {
		if ep.Kind != contract.EntryPointExecute {
			continue
		}
		fn := ctx.Contract.Function(ep.Name)
		if fn == nil || containsAny(fn.BodyText, "info.funds", "funds") {
			continue
		}
		out = append(out, finding.Finding{
			Detector: d.Name(),
			Title:    fmt.Sprintf("No funds check in execute entry point `%s`", ep.Name),
			Message: fmt.Sprintf(
				"Execute entry point `%s` never references `info.funds`. If the message "+
					"is meant to require or forbid attached coins, a caller can send the "+
					"wrong amount without the contract noticing.",
				ep.Name),
			Severity:   finding.SeverityMedium,
			Confidence: finding.ConfidenceMedium,
			Span:       ep.Span,
			Function:   ep.Name,
			Suggestion: "Validate info.funds explicitly, e.g. `cw_utils::must_pay(&info, \"denom\")?`, or assert it is empty.",
		})
	}
	return out
}
