package detectors

import (
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// SubmessageReplyUnvalidated flags reply entry points that never inspect
// msg.id, so a reply handler cannot tell which submessage it is resuming
// and may act on the wrong one.
type SubmessageReplyUnvalidated struct{}

func (SubmessageReplyUnvalidated) Name() string { return "submessage-reply-unvalidated" }
func (SubmessageReplyUnvalidated) Description() string {
	return "Detects reply entry points that never branch on the submessage id"
}
func (SubmessageReplyUnvalidated) Severity() finding.Severity     { return finding.SeverityHigh }
func (SubmessageReplyUnvalidated) Confidence() finding.Confidence { return finding.ConfidenceMedium }

func (d SubmessageReplyUnvalidated) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil {
		return out
	}

	for _, ep := range ctx.Contract.EntryPoints {
		if ep.Kind != contract.EntryPointReply {
			continue
		}
		fn := ctx.Contract.Function(ep.Name)
		if fn == nil || containsAny(fn.BodyText, ".id", "msg.id") {
			continue
		}
		out = append(out, finding.Finding{
			Detector: d.Name(),
			Title:    fmt.Sprintf("Reply entry point `%s` never checks submessage id", ep.Name),
			Message: fmt.Sprintf(
				"Reply entry point `%s` never references the submessage `.id`. If more "+
					"than one submessage is ever dispatched, the handler cannot tell them "+
					"apart and may apply the wrong follow-up logic.",
				ep.Name),
			Severity:   finding.SeverityHigh,
			Confidence: finding.ConfidenceMedium,
			Span:       ep.Span,
			Function:   ep.Name,
			Suggestion: "Match on `msg.id` and handle each dispatched submessage id explicitly.",
		})
	}
	return out
}
