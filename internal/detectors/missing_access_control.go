package detectors

import (
	"fmt"
	"regexp"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// MissingAccessControl flags execute handler functions, reached by
// following an execute entry point's top-level dispatch match, that never
// check info.sender against a recognized authorization idiom.
type MissingAccessControl struct{}

func (MissingAccessControl) Name() string { return "missing-access-control" }
func (MissingAccessControl) Description() string {
	return "Detects execute handlers that never check info.sender against an authorization fact"
}
func (MissingAccessControl) Severity() finding.Severity     { return finding.SeverityHigh }
func (MissingAccessControl) Confidence() finding.Confidence { return finding.ConfidenceMedium }

// dispatchArmPattern matches a match arm's tail call, e.g.
// `ExecuteMsg::SetAdmin { new } => set_admin(deps, info, new)` or the same
// with a braced arm body `=> { ... set_admin(...) }`.
var dispatchArmPattern = regexp.MustCompile(`=>\s*\{?\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`)

func (d MissingAccessControl) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil {
		return out
	}

	for _, ep := range ctx.Contract.EntryPoints {
		if ep.Kind != contract.EntryPointExecute {
			continue
		}
		fn := ctx.Contract.Function(ep.Name)
		if fn == nil {
			continue
		}

		for _, handlerName := range dispatchTargets(ctx.Contract, fn.BodyText) {
			handler := ctx.Contract.Function(handlerName)
			if handler == nil || checksSender(handler.BodyText) {
				continue
			}
			out = append(out, finding.Finding{
				Detector: d.Name(),
				Title:    fmt.Sprintf("No sender check in execute handler `%s`", handler.Name),
				Message: fmt.Sprintf(
					"Handler `%s`, dispatched from execute entry point `%s`, never checks "+
						"`info.sender` against an authorization fact. Without an identity check, "+
						"any address can invoke this privileged state transition.",
					handler.Name, ep.Name),
				Severity:   finding.SeverityHigh,
				Confidence: finding.ConfidenceMedium,
				Span:       handler.Span,
				Function:   handler.Name,
				Suggestion: "Compare info.sender against the expected authority, e.g. `ensure_eq!(info.sender, config.admin, ContractError::Unauthorized {});`",
			})
		}
	}
	return out
}

// dispatchTargets returns the handler names reachable from an execute entry
// point's top-level match, following each arm's tail call. When body has no
// top-level match, dispatch is conservatively treated as reaching every
// function declared in the crate.
func dispatchTargets(c *contract.ContractInfo, body string) []string {
	matches := dispatchArmPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		names := make([]string, 0, len(c.Functions))
		for _, fn := range c.Functions {
			names = append(names, fn.Name)
		}
		return names
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

func checksSender(body string) bool {
	return containsAny(body, "info.sender") && containsAny(body,
		"ensure_eq", "ensure!", "require", "assert_eq", "==", "!=",
		"assert_owner", "is_owner", "assert_admin", "only_owner", "Ownable::")
}
