package detectors

import (
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// MissingMigrationVersion flags migrate entry points that never call
// cw2's version-guard helpers, allowing a migration to be replayed or
// applied out of order.
type MissingMigrationVersion struct{}

func (MissingMigrationVersion) Name() string { return "missing-migration-version" }
func (MissingMigrationVersion) Description() string {
	return "Detects migrate entry points that skip the cw2 version guard"
}
func (MissingMigrationVersion) Severity() finding.Severity     { return finding.SeverityHigh }
func (MissingMigrationVersion) Confidence() finding.Confidence { return finding.ConfidenceHigh }

func (d MissingMigrationVersion) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil {
		return out
	}

	for _, ep := range ctx.Contract.EntryPoints {
		if ep.Kind != contract.EntryPointMigrate {
			continue
		}
		fn := ctx.Contract.Function(ep.Name)
		if fn == nil || containsAny(fn.BodyText,
			"set_contract_version", "ensure_from_older_version", "get_contract_version") {
			continue
		}
		out = append(out, finding.Finding{
			Detector: d.Name(),
			Title:    fmt.Sprintf("No version guard in migrate entry point `%s`", ep.Name),
			Message: fmt.Sprintf(
				"Migrate entry point `%s` never calls a cw2 version-guard helper. Without "+
					"one, the same migration can be re-applied, or an older migration run "+
					"over a newer contract, corrupting state.",
				ep.Name),
			Severity:   finding.SeverityHigh,
			Confidence: finding.ConfidenceHigh,
			Span:       ep.Span,
			Function:   ep.Name,
			Suggestion: "Call `cw2::ensure_from_older_version(deps.storage, CONTRACT_NAME, CONTRACT_VERSION)?` before mutating state.",
		})
	}
	return out
}
