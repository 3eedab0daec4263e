package detectors

import (
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// StorageKeyCollision flags two cw-storage-plus containers declared with
// the same literal storage key, which corrupts both at runtime since they
// address the same underlying bytes.
type StorageKeyCollision struct{}

func (StorageKeyCollision) Name() string { return "storage-key-collision" }
func (StorageKeyCollision) Description() string {
	return "Detects cw-storage-plus containers sharing a literal storage key"
}
func (StorageKeyCollision) Severity() finding.Severity     { return finding.SeverityHigh }
func (StorageKeyCollision) Confidence() finding.Confidence { return finding.ConfidenceHigh }

func (d StorageKeyCollision) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil {
		return out
	}

	firstSeen := make(map[string]string) // storage key -> first item name
	for _, item := range ctx.Contract.StateItems {
		if item.StorageKey == "" {
			continue
		}
		owner, seen := firstSeen[item.StorageKey]
		if !seen {
			firstSeen[item.StorageKey] = item.Name
			continue
		}
		out = append(out, finding.Finding{
			Detector: d.Name(),
			Title:    fmt.Sprintf("Storage key collision: `%s` and `%s`", owner, item.Name),
			Message: fmt.Sprintf(
				"`%s` and `%s` are both declared with storage key %q. Both containers "+
					"address the same underlying storage slot and will corrupt each other.",
				owner, item.Name, item.StorageKey),
			Severity:   finding.SeverityHigh,
			Confidence: finding.ConfidenceHigh,
			Span:       item.Span,
			Suggestion: fmt.Sprintf("Give `%s` a unique storage key distinct from `%s`.", item.Name, owner),
		})
	}
	return out
}
