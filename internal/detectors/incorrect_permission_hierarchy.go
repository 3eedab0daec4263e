package detectors

import (
	"fmt"
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// IncorrectPermissionHierarchy flags execute handlers that write to a
// privileged config/admin/owner/governance item without ever reading that
// same item, suggesting the handler trusts its caller instead of checking
// the authority stored in it.
type IncorrectPermissionHierarchy struct{}

func (IncorrectPermissionHierarchy) Name() string { return "incorrect-permission-hierarchy" }
func (IncorrectPermissionHierarchy) Description() string {
	return "Detects privileged state writes with no matching authority read"
}
func (IncorrectPermissionHierarchy) Severity() finding.Severity     { return finding.SeverityMedium }
func (IncorrectPermissionHierarchy) Confidence() finding.Confidence { return finding.ConfidenceMedium }

var privilegedNames = []string{"config", "admin", "owner", "governance"}

func isPrivilegedItem(name string) bool {
	lower := strings.ToLower(name)
	for _, p := range privilegedNames {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (d IncorrectPermissionHierarchy) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil || ctx.Ir == nil {
		return out
	}

	entryKind := make(map[string]contract.EntryPointKind)
	for _, ep := range ctx.Contract.EntryPoints {
		entryKind[ep.Name] = ep.Kind
	}

	for _, fn := range ctx.Ir.Functions {
		if entryKind[fn.Name] != contract.EntryPointExecute {
			continue
		}

		wrote := make(map[string]finding.Span)
		read := make(map[string]bool)
		for _, inst := range allInstructions(fn) {
			switch inst.Op {
			case ir.OpStorageStore:
				if isPrivilegedItem(inst.StorageItem) {
					wrote[inst.StorageItem] = inst.Span
				}
			case ir.OpStorageLoad:
				if isPrivilegedItem(inst.StorageItem) {
					read[inst.StorageItem] = true
				}
			}
		}

		for item, span := range wrote {
			if read[item] {
				continue
			}
			out = append(out, finding.Finding{
				Detector: d.Name(),
				Title:    fmt.Sprintf("Privileged write to `%s` in `%s` without an authority check", item, fn.Name),
				Message: fmt.Sprintf(
					"`%s` writes `%s` without ever reading it "+
						"first. This suggests the handler never checked the existing "+
						"authority before overwriting it.",
					fn.Name, item),
				Severity:   finding.SeverityMedium,
				Confidence: finding.ConfidenceMedium,
				Span:       span,
				Function:   fn.Name,
				Suggestion: fmt.Sprintf("Load `%s` first and verify info.sender against the stored authority before overwriting it.", item),
			})
		}
	}
	return out
}
