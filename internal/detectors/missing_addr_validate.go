package detectors

import (
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// MissingAddrValidate flags String fields in message enums that look like
// an address but are never passed to addr_validate/addr_canonicalize
// anywhere in the crate.
type MissingAddrValidate struct{}

func (MissingAddrValidate) Name() string        { return "missing-addr-validate" }
func (MissingAddrValidate) Description() string {
	return "Detects string addresses in message types not validated with addr_validate()"
}
func (MissingAddrValidate) Severity() finding.Severity     { return finding.SeverityMedium }
func (MissingAddrValidate) Confidence() finding.Confidence { return finding.ConfidenceMedium }

func (d MissingAddrValidate) Detect(ctx *detect.AnalysisContext) []finding.Finding {
	var out []finding.Finding
	if ctx.Contract == nil {
		return out
	}

	for _, msgEnum := range ctx.Contract.MessageEnums {
		for _, variant := range msgEnum.Variants {
			for _, field := range variant.Fields {
				if !contract.IsAddressLikeStringType(field.TypeName) || !contract.IsAddressFieldName(field.Name) {
					continue
				}
				if d.isFieldValidated(ctx, field.Name) {
					continue
				}
				out = append(out, finding.Finding{
					Detector: d.Name(),
					Title:    fmt.Sprintf("Unvalidated address: `%s` in %s::%s", field.Name, msgEnum.Name, variant.Name),
					Message: fmt.Sprintf(
						"Field `%s` of type String in %s::%s looks like an address but is "+
							"never passed to addr_validate(). Unvalidated addresses can cause "+
							"funds to be sent to invalid or unreachable addresses.",
						field.Name, msgEnum.Name, variant.Name),
					Severity:   finding.SeverityMedium,
					Confidence: finding.ConfidenceMedium,
					Span:       msgEnum.Span,
					Suggestion: fmt.Sprintf("Validate the address with `deps.api.addr_validate(&%s)?;`", field.Name),
				})
			}
		}
	}
	return out
}

func (MissingAddrValidate) isFieldValidated(ctx *detect.AnalysisContext, fieldName string) bool {
	if ctx.Ir == nil {
		return false
	}
	for _, fn := range ctx.Ir.Functions {
		for _, inst := range allInstructions(fn) {
			if inst.Op != ir.OpAddrValidate {
				continue
			}
			if operandReferencesName(inst.Address, fieldName) {
				return true
			}
		}
	}
	return false
}
