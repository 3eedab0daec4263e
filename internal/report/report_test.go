package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

func sampleFinding() finding.Finding {
	return finding.Finding{
		Detector:   "missing-addr-validate",
		Title:      "unvalidated address field",
		Message:    "field recipient is never passed through addr_validate",
		Severity:   finding.SeverityMedium,
		Confidence: finding.ConfidenceMedium,
		Span: finding.Span{
			File:  "src/contract.rs",
			Start: finding.Position{Line: 3, Column: 5},
			End:   finding.Position{Line: 3, Column: 14},
		},
		Suggestion: "let recipient = deps.api.addr_validate(&recipient)?;",
	}
}

func sampleContext() *detect.AnalysisContext {
	sources := contract.SourceMap{
		"src/contract.rs": "fn execute() {\n    // ...\n    STATE.save(deps.storage, &recipient)?;\n}\n",
	}
	return detect.NewAnalysisContext(contract.NewContractInfo("crate"), &ir.ContractIr{}, sources)
}

func TestTextRendersEmptyFindings(t *testing.T) {
	got := Text(nil, sampleContext(), true)
	if got != "No findings.\n" {
		t.Errorf("Text(nil) = %q", got)
	}
}

func TestTextRendersSeverityTagAndLocation(t *testing.T) {
	got := Text([]finding.Finding{sampleFinding()}, sampleContext(), true)
	if !strings.Contains(got, "[MEDIUM]") {
		t.Errorf("expected [MEDIUM] tag, got %q", got)
	}
	if !strings.Contains(got, "src/contract.rs:3:5") {
		t.Errorf("expected location, got %q", got)
	}
	if !strings.Contains(got, "STATE.save") {
		t.Errorf("expected source snippet, got %q", got)
	}
	if !strings.Contains(got, "suggestion:") {
		t.Errorf("expected suggestion line, got %q", got)
	}
}

func TestTextColorsWhenNotDisabled(t *testing.T) {
	got := Text([]finding.Finding{sampleFinding()}, sampleContext(), false)
	if !strings.Contains(got, colorYellow) {
		t.Errorf("expected ansi color code for medium severity, got %q", got)
	}
}

func TestJSONRoundTripsSchema(t *testing.T) {
	out, err := JSON([]finding.Finding{sampleFinding()}, sampleContext())
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}

	var record jsonRecord
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if record.SchemaVersion != schemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", record.SchemaVersion, schemaVersion)
	}
	if len(record.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(record.Findings))
	}
	f := record.Findings[0]
	if f.DetectorName != "missing-addr-validate" || f.Severity != "medium" || f.Confidence != "medium" {
		t.Errorf("finding fields mismatch: %+v", f)
	}
	if f.Location.File != "src/contract.rs" || f.Location.StartLine != 3 {
		t.Errorf("location mismatch: %+v", f.Location)
	}
	if f.FixSuggest == "" {
		t.Error("expected fix_suggestion to be populated")
	}
}

func TestSarifHasOneRunAndMapsLevels(t *testing.T) {
	high := sampleFinding()
	high.Detector = "unsafe-unwrap"
	high.Severity = finding.SeverityHigh

	out, err := Sarif([]finding.Finding{sampleFinding(), high}, sampleContext(), "0.1.0")
	if err != nil {
		t.Fatalf("Sarif: %v", err)
	}

	var doc sarifReport
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(doc.Runs) != 1 {
		t.Fatalf("expected exactly one run, got %d", len(doc.Runs))
	}
	run := doc.Runs[0]
	if run.Tool.Driver.Name != "cosmwasm-guard" {
		t.Errorf("driver name = %q", run.Tool.Driver.Name)
	}
	if len(run.Tool.Driver.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(run.Tool.Driver.Rules))
	}
	if len(run.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(run.Results))
	}

	var mediumLevel, highLevel string
	for _, r := range run.Results {
		if r.RuleID == "missing-addr-validate" {
			mediumLevel = r.Level
		}
		if r.RuleID == "unsafe-unwrap" {
			highLevel = r.Level
		}
	}
	if mediumLevel != "warning" {
		t.Errorf("medium severity level = %q, want warning", mediumLevel)
	}
	if highLevel != "error" {
		t.Errorf("high severity level = %q, want error", highLevel)
	}
}

func TestSarifResultCarriesFixWhenSuggestionPresent(t *testing.T) {
	out, err := Sarif([]finding.Finding{sampleFinding()}, sampleContext(), "0.1.0")
	if err != nil {
		t.Fatalf("Sarif: %v", err)
	}
	var doc sarifReport
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	result := doc.Runs[0].Results[0]
	if len(result.Fixes) != 1 {
		t.Fatalf("expected 1 fix, got %d", len(result.Fixes))
	}
	insert := result.Fixes[0].ArtifactChanges[0].Replacements[0].InsertedContent.Text
	if insert != sampleFinding().Suggestion {
		t.Errorf("inserted text = %q", insert)
	}
}

func TestRenderDispatchesByFormat(t *testing.T) {
	ctx := sampleContext()
	findings := []finding.Finding{sampleFinding()}

	if _, err := Render(FormatText, findings, ctx, true); err != nil {
		t.Errorf("text: %v", err)
	}
	if _, err := Render(FormatJSON, findings, ctx, true); err != nil {
		t.Errorf("json: %v", err)
	}
	if _, err := Render(FormatSarif, findings, ctx, true); err != nil {
		t.Errorf("sarif: %v", err)
	}
	if _, err := Render("bogus", findings, ctx, true); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
