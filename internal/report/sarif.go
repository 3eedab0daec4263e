package report

import (
	"encoding/json"
	"fmt"

	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// SARIF 2.1.0 schema types.
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID                   string                 `json:"id"`
	ShortDescription     *sarifMessage          `json:"shortDescription,omitempty"`
	DefaultConfiguration sarifRuleConfiguration `json:"defaultConfiguration"`
}

type sarifRuleConfiguration struct {
	Level string `json:"level,omitempty"` // error, warning, note
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level,omitempty"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
	Fixes     []sarifFix      `json:"fixes,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation *sarifPhysicalLocation `json:"physicalLocation,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation *sarifArtifactLocation `json:"artifactLocation,omitempty"`
	Region           *sarifRegion           `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri,omitempty"`
}

type sarifRegion struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

type sarifFix struct {
	Description     sarifMessage           `json:"description,omitempty"`
	ArtifactChanges []sarifArtifactChange  `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion    sarifRegion         `json:"deletedRegion"`
	InsertedContent  sarifInsertedText   `json:"insertedContent"`
}

type sarifInsertedText struct {
	Text string `json:"text"`
}

// Sarif renders findings as a SARIF 2.1.0 document with exactly one run.
// rules enumerates every detector that produced at least one result;
// defaultConfiguration.level maps High->error, Medium->warning,
// Low|Informational->note, matching spec.md's §6 mapping.
func Sarif(findings []finding.Finding, ctx *detect.AnalysisContext, version string) (string, error) {
	ruleOrder := make([]string, 0)
	ruleSeen := make(map[string]bool)
	results := make([]sarifResult, 0, len(findings))

	for _, f := range findings {
		if !ruleSeen[f.Detector] {
			ruleSeen[f.Detector] = true
			ruleOrder = append(ruleOrder, f.Detector)
		}

		result := sarifResult{
			RuleID:  f.Detector,
			Level:   severityToSarifLevel(f.Severity),
			Message: sarifMessage{Text: f.Message},
			Locations: []sarifLocation{
				{
					PhysicalLocation: &sarifPhysicalLocation{
						ArtifactLocation: &sarifArtifactLocation{URI: f.Span.File},
						Region: &sarifRegion{
							StartLine:   f.Span.Start.Line,
							StartColumn: f.Span.Start.Column,
							EndLine:     f.Span.End.Line,
							EndColumn:   f.Span.End.Column,
						},
					},
				},
			},
		}

		if f.Suggestion != "" {
			result.Fixes = []sarifFix{
				{
					Description: sarifMessage{Text: f.Suggestion},
					ArtifactChanges: []sarifArtifactChange{
						{
							ArtifactLocation: sarifArtifactLocation{URI: f.Span.File},
							Replacements: []sarifReplacement{
								{
									DeletedRegion: sarifRegion{
										StartLine:   f.Span.Start.Line,
										StartColumn: f.Span.Start.Column,
										EndLine:     f.Span.End.Line,
										EndColumn:   f.Span.End.Column,
									},
									InsertedContent: sarifInsertedText{Text: f.Suggestion},
								},
							},
						},
					},
				},
			}
		}

		results = append(results, result)
	}

	rules := make([]sarifRule, len(ruleOrder))
	for i, name := range ruleOrder {
		rules[i] = sarifRule{
			ID:                   name,
			ShortDescription:     &sarifMessage{Text: name},
			DefaultConfiguration: sarifRuleConfiguration{Level: detectorLevel(findings, name)},
		}
	}

	report := sarifReport{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           "cosmwasm-guard",
						Version:        version,
						InformationURI: "https://github.com/lucasamorimca/cosmwasm-guard",
						Rules:          rules,
					},
				},
				Results: results,
			},
		},
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal SARIF: %w", err)
	}
	return string(data), nil
}

// detectorLevel returns the SARIF level of the first finding produced by
// name, used for the rule's defaultConfiguration.
func detectorLevel(findings []finding.Finding, name string) string {
	for _, f := range findings {
		if f.Detector == name {
			return severityToSarifLevel(f.Severity)
		}
	}
	return "warning"
}

func severityToSarifLevel(s finding.Severity) string {
	switch s {
	case finding.SeverityHigh:
		return "error"
	case finding.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
