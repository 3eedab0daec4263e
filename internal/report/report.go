// Package report renders a finalized set of findings as human terminal
// text, a machine-readable JSON record, or a SARIF 2.1.0 document. Grounded
// directly in the teacher's cmd/ckb/sarif.go, adapted from Go-lint findings
// to finding.Finding and generalized to also cover the text/JSON formats
// spec.md §6 requires alongside SARIF.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// Format names accepted by --format and .cosmwasm-guard.toml's
// global.output_format.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatSarif = "sarif"
)

// schemaVersion versions the JSON machine record's top-level shape.
const schemaVersion = 1

// ansi color codes used by the text renderer. Disabled by its noColor
// argument.
const (
	colorRed    = "\x1b[31m"
	colorYellow = "\x1b[33m"
	colorCyan   = "\x1b[36m"
	colorReset  = "\x1b[0m"
)

// Render dispatches to the renderer named by format.
func Render(format string, findings []finding.Finding, ctx *detect.AnalysisContext, noColor bool) (string, error) {
	switch format {
	case FormatText, "":
		return Text(findings, ctx, noColor), nil
	case FormatJSON:
		return JSON(findings, ctx)
	case FormatSarif:
		return Sarif(findings, ctx, "0.1.0")
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// Text renders findings as colored terminal output: one block per finding
// with a [SEVERITY] tag, detector name, title, path:line:col, source
// snippet, and description.
func Text(findings []finding.Finding, ctx *detect.AnalysisContext, noColor bool) string {
	if len(findings) == 0 {
		return "No findings.\n"
	}

	var b strings.Builder
	for i, f := range findings {
		if i > 0 {
			b.WriteString("\n")
		}
		tag := fmt.Sprintf("[%s]", strings.ToUpper(f.Severity.String()))
		if !noColor {
			tag = severityColor(f.Severity) + tag + colorReset
		}
		fmt.Fprintf(&b, "%s %s: %s\n", tag, f.Detector, f.Title)
		fmt.Fprintf(&b, "  %s:%d:%d\n", f.Span.File, f.Span.Start.Line, f.Span.Start.Column)

		if snippet := snippetFor(ctx, f); snippet != "" {
			for _, line := range strings.Split(snippet, "\n") {
				fmt.Fprintf(&b, "    | %s\n", line)
			}
		}
		fmt.Fprintf(&b, "  %s\n", f.Message)
		if f.Suggestion != "" {
			fmt.Fprintf(&b, "  suggestion: %s\n", f.Suggestion)
		}
	}
	return b.String()
}

func severityColor(s finding.Severity) string {
	switch s {
	case finding.SeverityHigh:
		return colorRed
	case finding.SeverityMedium:
		return colorYellow
	default:
		return colorCyan
	}
}

// jsonRecord is the top-level machine-readable record: { schema_version, findings }.
type jsonRecord struct {
	SchemaVersion int           `json:"schema_version"`
	Findings      []jsonFinding `json:"findings"`
}

type jsonFinding struct {
	DetectorName string       `json:"detector_name"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Severity     string       `json:"severity"`
	Confidence   string       `json:"confidence"`
	Location     jsonLocation `json:"location"`
	Snippet      string       `json:"snippet"`
	FixSuggest   string       `json:"fix_suggestion,omitempty"`
}

type jsonLocation struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
}

// JSON renders findings as the { schema_version, findings } machine record.
func JSON(findings []finding.Finding, ctx *detect.AnalysisContext) (string, error) {
	record := jsonRecord{SchemaVersion: schemaVersion, Findings: make([]jsonFinding, 0, len(findings))}
	for _, f := range findings {
		record.Findings = append(record.Findings, jsonFinding{
			DetectorName: f.Detector,
			Title:        f.Title,
			Description:  f.Message,
			Severity:     f.Severity.String(),
			Confidence:   f.Confidence.String(),
			Location: jsonLocation{
				File:      f.Span.File,
				StartLine: f.Span.Start.Line,
				StartCol:  f.Span.Start.Column,
				EndLine:   f.Span.End.Line,
				EndCol:    f.Span.End.Column,
			},
			Snippet:    snippetFor(ctx, f),
			FixSuggest: f.Suggestion,
		})
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal findings: %w", err)
	}
	return string(data), nil
}

func snippetFor(ctx *detect.AnalysisContext, f finding.Finding) string {
	if ctx == nil {
		return ""
	}
	end := f.Span.End.Line
	if end < f.Span.Start.Line {
		end = f.Span.Start.Line
	}
	return ctx.Snippet(f.Span.File, f.Span.Start.Line, end)
}
