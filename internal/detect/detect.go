// Package detect defines the Detector contract and the sequential registry
// that runs every registered detector against a single AnalysisContext.
package detect

import (
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
)

// AnalysisContext gives detectors read access to the extracted contract
// model, its SSA IR, and the raw source text each finding's snippet comes
// from.
type AnalysisContext struct {
	Contract *contract.ContractInfo
	Ir       *ir.ContractIr
	sources  contract.SourceMap
}

// NewAnalysisContext builds a context over an already-extracted contract
// and its lowered IR.
func NewAnalysisContext(c *contract.ContractInfo, contractIr *ir.ContractIr, sources contract.SourceMap) *AnalysisContext {
	return &AnalysisContext{Contract: c, Ir: contractIr, sources: sources}
}

// SourceCode returns the full text of file, or "" if unknown.
func (c *AnalysisContext) SourceCode(file string) string {
	return c.sources[file]
}

// Line returns a single 1-indexed line of file, or "" if out of range.
func (c *AnalysisContext) Line(file string, line int) string {
	src := c.SourceCode(file)
	if src == "" || line < 1 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// Snippet returns the inclusive 1-based line range [startLine, endLine] of
// file, joined with newlines.
func (c *AnalysisContext) Snippet(file string, startLine, endLine int) string {
	src := c.SourceCode(file)
	if src == "" {
		return ""
	}
	lines := strings.Split(src, "\n")
	start := startLine - 1
	if start < 0 {
		start = 0
	}
	end := endLine
	if end > len(lines) {
		end = len(lines)
	}
	if start >= len(lines) {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// Detector analyzes a contract and reports zero or more findings.
type Detector interface {
	Name() string
	Description() string
	Severity() finding.Severity
	Confidence() finding.Confidence
	Detect(ctx *AnalysisContext) []finding.Finding
}

// Registry holds every registered Detector and runs them sequentially.
// Detection never parallelizes across detectors: the AST provider's
// source-span bookkeeping is shared and not safe to drive from multiple
// goroutines at once (see internal/rustast's parser mutex), so a registry
// that fanned out detectors would just serialize on that lock anyway.
type Registry struct {
	detectors []Detector
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a detector.
func (r *Registry) Register(d Detector) {
	r.detectors = append(r.detectors, d)
}

// RegisterAll adds every detector in ds.
func (r *Registry) RegisterAll(ds []Detector) {
	r.detectors = append(r.detectors, ds...)
}

// ListDetectors returns every registered detector's name, in registration
// order.
func (r *Registry) ListDetectors() []string {
	names := make([]string, len(r.detectors))
	for i, d := range r.detectors {
		names[i] = d.Name()
	}
	return names
}

// RunAll runs every registered detector against ctx and returns the
// aggregated, deduplicated, canonically sorted findings.
func (r *Registry) RunAll(ctx *AnalysisContext) []finding.Finding {
	agg := finding.NewAggregator()
	for _, d := range r.detectors {
		agg.AddAll(d.Detect(ctx))
	}
	return agg.Findings()
}

// RunSelected runs only the detectors whose name appears in names.
func (r *Registry) RunSelected(names []string, ctx *AnalysisContext) []finding.Finding {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	agg := finding.NewAggregator()
	for _, d := range r.detectors {
		if want[d.Name()] {
			agg.AddAll(d.Detect(ctx))
		}
	}
	return agg.Findings()
}

// RunExcluding runs every registered detector except those named in names.
func (r *Registry) RunExcluding(names []string, ctx *AnalysisContext) []finding.Finding {
	exclude := make(map[string]bool, len(names))
	for _, n := range names {
		exclude[n] = true
	}
	agg := finding.NewAggregator()
	for _, d := range r.detectors {
		if !exclude[d.Name()] {
			agg.AddAll(d.Detect(ctx))
		}
	}
	return agg.Findings()
}
