// Package engine orchestrates a single analysis run: discover source
// files, extract and lower each (serving cached artifacts when a file's
// content hash is unchanged), run the detector registry, apply suppression
// and configuration policy, and hand the result to a renderer. Grounded in
// spec.md §4's pipeline description and the teacher's own top-level command
// handlers (cmd/ckb/root.go), which wire discovery, analysis, and rendering
// the same way behind a single entry point.
package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/lucasamorimca/cosmwasm-guard/internal/cache"
	"github.com/lucasamorimca/cosmwasm-guard/internal/config"
	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detect"
	"github.com/lucasamorimca/cosmwasm-guard/internal/detectors"
	"github.com/lucasamorimca/cosmwasm-guard/internal/discover"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/guarderr"
	"github.com/lucasamorimca/cosmwasm-guard/internal/ir"
	"github.com/lucasamorimca/cosmwasm-guard/internal/rustast"
	"github.com/lucasamorimca/cosmwasm-guard/internal/suppress"
)

// Options configures a single Run.
type Options struct {
	// Detectors, if non-empty, restricts the run to these detector names.
	Detectors []string
	// Exclude, if non-empty and Detectors is empty, runs every detector
	// except these.
	Exclude []string
	// NoCache disables both reading and writing the on-disk cache.
	NoCache bool
	// ConfigPath, if set, overrides the default crateRoot/.cosmwasm-guard.toml
	// lookup with an explicit file path (the CLI's --config flag).
	ConfigPath string
	// Severity, if a recognized value ("high"/"medium"/"low"/"informational"),
	// overrides the configured severity threshold (the CLI's --severity flag).
	Severity string
	// Audit forces the severity threshold to Informational, reporting every
	// finding regardless of config or CLI severity settings; wins over Severity.
	Audit bool
}

// Result is a completed analysis run's output: the findings surviving
// filtering and suppression, plus the context renderers need for snippets.
type Result struct {
	Findings []finding.Finding
	Context  *detect.AnalysisContext
	Config   *config.Config
}

// Run analyzes the crate rooted at crateRoot and returns its findings,
// already filtered by configuration, suppression, and the severity
// threshold, in canonical sort order.
func Run(ctx context.Context, crateRoot string, opts Options) (*Result, error) {
	var cfg *config.Config
	var err error
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load(crateRoot)
	}
	if err != nil {
		return nil, err
	}

	files, err := discover.RustFiles(crateRoot)
	if err != nil {
		return nil, err
	}

	var cacheMgr *cache.Manager
	if !opts.NoCache {
		cacheMgr, err = cache.Open(filepath.Join(crateRoot, cache.DirName))
		if err != nil {
			return nil, err
		}
	}

	parser := rustast.NewParser()
	info := contract.NewContractInfo(crateRoot)
	contractIr := ir.NewContractIr()
	sources := make(contract.SourceMap, len(files))

	for _, path := range files {
		source, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, guarderr.Wrap(guarderr.Io, "failed to read source file", readErr).WithFile(path)
		}
		sources[path] = string(source)
		hash := cache.HashContents(string(source))

		if cacheMgr != nil {
			if artifact, hit := cacheMgr.Lookup(path, hash); hit {
				cache.MergeInto(artifact, path, info, contractIr)
				continue
			}
		}

		fileInfo, irFns, buildErr := extractAndLower(ctx, parser, path, source)
		if buildErr != nil {
			return nil, buildErr
		}
		info.Merge(path, fileInfo)
		contractIr.Functions = append(contractIr.Functions, irFns...)

		if cacheMgr != nil {
			artifact := toArtifact(fileInfo, irFns)
			if storeErr := cacheMgr.Store(path, hash, artifact); storeErr != nil {
				return nil, storeErr
			}
		}
	}
	for _, ep := range info.EntryPoints {
		contractIr.EntryPoints = append(contractIr.EntryPoints, ep.Name)
	}

	if cacheMgr != nil {
		if err := cacheMgr.Flush(); err != nil {
			return nil, err
		}
	}

	analysisCtx := detect.NewAnalysisContext(info, contractIr, sources)
	registry := detectors.NewRegistry()

	var raw []finding.Finding
	switch {
	case len(opts.Detectors) > 0:
		raw = registry.RunSelected(opts.Detectors, analysisCtx)
	case len(opts.Exclude) > 0:
		raw = registry.RunExcluding(opts.Exclude, analysisCtx)
	default:
		raw = registry.RunAll(analysisCtx)
	}

	inline := suppress.ParseInline(sources)
	filtered := suppress.Apply(raw, cfg, inline)
	for i := range filtered {
		if sev, ok := finding.ParseSeverity(cfg.Detectors[filtered[i].Detector].Severity); ok {
			filtered[i].Severity = sev
		}
	}

	threshold := cfg.SeverityThreshold()
	if sev, ok := finding.ParseSeverity(opts.Severity); ok {
		threshold = sev
	}
	if opts.Audit {
		threshold = finding.SeverityInformational
	}
	filtered = finding.FilterBySeverity(filtered, threshold)
	finding.Sort(filtered)

	return &Result{Findings: filtered, Context: analysisCtx, Config: cfg}, nil
}

// extractAndLower parses a single file, extracts its contract model, and
// lowers every function it declares into IR.
func extractAndLower(ctx context.Context, parser rustast.Parser, path string, source []byte) (*contract.FileInfo, []*ir.FunctionIr, error) {
	tree, err := parser.Parse(ctx, path, source)
	if err != nil {
		return nil, nil, err
	}
	fileInfo := contract.ExtractFile(tree)

	entrySet := make(map[string]bool, len(fileInfo.EntryPoints))
	for _, ep := range fileInfo.EntryPoints {
		entrySet[ep.Name] = true
	}

	irFns := make([]*ir.FunctionIr, 0, len(fileInfo.Functions))
	for i := range fileInfo.Functions {
		fn := &fileInfo.Functions[i]
		if fn.Body == nil || fn.Tree == nil {
			continue
		}
		irFns = append(irFns, ir.BuildFunction(fn, entrySet[fn.Name]))
	}
	return fileInfo, irFns, nil
}

// toArtifact projects a freshly extracted file's model and IR into the
// cacheable, tree-sitter-handle-free shape cache.Artifact stores.
func toArtifact(fileInfo *contract.FileInfo, irFns []*ir.FunctionIr) *cache.Artifact {
	functions := make([]cache.FunctionModel, len(fileInfo.Functions))
	for i, fn := range fileInfo.Functions {
		functions[i] = cache.FunctionModel{
			Name:       fn.Name,
			Params:     fn.Params,
			ReturnType: fn.ReturnType,
			Span:       fn.Span,
			BodyText:   fn.BodyText,
		}
	}
	return &cache.Artifact{
		EntryPoints:  fileInfo.EntryPoints,
		MessageEnums: fileInfo.MessageEnums,
		StateItems:   fileInfo.StateItems,
		Functions:    functions,
		IrFunctions:  irFns,
	}
}
