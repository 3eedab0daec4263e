package contract

import (
	"context"
	"os"

	"github.com/lucasamorimca/cosmwasm-guard/internal/guarderr"
	"github.com/lucasamorimca/cosmwasm-guard/internal/rustast"
)

// SourceMap maps a file path to its raw source text, used by detectors and
// renderers that need to quote a snippet without re-reading disk.
type SourceMap map[string]string

// AnalyzeCrate parses every file in paths and merges their extraction
// results into a single ContractInfo. A parse failure on any file aborts
// the whole crate analysis — a partially-parsed contract produces
// unreliable findings, so there is no partial-success mode here.
func AnalyzeCrate(ctx context.Context, cratePath string, paths []string, parser rustast.Parser) (*ContractInfo, SourceMap, error) {
	info := NewContractInfo(cratePath)
	sources := make(SourceMap, len(paths))

	for _, path := range paths {
		source, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, guarderr.Wrap(guarderr.Io, "failed to read source file", err).WithFile(path)
		}
		tree, err := parser.Parse(ctx, path, source)
		if err != nil {
			return nil, nil, err
		}
		fileInfo := ExtractFile(tree)
		info.Merge(path, fileInfo)
		sources[path] = string(source)
	}

	return info, sources, nil
}
