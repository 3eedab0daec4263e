// Package suppress implements inline `// cosmwasm-guard-ignore` comments and
// config-driven file/detector exclusion, applied to detector output before
// the severity threshold filter.
package suppress

import (
	"path/filepath"
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/config"
	"github.com/lucasamorimca/cosmwasm-guard/internal/contract"
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
)

// wildcard marks an inline suppression with no explicit detector list —
// every detector is suppressed on that line.
const wildcard = "*"

// key identifies a suppressed source line.
type key struct {
	file string
	line int
}

// Table maps a suppressed (file, line) to the detector names it silences.
type Table map[key][]string

// ParseInline scans every file in sources for `// cosmwasm-guard-ignore`
// comments and returns the lines they suppress. A bare
// `// cosmwasm-guard-ignore` suppresses every detector; `//
// cosmwasm-guard-ignore: det1, det2` suppresses only those. The suppression
// applies both to the comment's own line (a trailing comment on the flagged
// line itself) and to the line immediately following (a standalone comment
// on the line before the finding).
func ParseInline(sources contract.SourceMap) Table {
	table := make(Table)
	for path, source := range sources {
		lines := strings.Split(source, "\n")
		for idx, line := range lines {
			rest, ok := extractComment(line)
			if !ok {
				continue
			}
			var detectors []string
			if rest == "" {
				detectors = []string{wildcard}
			} else {
				for _, d := range strings.Split(rest, ",") {
					detectors = append(detectors, strings.TrimSpace(d))
				}
			}
			ownLine := idx + 1     // idx is 0-based; the comment's own 1-based line
			nextLine := ownLine + 1 // the line immediately following
			table[key{file: path, line: ownLine}] = detectors
			table[key{file: path, line: nextLine}] = detectors
		}
	}
	return table
}

// extractComment reports the detector list text following
// "cosmwasm-guard-ignore" anywhere on line — either a standalone comment
// line or a trailing comment appended after code — and whether the line
// carried a suppression comment at all.
func extractComment(line string) (string, bool) {
	idx := strings.Index(line, "//")
	if idx < 0 {
		return "", false
	}
	comment := strings.TrimSpace(line[idx+2:])
	rest, ok := strings.CutPrefix(comment, "cosmwasm-guard-ignore")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", true
	}
	rest, ok = strings.CutPrefix(rest, ":")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// Apply filters findings by config-level detector toggles, config-level file
// exclusion globs, and the inline suppression table, in that order.
func Apply(findings []finding.Finding, cfg *config.Config, inline Table) []finding.Finding {
	out := findings[:0:0]
	for _, f := range findings {
		if cfg != nil && !cfg.IsDetectorEnabled(f.Detector) {
			continue
		}
		if cfg != nil && fileExcluded(cfg, f.Span.File) {
			continue
		}
		if inlineSuppressed(inline, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func fileExcluded(cfg *config.Config, file string) bool {
	for _, pattern := range cfg.Suppressions.Files {
		if matchGlob(pattern, file) {
			return true
		}
	}
	return false
}

// matchGlob supports the trailing "/**" convention used in
// .cosmwasm-guard.toml (e.g. "tests/**") on top of filepath.Match, which has
// no native double-star support. A leading "**/" is not special-cased.
func matchGlob(pattern, path string) bool {
	path = filepath.ToSlash(path)
	pattern = filepath.ToSlash(pattern)
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	ok, err := filepath.Match(pattern, path)
	return err == nil && ok
}

func inlineSuppressed(table Table, f finding.Finding) bool {
	names, ok := table[key{file: f.Span.File, line: f.Span.Start.Line}]
	if !ok {
		return false
	}
	for _, n := range names {
		if n == wildcard || n == f.Detector {
			return true
		}
	}
	return false
}
