// Package discover finds the Rust source files that make up a CosmWasm
// contract crate.
package discover

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/guarderr"
)

// RustFiles returns every .rs file under root, preferring a src/ subdirectory
// when one exists (the conventional crate layout), skipping target/ build
// output and hidden directories. If root is itself a file, it is returned
// alone.
func RustFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, guarderr.Wrap(guarderr.Io, "cannot stat path", err).WithFile(root)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	searchDir := root
	if srcDir := filepath.Join(root, "src"); dirExists(srcDir) {
		searchDir = srcDir
	}

	var files []string
	err = filepath.WalkDir(searchDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if name == "target" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".rs") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, guarderr.Wrap(guarderr.Io, "failed walking crate directory", err).WithFile(root)
	}
	if len(files) == 0 {
		return nil, guarderr.New(guarderr.Io, "no .rs files found").WithFile(root)
	}
	return files, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
