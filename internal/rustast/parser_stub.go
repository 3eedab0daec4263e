//go:build !cgo

package rustast

import (
	"context"

	"github.com/lucasamorimca/cosmwasm-guard/internal/guarderr"
)

// ErrNoCGO is returned by every Parse call when this binary was built
// without cgo, since tree-sitter's grammars are cgo bindings.
var ErrNoCGO = guarderr.New(guarderr.Internal, "rustast: parsing requires a cgo-enabled build")

type stubParser struct{}

// NewParser returns a Parser that always fails. Present so callers don't
// need a build-tag-aware construction site; only Parse behaves differently.
func NewParser() Parser {
	return stubParser{}
}

func (stubParser) Parse(ctx context.Context, path string, source []byte) (*Tree, error) {
	return nil, ErrNoCGO.WithFile(path)
}

// IsAvailable reports whether tree-sitter parsing is compiled in.
func IsAvailable() bool { return false }
