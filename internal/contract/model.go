// Package contract extracts a language-neutral model of a CosmWasm
// contract crate — its entry points, message enums, state items, and plain
// functions — from parsed Rust source, mirroring the shape a syn-based
// visitor would produce but walking a tree-sitter concrete syntax tree.
package contract

import (
	"github.com/lucasamorimca/cosmwasm-guard/internal/finding"
	"github.com/lucasamorimca/cosmwasm-guard/internal/rustast"
)

// ParamInfo describes one function or entry-point parameter.
type ParamInfo struct {
	Name     string
	TypeName string
}

// EntryPointKind classifies a #[entry_point] function by the message type
// it handles.
type EntryPointKind int

const (
	EntryPointUnknown EntryPointKind = iota
	EntryPointInstantiate
	EntryPointExecute
	EntryPointQuery
	EntryPointMigrate
	EntryPointSudo
	EntryPointReply
)

func (k EntryPointKind) String() string {
	switch k {
	case EntryPointInstantiate:
		return "instantiate"
	case EntryPointExecute:
		return "execute"
	case EntryPointQuery:
		return "query"
	case EntryPointMigrate:
		return "migrate"
	case EntryPointSudo:
		return "sudo"
	case EntryPointReply:
		return "reply"
	default:
		return "unknown"
	}
}

// EntryPoint is a function annotated #[entry_point].
type EntryPoint struct {
	Name       string
	Kind       EntryPointKind
	Params     []ParamInfo
	Span       finding.Span
	HasDepsMut bool
}

// MessageKind classifies a message enum by the entry point family it feeds.
type MessageKind int

const (
	MessageUnknown MessageKind = iota
	MessageInstantiate
	MessageExecute
	MessageQuery
	MessageMigrate
)

// FieldInfo is one field of a message variant.
type FieldInfo struct {
	Name     string
	TypeName string
}

// MessageVariant is one variant of a message enum.
type MessageVariant struct {
	Name   string
	Fields []FieldInfo
}

// MessageEnum is a top-level enum whose name ends in "Msg"/"Message"
// (ExecuteMsg, QueryMsg, ...).
type MessageEnum struct {
	Name     string
	Kind     MessageKind
	Variants []MessageVariant
	Span     finding.Span
}

// StorageType is a cw-storage-plus container kind.
type StorageType int

const (
	StorageUnknown StorageType = iota
	StorageItem
	StorageMap
	StorageIndexedMap
	StorageSnapshotMap
)

// StateItem is a top-level const declaring persistent contract state.
type StateItem struct {
	Name        string
	StorageType StorageType
	KeyType     string // empty for Item<T>
	ValueType   string
	StorageKey  string // literal key argument to ::new(...), empty if not a literal
	Span        finding.Span
}

// FunctionInfo is any function or method, entry point or not.
type FunctionInfo struct {
	Name       string
	Params     []ParamInfo
	ReturnType string
	Span       finding.Span
	BodyText   string // raw source text of the function body, for detectors that pattern-match text
	Body       rustast.Node
	Tree       *rustast.Tree // the file this function was extracted from, needed to resolve Body's text spans
}

// ContractInfo is the merged model for an entire crate, potentially spanning
// several source files.
type ContractInfo struct {
	CratePath    string
	SourceFiles  []string
	EntryPoints  []EntryPoint
	MessageEnums []MessageEnum
	StateItems   []StateItem
	Functions    []FunctionInfo
}

// NewContractInfo builds an empty ContractInfo rooted at cratePath.
func NewContractInfo(cratePath string) *ContractInfo {
	return &ContractInfo{CratePath: cratePath}
}

// Merge folds a single file's extraction results into c.
func (c *ContractInfo) Merge(path string, file *FileInfo) {
	c.SourceFiles = append(c.SourceFiles, path)
	c.EntryPoints = append(c.EntryPoints, file.EntryPoints...)
	c.MessageEnums = append(c.MessageEnums, file.MessageEnums...)
	c.StateItems = append(c.StateItems, file.StateItems...)
	c.Functions = append(c.Functions, file.Functions...)
}

// Function looks up a function or entry point by name.
func (c *ContractInfo) Function(name string) *FunctionInfo {
	for i := range c.Functions {
		if c.Functions[i].Name == name {
			return &c.Functions[i]
		}
	}
	return nil
}

// FileInfo is the single-file extraction result, merged into a
// ContractInfo by the caller once every file in a crate has been walked.
type FileInfo struct {
	EntryPoints  []EntryPoint
	MessageEnums []MessageEnum
	StateItems   []StateItem
	Functions    []FunctionInfo
}
