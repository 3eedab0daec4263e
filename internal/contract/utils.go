package contract

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/lucasamorimca/cosmwasm-guard/internal/rustast"
)

// AddressFieldPatterns are lowercase substrings whose presence in a field
// name suggests the field holds a chain address that needs addr_validate.
var AddressFieldPatterns = []string{
	"addr", "address", "owner", "recipient", "admin", "sender",
	"receiver", "to", "from", "beneficiary", "operator",
}

// addressFieldExclusions are name substrings/suffixes that override a match
// against AddressFieldPatterns (e.g. "block_hash" contains no pattern, but a
// field named "sender_id" or "block_timestamp" would otherwise false-positive).
var addressFieldExclusions = []string{"timestamp", "block_hash"}

// IsAddressFieldName reports whether name looks like it holds an address.
func IsAddressFieldName(name string) bool {
	lower := strings.ToLower(name)
	for _, e := range addressFieldExclusions {
		if strings.Contains(lower, e) {
			return false
		}
	}
	if strings.HasSuffix(lower, "_id") {
		return false
	}
	for _, p := range AddressFieldPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// stringTypeNames are the bare type names the address-field string-type
// heuristic accepts, before stripping generic-sugar wrappers like Option<..>.
var stringTypeNames = []string{"String", "&str", "str", "Into<String>"}

// IsAddressLikeStringType reports whether typeName is a free-form string
// type (String, &str, Into<String>) or generic-sugar over one of those
// (Option<String>, Vec<&str>, ...).
func IsAddressLikeStringType(typeName string) bool {
	t := strings.TrimSpace(typeName)
	t = strings.TrimPrefix(t, "&")
	for _, wrapper := range []string{"Option<", "Vec<", "Box<"} {
		if strings.HasPrefix(t, wrapper) && strings.HasSuffix(t, ">") {
			t = strings.TrimSuffix(strings.TrimPrefix(t, wrapper), ">")
			t = strings.TrimSpace(t)
			t = strings.TrimPrefix(t, "&")
			break
		}
	}
	for _, name := range stringTypeNames {
		if t == name {
			return true
		}
	}
	return false
}

// isEntryPointAttr reports whether an attribute_item node is `#[entry_point]`.
func isEntryPointAttr(n rustast.Node, tree *rustast.Tree) bool {
	return strings.Contains(rustast.Text(tree, n), "entry_point")
}

// inferEntryPointKind guesses the entry point kind from the function name.
func inferEntryPointKind(name string) EntryPointKind {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "instantiate"):
		return EntryPointInstantiate
	case strings.Contains(lower, "execute"):
		return EntryPointExecute
	case strings.Contains(lower, "query"):
		return EntryPointQuery
	case strings.Contains(lower, "migrate"):
		return EntryPointMigrate
	case strings.Contains(lower, "sudo"):
		return EntryPointSudo
	case strings.Contains(lower, "reply"):
		return EntryPointReply
	default:
		return EntryPointUnknown
	}
}

// inferEntryPointKindFromParams falls back to the message parameter's type
// name when the function itself was renamed away from a recognizable name
// (`handle_exec(deps, env, info, msg: ExecuteMsg)`).
func inferEntryPointKindFromParams(params []ParamInfo) EntryPointKind {
	for _, p := range params {
		t := p.TypeName
		switch {
		case strings.Contains(t, "InstantiateMsg"):
			return EntryPointInstantiate
		case strings.Contains(t, "ExecuteMsg"):
			return EntryPointExecute
		case strings.Contains(t, "QueryMsg"):
			return EntryPointQuery
		case strings.Contains(t, "MigrateMsg"):
			return EntryPointMigrate
		case strings.Contains(t, "Reply"):
			return EntryPointReply
		}
	}
	return EntryPointUnknown
}

// inferMessageKind guesses a message enum's kind from its name.
func inferMessageKind(name string) MessageKind {
	switch {
	case strings.HasPrefix(name, "Instantiate"):
		return MessageInstantiate
	case strings.HasPrefix(name, "Execute"):
		return MessageExecute
	case strings.HasPrefix(name, "Query"):
		return MessageQuery
	case strings.HasPrefix(name, "Migrate"):
		return MessageMigrate
	default:
		return MessageUnknown
	}
}

// detectStorageType maps a cw-storage-plus container name to a StorageType.
func detectStorageType(baseTypeName string) StorageType {
	switch baseTypeName {
	case "Item":
		return StorageItem
	case "Map":
		return StorageMap
	case "IndexedMap":
		return StorageIndexedMap
	case "SnapshotMap":
		return StorageSnapshotMap
	default:
		return StorageUnknown
	}
}

// unquote strips the surrounding double quotes from a Rust string literal's
// raw text, if present.
func unquote(raw string) (string, bool) {
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return raw[1 : len(raw)-1], true
		}
		return s, true
	}
	return "", false
}

// isPunct reports whether a tree-sitter node type is a bare token (operator,
// bracket, keyword literal) rather than a named syntactic construct. Used to
// filter parameters/argument lists down to the nodes that carry content.
func isPunct(nodeType string) bool {
	for _, r := range nodeType {
		if unicode.IsLetter(r) || r == '_' {
			return false
		}
	}
	return true
}

// namedChildren returns n's children excluding bare-token nodes.
func namedChildren(n rustast.Node) []rustast.Node {
	var out []rustast.Node
	for i := 0; i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c == nil || isPunct(c.Type()) {
			continue
		}
		out = append(out, c)
	}
	return out
}
