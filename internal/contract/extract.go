package contract

import (
	"strings"

	"github.com/lucasamorimca/cosmwasm-guard/internal/rustast"
)

// ExtractFile walks a parsed source file's tree and returns the entry
// points, message enums, state items, and functions it declares. Nested
// modules are walked recursively; attributes are tracked against the item
// they immediately precede, matching Rust's own attribute-attachment rule.
func ExtractFile(tree *rustast.Tree) *FileInfo {
	info := &FileInfo{}
	walkItems(tree, tree.Root, info)
	return info
}

// walkItems visits the direct item children of a module-like node (a
// source file or a mod_item's declaration_list), tracking whether the item
// about to be visited was preceded by an #[entry_point] attribute.
func walkItems(tree *rustast.Tree, scope rustast.Node, info *FileInfo) {
	pendingEntryPoint := false
	for i := 0; i < scope.ChildCount(); i++ {
		n := scope.Child(i)
		if n == nil {
			continue
		}
		switch n.Type() {
		case "attribute_item":
			if isEntryPointAttr(n, tree) {
				pendingEntryPoint = true
			}
			continue
		case "line_comment", "block_comment":
			continue
		case "function_item":
			extractFunction(tree, n, pendingEntryPoint, info)
		case "enum_item":
			extractEnum(tree, n, info)
		case "const_item":
			extractConst(tree, n, info)
		case "impl_item":
			if body := n.ChildByFieldName("body"); body != nil {
				walkItems(tree, body, info)
			}
		case "mod_item":
			if body := n.ChildByFieldName("body"); body != nil {
				walkItems(tree, body, info)
			}
		}
		pendingEntryPoint = false
	}
}

func extractFunction(tree *rustast.Tree, n rustast.Node, isEntryPoint bool, info *FileInfo) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := rustast.Text(tree, nameNode)
	span := rustast.Span(tree.Path, nameNode)

	var params []ParamInfo
	if paramsNode := n.ChildByFieldName("parameters"); paramsNode != nil {
		params = extractParams(tree, paramsNode)
	}

	returnType := ""
	if rt := n.ChildByFieldName("return_type"); rt != nil {
		returnType = rustast.Text(tree, rt)
	}

	bodyText := ""
	var body rustast.Node
	if b := n.ChildByFieldName("body"); b != nil {
		body = b
		bodyText = rustast.Text(tree, b)
	}

	info.Functions = append(info.Functions, FunctionInfo{
		Name:       name,
		Params:     params,
		ReturnType: returnType,
		Span:       span,
		BodyText:   bodyText,
		Body:       body,
		Tree:       tree,
	})

	if isEntryPoint {
		kind := inferEntryPointKind(name)
		if kind == EntryPointUnknown {
			kind = inferEntryPointKindFromParams(params)
		}
		hasDepsMut := false
		for _, p := range params {
			if strings.Contains(p.TypeName, "DepsMut") {
				hasDepsMut = true
				break
			}
		}
		info.EntryPoints = append(info.EntryPoints, EntryPoint{
			Name:       name,
			Kind:       kind,
			Params:     params,
			Span:       span,
			HasDepsMut: hasDepsMut,
		})
	}
}

func extractParams(tree *rustast.Tree, paramsNode rustast.Node) []ParamInfo {
	var out []ParamInfo
	for _, p := range namedChildren(paramsNode) {
		if p.Type() != "parameter" && p.Type() != "self_parameter" {
			continue
		}
		patNode := p.ChildByFieldName("pattern")
		typeNode := p.ChildByFieldName("type")
		name := ""
		if patNode != nil {
			name = rustast.Text(tree, patNode)
		} else {
			name = rustast.Text(tree, p)
		}
		typeName := ""
		if typeNode != nil {
			typeName = rustast.Text(tree, typeNode)
		}
		out = append(out, ParamInfo{Name: strings.TrimPrefix(name, "_"), TypeName: typeName})
	}
	return out
}

func extractEnum(tree *rustast.Tree, n rustast.Node, info *FileInfo) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := rustast.Text(tree, nameNode)
	if !strings.HasSuffix(name, "Msg") && !strings.HasSuffix(name, "Message") {
		return
	}

	span := rustast.Span(tree.Path, nameNode)
	var variants []MessageVariant
	if body := n.ChildByFieldName("body"); body != nil {
		for _, v := range namedChildren(body) {
			if v.Type() != "enum_variant" {
				continue
			}
			variants = append(variants, extractVariant(tree, v))
		}
	}

	info.MessageEnums = append(info.MessageEnums, MessageEnum{
		Name:     name,
		Kind:     inferMessageKind(name),
		Variants: variants,
		Span:     span,
	})
}

func extractVariant(tree *rustast.Tree, v rustast.Node) MessageVariant {
	variant := MessageVariant{}
	if nameNode := v.ChildByFieldName("name"); nameNode != nil {
		variant.Name = rustast.Text(tree, nameNode)
	}
	body := v.ChildByFieldName("body")
	if body == nil {
		return variant
	}
	switch body.Type() {
	case "field_declaration_list":
		for _, f := range namedChildren(body) {
			if f.Type() != "field_declaration" {
				continue
			}
			field := FieldInfo{}
			if fn := f.ChildByFieldName("name"); fn != nil {
				field.Name = rustast.Text(tree, fn)
			}
			if ft := f.ChildByFieldName("type"); ft != nil {
				field.TypeName = rustast.Text(tree, ft)
			}
			variant.Fields = append(variant.Fields, field)
		}
	case "ordered_field_declaration_list":
		idx := 0
		for _, f := range namedChildren(body) {
			variant.Fields = append(variant.Fields, FieldInfo{
				Name:     "_" + itoa(idx),
				TypeName: rustast.Text(tree, f),
			})
			idx++
		}
	}
	return variant
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [12]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[pos:])
}

func extractConst(tree *rustast.Tree, n rustast.Node, info *FileInfo) {
	typeNode := n.ChildByFieldName("type")
	nameNode := n.ChildByFieldName("name")
	valueNode := n.ChildByFieldName("value")
	if typeNode == nil || nameNode == nil {
		return
	}
	if typeNode.Type() != "generic_type" {
		return
	}
	baseNode := typeNode.ChildByFieldName("type")
	if baseNode == nil {
		return
	}
	storageType := detectStorageType(rustast.Text(tree, baseNode))
	if storageType == StorageUnknown {
		return
	}

	var generics []string
	if argsNode := typeNode.ChildByFieldName("type_arguments"); argsNode != nil {
		for _, a := range namedChildren(argsNode) {
			generics = append(generics, rustast.Text(tree, a))
		}
	}

	keyType, valueType := "", ""
	switch storageType {
	case StorageItem:
		if len(generics) > 0 {
			valueType = generics[0]
		}
	default:
		if len(generics) > 0 {
			keyType = generics[0]
		}
		if len(generics) > 1 {
			valueType = generics[1]
		}
	}

	storageKey := ""
	if valueNode != nil {
		storageKey = extractStorageKey(tree, valueNode)
	}

	info.StateItems = append(info.StateItems, StateItem{
		Name:        rustast.Text(tree, nameNode),
		StorageType: storageType,
		KeyType:     keyType,
		ValueType:   valueType,
		StorageKey:  storageKey,
		Span:        rustast.Span(tree.Path, nameNode),
	})
}

// extractStorageKey looks for the first string literal argument to a
// constructor call expression, e.g. `Item::new("config")` -> "config".
func extractStorageKey(tree *rustast.Tree, value rustast.Node) string {
	if value.Type() != "call_expression" {
		return ""
	}
	argsNode := value.ChildByFieldName("arguments")
	if argsNode == nil {
		return ""
	}
	for _, a := range namedChildren(argsNode) {
		if a.Type() != "string_literal" {
			continue
		}
		if s, ok := unquote(rustast.Text(tree, a)); ok {
			return s
		}
	}
	return ""
}
