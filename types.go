// FILE: lixenwraith/nodeconf/types.go
package nodeconf

import (
	"fmt"
	"reflect"
	"strings"
)

// Kind tags the variant held by a Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindAny
	KindNull
	KindString
	KindInt
	KindFloat
	KindBool
	KindDuration
	KindList
	KindMap
	KindListOf
	KindGo
	KindUnion
	KindLiteral
	KindNode
	KindNodeMap
	KindNodeList
)

// Type describes what a parameter accepts. It is a tagged union: a primitive,
// an element-typed list, an arbitrary Go type, an ordered union, a
// literal-restricted union, or one of the three nested-node kinds.
//
// Types are values and immutable. Constructors never fail directly; a misuse
// (for example an empty union) is recorded and reported by Err, by Cast, and
// by SchemaBuilder.Build as a *ConfigError.
type Type struct {
	kind     Kind
	goType   reflect.Type
	members  []Type
	literals []any
	schema   *Schema
	err      error
}

// Primitive types. Int values are int64, Float values float64, List values
// []any and Mapping values *Map.
var (
	Any      = Type{kind: KindAny}
	Null     = Type{kind: KindNull}
	String   = Type{kind: KindString}
	Int      = Type{kind: KindInt}
	Float    = Type{kind: KindFloat}
	Bool     = Type{kind: KindBool}
	Duration = Type{kind: KindDuration}
	List     = Type{kind: KindList}
	Mapping  = Type{kind: KindMap}
)

// ListOf returns a sequence type whose elements are cast to elem.
func ListOf(elem Type) Type {
	t := Type{kind: KindListOf, members: []Type{elem}}
	if err := elem.checkValue("list element"); err != nil {
		t.err = err
	}
	return t
}

// TypeOf returns a type converting values into T through mapstructure, with
// hooks for durations, timestamps, IPs, CIDRs and URLs.
func TypeOf[T any]() Type {
	return Type{kind: KindGo, goType: reflect.TypeFor[T]()}
}

// Union returns a type accepting any of types. Casting tries them in order.
func Union(types ...Type) Type {
	t := Type{kind: KindUnion, members: append([]Type(nil), types...)}
	if len(types) == 0 {
		t.err = &ConfigError{Reason: "union requires at least one type"}
		return t
	}
	for _, member := range types {
		if err := member.checkValue("union member"); err != nil {
			t.err = err
			return t
		}
	}
	return t
}

// Literal restricts of to a fixed set of allowed values. The values are cast
// with of when the type is declared, so Literal(Int, 1, 2) accepts int64(1).
func Literal(of Type, values ...any) Type {
	t := Type{kind: KindLiteral, members: []Type{of}}
	if len(values) == 0 {
		t.err = &ConfigError{Reason: "at least one literal must be provided"}
		return t
	}
	if err := of.checkValue("literal type"); err != nil {
		t.err = err
		return t
	}
	for _, v := range values {
		cast, err := Cast(v, of)
		if err != nil {
			t.err = &ConfigError{Reason: fmt.Sprintf("literal %v is not a valid %s: %v", v, of, err)}
			return t
		}
		t.literals = append(t.literals, cast)
	}
	return t
}

// NodeType declares a nested node built from schema.
func NodeType(schema *Schema) Type {
	return nodeKind(KindNode, schema)
}

// NodeMapType declares a mapping from data-supplied keys to nodes built from schema.
func NodeMapType(schema *Schema) Type {
	return nodeKind(KindNodeMap, schema)
}

// NodeListType declares a sequence of nodes built from schema.
func NodeListType(schema *Schema) Type {
	return nodeKind(KindNodeList, schema)
}

func nodeKind(kind Kind, schema *Schema) Type {
	t := Type{kind: kind, schema: schema}
	if schema == nil {
		t.err = &ConfigError{Reason: "nested node declaration requires a non-nil schema"}
	}
	return t
}

// Kind returns the variant tag.
func (t Type) Kind() Kind { return t.kind }

// Err returns the declaration error recorded by the constructor, if any.
func (t Type) Err() error {
	if t.kind == KindInvalid {
		return &ConfigError{Reason: "invalid (zero) type"}
	}
	return t.err
}

// IsNode reports whether t is one of the nested-node kinds.
func (t Type) IsNode() bool {
	return t.kind == KindNode || t.kind == KindNodeMap || t.kind == KindNodeList
}

// Schema returns the child schema of a node kind, nil otherwise.
func (t Type) Schema() *Schema { return t.schema }

// Literals returns the allowed values of a literal type.
func (t Type) Literals() []any { return append([]any(nil), t.literals...) }

// Members returns the member types of a union, literal or list type.
func (t Type) Members() []Type { return append([]Type(nil), t.members...) }

// String returns a readable name such as "int", "int|string" or "literal(string: a, b)".
func (t Type) String() string {
	switch t.kind {
	case KindAny:
		return "any"
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDuration:
		return "duration"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindListOf:
		return "list[" + t.members[0].String() + "]"
	case KindGo:
		return t.goType.String()
	case KindUnion:
		return typeNames(t.members, "|")
	case KindLiteral:
		vals := make([]string, len(t.literals))
		for i, v := range t.literals {
			vals[i] = fmt.Sprintf("%v", v)
		}
		return fmt.Sprintf("literal(%s: %s)", t.members[0], strings.Join(vals, ", "))
	case KindNode:
		return "node(" + t.schemaName() + ")"
	case KindNodeMap:
		return "map[string]node(" + t.schemaName() + ")"
	case KindNodeList:
		return "list[node(" + t.schemaName() + ")]"
	default:
		return "invalid"
	}
}

func (t Type) schemaName() string {
	if t.schema == nil {
		return "?"
	}
	return t.schema.Name()
}

// checkValue validates t for use inside a value type (union member, list element, literal).
func (t Type) checkValue(role string) error {
	if err := t.Err(); err != nil {
		return err
	}
	if t.IsNode() {
		return &ConfigError{Reason: fmt.Sprintf("%s cannot be a node type (%s)", role, t)}
	}
	return nil
}

func typeNames(types []Type, sep string) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, sep)
}
