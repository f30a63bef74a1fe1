// FILE: lixenwraith/nodeconf/construct.go
package nodeconf

import (
	"fmt"
	"strconv"
)

// Option adjusts how Construct treats its input.
type Option func(*constructOptions)

type constructOptions struct {
	strict      bool
	interpolate bool
}

func defaultConstructOptions() constructOptions {
	return constructOptions{strict: true, interpolate: true}
}

// Strict rejects keys that the schema does not declare. This is the default.
func Strict() Option {
	return func(o *constructOptions) { o.strict = true }
}

// Lenient silently drops keys that the schema does not declare.
func Lenient() Option {
	return func(o *constructOptions) { o.strict = false }
}

// NoInterpolation treats "${path}" values as plain strings.
func NoInterpolation() Option {
	return func(o *constructOptions) { o.interpolate = false }
}

// Construct builds a validated node tree from raw data according to schema.
//
// Every declared parameter is taken from data, cast to its declared types, or
// filled from its default. Nested node parameters are built recursively from
// the corresponding sub-mapping. The first failure is returned as a
// *ValidationError carrying the dotted path of the offending parameter.
// data is never modified; a nil data is an empty mapping.
func Construct(schema *Schema, data *Map, opts ...Option) (*Node, error) {
	if schema == nil {
		return nil, &ConfigError{Reason: "nil schema"}
	}
	c := &constructor{opts: defaultConstructOptions()}
	for _, opt := range opts {
		opt(&c.opts)
	}

	root, err := c.node(schema, data, "")
	if err != nil {
		return nil, err
	}
	if err := c.resolveAll(root); err != nil {
		return nil, err
	}
	return root, nil
}

// Build constructs a node of this schema. See Construct.
func (s *Schema) Build(data *Map, opts ...Option) (*Node, error) {
	return Construct(s, data, opts...)
}

type constructor struct {
	opts constructOptions
	refs []*pendingRef
}

func (c *constructor) node(schema *Schema, data *Map, path string) (*Node, error) {
	n := &Node{
		schema: schema,
		values: make(map[string]any, len(schema.params)),
	}

	for _, p := range schema.params {
		paramPath := joinPath(path, p.Name)
		raw, present := data.Get(p.Name)
		if !present {
			if p.Required {
				return nil, validationErr(paramPath, "missing required parameter", nil)
			}
			v, err := c.defaultValue(n, p, paramPath)
			if err != nil {
				return nil, err
			}
			n.values[p.Name] = v
			continue
		}

		if ref := c.placeholder(n, p, raw, paramPath); ref != nil {
			n.values[p.Name] = ref
			continue
		}
		v, err := c.value(p, raw, paramPath)
		if err != nil {
			return nil, err
		}
		n.values[p.Name] = v
	}

	for key, raw := range data.All() {
		if _, declared := schema.index[key]; declared {
			continue
		}
		switch {
		case schema.flex:
			if n.extra == nil {
				n.extra = NewMap()
			}
			n.extra.Set(key, deepCopy(raw))
		case c.opts.strict:
			return nil, validationErr(joinPath(path, key), fmt.Sprintf("unknown parameter for %s", schema.name), nil)
		}
	}

	return n, nil
}

func (c *constructor) defaultValue(n *Node, p Param, path string) (any, error) {
	if p.IsNode() {
		t := p.Types[0]
		switch t.Kind() {
		case KindNode:
			return c.node(t.Schema(), nil, path)
		case KindNodeMap:
			return newNodeMap(t.Schema()), nil
		default:
			return []*Node{}, nil
		}
	}

	if ref := c.placeholder(n, p, p.Default, path); ref != nil {
		return ref, nil
	}
	if s, ok := p.Default.(string); ok && isPlaceholder(s) {
		// Interpolation is off, so the placeholder must pass as a plain value
		return c.value(p, s, path)
	}
	return deepCopy(p.Default), nil
}

// value casts a present raw value, recursing into nested node kinds.
func (c *constructor) value(p Param, raw any, path string) (any, error) {
	if !p.IsNode() {
		v, err := Cast(raw, p.Types...)
		if err != nil {
			return nil, validationErr(path, "invalid value", err)
		}
		// The node owns its lists and mappings; identity casts return the input's
		return deepCopy(v), nil
	}

	t := p.Types[0]
	switch t.Kind() {
	case KindNode:
		m, err := asMapping(raw, path, t)
		if err != nil {
			return nil, err
		}
		return c.node(t.Schema(), m, path)

	case KindNodeMap:
		m, err := asMapping(raw, path, t)
		if err != nil {
			return nil, err
		}
		return c.nodeMap(t.Schema(), m, path)

	default:
		var items []any
		switch r := raw.(type) {
		case nil:
		case []any:
			items = r
		default:
			return nil, validationErr(path, fmt.Sprintf("expected a list for %s, got %T", t, raw), nil)
		}
		return c.nodeList(t.Schema(), items, path)
	}
}

func (c *constructor) nodeMap(schema *Schema, m *Map, path string) (*NodeMap, error) {
	out := newNodeMap(schema)
	for key, item := range m.All() {
		itemPath := joinPath(path, key)
		child, err := asMapping(item, itemPath, NodeType(schema))
		if err != nil {
			return nil, err
		}
		node, err := c.node(schema, child, itemPath)
		if err != nil {
			return nil, err
		}
		out.set(key, node)
	}
	return out, nil
}

func (c *constructor) nodeList(schema *Schema, items []any, path string) ([]*Node, error) {
	out := make([]*Node, 0, len(items))
	for i, item := range items {
		itemPath := joinPath(path, strconv.Itoa(i))
		child, err := asMapping(item, itemPath, NodeType(schema))
		if err != nil {
			return nil, err
		}
		node, err := c.node(schema, child, itemPath)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

// asMapping accepts the raw data of a nested node. Null counts as empty.
func asMapping(raw any, path string, t Type) (*Map, error) {
	switch r := raw.(type) {
	case nil:
		return NewMap(), nil
	case *Map:
		return r, nil
	case map[string]any, map[any]any:
		return normalize(r).(*Map), nil
	default:
		return nil, validationErr(path, fmt.Sprintf("expected a mapping for %s, got %T", t, raw), nil)
	}
}
