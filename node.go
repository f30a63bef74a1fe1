// FILE: lixenwraith/nodeconf/node.go
package nodeconf

import (
	"fmt"
	"iter"
	"slices"
	"strconv"
	"time"
)

// Node is a constructed, validated configuration object. Each declared
// parameter holds either a cast leaf value, a *Node, a *NodeMap or a []*Node.
// Nodes are not modified after Construct returns and are safe for concurrent
// reads.
type Node struct {
	schema *Schema
	values map[string]any
	extra  *Map
}

// NodeMap is an ordered mapping of data-supplied keys to nodes of one schema.
type NodeMap struct {
	schema *Schema
	keys   []string
	nodes  map[string]*Node
}

// Schema returns the schema the node was built from.
func (n *Node) Schema() *Schema { return n.schema }

// Keys returns the declared parameter names followed by any undeclared keys
// kept by a flex schema.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.schema.params)+n.extra.Len())
	for _, p := range n.schema.params {
		keys = append(keys, p.Name)
	}
	return append(keys, n.extra.Keys()...)
}

// Get returns the value of a declared parameter or kept undeclared key.
// Lists and mappings are returned as copies.
func (n *Node) Get(name string) (any, bool) {
	v, ok := n.get(name)
	if !ok {
		return nil, false
	}
	return deepCopy(v), true
}

func (n *Node) get(name string) (any, bool) {
	if v, ok := n.values[name]; ok {
		return v, true
	}
	return n.extra.Get(name)
}

// Extra returns a copy of the undeclared keys kept by a flex schema.
func (n *Node) Extra() *Map { return n.extra.Clone() }

// Lookup returns the value at a dot-separated path. Segments descend into
// nodes, node maps, node lists and lists (by index) and raw mappings. Like
// Get, it returns copies of lists and mappings.
func (n *Node) Lookup(path string) (any, bool) {
	var current any = n
	for _, segment := range splitPath(path) {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return deepCopy(current), true
}

func child(container any, segment string) (any, bool) {
	switch c := container.(type) {
	case *Node:
		return c.get(segment)
	case *NodeMap:
		return c.Get(segment)
	case *Map:
		return c.Get(segment)
	case []*Node:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	case []any:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	default:
		return nil, false
	}
}

// String returns the string value at path.
func (n *Node) String(path string) (string, error) {
	return lookupAs[string](n, path)
}

// Int returns the integer value at path.
func (n *Node) Int(path string) (int64, error) {
	return lookupAs[int64](n, path)
}

// Float returns the float value at path.
func (n *Node) Float(path string) (float64, error) {
	return lookupAs[float64](n, path)
}

// Bool returns the boolean value at path.
func (n *Node) Bool(path string) (bool, error) {
	return lookupAs[bool](n, path)
}

// Duration returns the duration value at path.
func (n *Node) Duration(path string) (time.Duration, error) {
	return lookupAs[time.Duration](n, path)
}

// List returns the list value at path.
func (n *Node) List(path string) ([]any, error) {
	return lookupAs[[]any](n, path)
}

// Node returns the nested node at path.
func (n *Node) Node(path string) (*Node, error) {
	return lookupAs[*Node](n, path)
}

// NodeMap returns the node map at path.
func (n *Node) NodeMap(path string) (*NodeMap, error) {
	return lookupAs[*NodeMap](n, path)
}

// Nodes returns the node list at path.
func (n *Node) Nodes(path string) ([]*Node, error) {
	return lookupAs[[]*Node](n, path)
}

func lookupAs[T any](n *Node, path string) (T, error) {
	var zero T
	v, ok := n.Lookup(path)
	if !ok {
		return zero, fmt.Errorf("path %q not found", path)
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("path %q holds %T, not %T", path, v, zero)
	}
	return out, nil
}

// ToMap converts the node tree back into raw mappings, declared parameters
// first in declaration order.
func (n *Node) ToMap() *Map {
	m := NewMap()
	for _, p := range n.schema.params {
		m.Set(p.Name, rawValue(n.values[p.Name]))
	}
	for k, v := range n.extra.All() {
		m.Set(k, deepCopy(v))
	}
	return m
}

// Equal reports whether two nodes share a schema and hold equal values.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil || n.schema != other.schema {
		return false
	}
	a, errA := Marshal(n, FormatCBOR)
	b, errB := Marshal(other, FormatCBOR)
	return errA == nil && errB == nil && slices.Equal(a, b)
}

// Schema returns the schema shared by every node in the map.
func (m *NodeMap) Schema() *Schema { return m.schema }

// Len returns the number of entries.
func (m *NodeMap) Len() int { return len(m.keys) }

// Keys returns the keys in source order.
func (m *NodeMap) Keys() []string { return slices.Clone(m.keys) }

// Get returns the node stored under key.
func (m *NodeMap) Get(key string) (*Node, bool) {
	node, ok := m.nodes[key]
	return node, ok
}

// All iterates over entries in source order.
func (m *NodeMap) All() iter.Seq2[string, *Node] {
	return func(yield func(string, *Node) bool) {
		for _, k := range m.keys {
			if !yield(k, m.nodes[k]) {
				return
			}
		}
	}
}

// ToMap converts every entry back into a raw mapping.
func (m *NodeMap) ToMap() *Map {
	out := NewMap()
	for k, node := range m.All() {
		out.Set(k, node.ToMap())
	}
	return out
}

func (m *NodeMap) set(key string, node *Node) {
	if _, exists := m.nodes[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.nodes[key] = node
}

func newNodeMap(schema *Schema) *NodeMap {
	return &NodeMap{schema: schema, nodes: make(map[string]*Node)}
}

// rawValue converts constructed values back into raw data.
func rawValue(v any) any {
	switch t := v.(type) {
	case *Node:
		return t.ToMap()
	case *NodeMap:
		return t.ToMap()
	case []*Node:
		out := make([]any, len(t))
		for i, node := range t {
			out[i] = node.ToMap()
		}
		return out
	default:
		return deepCopy(v)
	}
}
