// FILE: lixenwraith/nodeconf/traverse.go
package nodeconf

import (
	"iter"
	"strconv"
	"strings"
)

// Record is a read-only view of one position in a constructed tree.
type Record struct {
	// Path is the dot-joined chain of parameter names and keys from the root.
	Path string
	// Key is the parameter name or node-map key (string), or the node-list index (int).
	Key    any
	Value  any
	Type   Type
	IsNode bool
}

// Depth is the number of ancestors between the record and the root.
func (r Record) Depth() int {
	return strings.Count(r.Path, ".")
}

// Parent returns the path of the enclosing record, "" for top-level records.
func (r Record) Parent() string {
	i := strings.LastIndexByte(r.Path, '.')
	if i < 0 {
		return ""
	}
	return r.Path[:i]
}

// Traverse walks root depth-first, emitting a node before its children.
// Children follow declaration order, node-map entries follow source order and
// undeclared keys kept by a flex schema come last as leaves. The root itself
// is not emitted and a nil root yields nothing. Each call yields a fresh
// sequence; record values are copies of the tree's lists and mappings.
func Traverse(root *Node, includeNodes, includeLeaves bool) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		w := walker{nodes: includeNodes, leaves: includeLeaves, yield: yield}
		w.node(root, "")
	}
}

// Walk is shorthand for Traverse(n, includeNodes, includeLeaves).
func (n *Node) Walk(includeNodes, includeLeaves bool) iter.Seq[Record] {
	return Traverse(n, includeNodes, includeLeaves)
}

type walker struct {
	nodes  bool
	leaves bool
	yield  func(Record) bool
}

func (w *walker) emit(r Record) bool {
	if r.IsNode && !w.nodes || !r.IsNode && !w.leaves {
		return true
	}
	return w.yield(r)
}

// node emits the children of n under prefix and reports whether to continue.
// A nil node has no children.
func (w *walker) node(n *Node, prefix string) bool {
	if n == nil {
		return true
	}
	for _, p := range n.schema.params {
		path := joinPath(prefix, p.Name)
		value := deepCopy(n.values[p.Name])
		t := p.Type()

		if !p.IsNode() {
			if !w.emit(Record{Path: path, Key: p.Name, Value: value, Type: t}) {
				return false
			}
			continue
		}

		if !w.emit(Record{Path: path, Key: p.Name, Value: value, Type: t, IsNode: true}) {
			return false
		}
		childType := NodeType(t.Schema())
		switch v := value.(type) {
		case *Node:
			if !w.node(v, path) {
				return false
			}
		case *NodeMap:
			for key, child := range v.All() {
				childPath := joinPath(path, key)
				if !w.emit(Record{Path: childPath, Key: key, Value: child, Type: childType, IsNode: true}) {
					return false
				}
				if !w.node(child, childPath) {
					return false
				}
			}
		case []*Node:
			for i, child := range v {
				childPath := joinPath(path, strconv.Itoa(i))
				if !w.emit(Record{Path: childPath, Key: i, Value: child, Type: childType, IsNode: true}) {
					return false
				}
				if !w.node(child, childPath) {
					return false
				}
			}
		}
	}

	for key, value := range n.extra.All() {
		if !w.emit(Record{Path: joinPath(prefix, key), Key: key, Value: deepCopy(value), Type: Any}) {
			return false
		}
	}
	return true
}
