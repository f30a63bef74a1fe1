// FILE: lixenwraith/nodeconf/interpolate.go
package nodeconf

import (
	"fmt"
	"regexp"
)

// A value that is exactly "${a.b.c}" refers to another value of the same
// tree, addressed from the root.
var placeholderPattern = regexp.MustCompile(`^\$\{\s*([A-Za-z_][\w-]*(?:\.[\w-]+)*)\s*\}$`)

func isPlaceholder(s string) bool {
	return placeholderPattern.MatchString(s)
}

type refState uint8

const (
	refPending refState = iota
	refResolving
	refDone
)

// pendingRef stands in for a parameter value until references are resolved.
type pendingRef struct {
	node   *Node
	param  Param
	path   string
	target string
	state  refState
}

// placeholder records a reference when raw is a placeholder and interpolation is on.
func (c *constructor) placeholder(n *Node, p Param, raw any, path string) *pendingRef {
	if !c.opts.interpolate {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		return nil
	}
	match := placeholderPattern.FindStringSubmatch(s)
	if match == nil {
		return nil
	}
	ref := &pendingRef{node: n, param: p, path: path, target: match[1]}
	c.refs = append(c.refs, ref)
	return ref
}

// resolveAll replaces every recorded reference by its target value. Binding a
// raw mapping to a node parameter may construct new nodes and record more
// references, so the list can grow while it is walked.
func (c *constructor) resolveAll(root *Node) error {
	for i := 0; i < len(c.refs); i++ {
		if err := c.resolve(root, c.refs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *constructor) resolve(root *Node, ref *pendingRef) error {
	switch ref.state {
	case refDone:
		return nil
	case refResolving:
		return validationErr(ref.path, fmt.Sprintf("cyclic reference ${%s}", ref.target), ErrInterpolation)
	}
	ref.state = refResolving

	target, err := c.lookup(root, ref.target)
	if err != nil {
		return validationErr(ref.path, fmt.Sprintf("cannot resolve ${%s}", ref.target), fmt.Errorf("%w: %w", ErrInterpolation, err))
	}
	v, err := c.bind(root, ref, target)
	if err != nil {
		return err
	}

	ref.node.values[ref.param.Name] = v
	ref.state = refDone
	return nil
}

// settle resolves v first if it is itself a pending reference.
func (c *constructor) settle(root *Node, v any) (any, error) {
	ref, ok := v.(*pendingRef)
	if !ok {
		return v, nil
	}
	if err := c.resolve(root, ref); err != nil {
		return nil, err
	}
	return ref.node.values[ref.param.Name], nil
}

func (c *constructor) lookup(root *Node, path string) (any, error) {
	var current any = root
	walked := ""
	for _, segment := range splitPath(path) {
		next, ok := child(current, segment)
		if !ok {
			if walked == "" {
				return nil, fmt.Errorf("no value at %q", segment)
			}
			return nil, fmt.Errorf("no value at %q under %q", segment, walked)
		}
		walked = joinPath(walked, segment)

		settled, err := c.settle(root, next)
		if err != nil {
			return nil, err
		}
		current = settled
	}
	return current, nil
}

// bind converts a resolved target into the referring parameter's value.
// Leaf parameters re-cast the target; node parameters share a target node of
// the same schema or build one from a raw mapping.
func (c *constructor) bind(root *Node, ref *pendingRef, target any) (any, error) {
	p := ref.param
	if !p.IsNode() {
		// Copying a subtree needs its own references settled first
		if err := c.settleTree(root, target); err != nil {
			return nil, err
		}
		return c.value(p, rawValue(target), ref.path)
	}

	t := p.Types[0]
	mismatch := func() error {
		return validationErr(ref.path, fmt.Sprintf("${%s} is %s, not %s", ref.target, describe(target), t), ErrInterpolation)
	}

	switch tv := target.(type) {
	case *Node:
		if t.Kind() != KindNode || tv.schema != t.Schema() {
			return nil, mismatch()
		}
		if reaches(tv, ref.node) {
			return nil, validationErr(ref.path, fmt.Sprintf("${%s} contains the referring node", ref.target), ErrInterpolation)
		}
		return tv, nil
	case *NodeMap:
		if t.Kind() != KindNodeMap || tv.schema != t.Schema() {
			return nil, mismatch()
		}
		for _, node := range tv.nodes {
			if reaches(node, ref.node) {
				return nil, validationErr(ref.path, fmt.Sprintf("${%s} contains the referring node", ref.target), ErrInterpolation)
			}
		}
		return tv, nil
	case []*Node:
		if t.Kind() != KindNodeList || (len(tv) > 0 && tv[0].schema != t.Schema()) {
			return nil, mismatch()
		}
		for _, node := range tv {
			if reaches(node, ref.node) {
				return nil, validationErr(ref.path, fmt.Sprintf("${%s} contains the referring node", ref.target), ErrInterpolation)
			}
		}
		return tv, nil
	case *Map, []any, nil:
		return c.value(p, deepCopy(tv), ref.path)
	default:
		return nil, mismatch()
	}
}

// settleTree resolves every pending reference inside a constructed subtree.
func (c *constructor) settleTree(root *Node, v any) error {
	switch t := v.(type) {
	case *Node:
		for _, p := range t.schema.params {
			settled, err := c.settle(root, t.values[p.Name])
			if err != nil {
				return err
			}
			if err := c.settleTree(root, settled); err != nil {
				return err
			}
		}
	case *NodeMap:
		for _, node := range t.All() {
			if err := c.settleTree(root, node); err != nil {
				return err
			}
		}
	case []*Node:
		for _, node := range t {
			if err := c.settleTree(root, node); err != nil {
				return err
			}
		}
	}
	return nil
}

// reaches reports whether needle is from or below from.
func reaches(from, needle *Node) bool {
	if from == needle {
		return true
	}
	for _, v := range from.values {
		switch t := v.(type) {
		case *Node:
			if reaches(t, needle) {
				return true
			}
		case *NodeMap:
			for _, node := range t.nodes {
				if reaches(node, needle) {
					return true
				}
			}
		case []*Node:
			for _, node := range t {
				if reaches(node, needle) {
					return true
				}
			}
		}
	}
	return false
}

func describe(v any) string {
	switch t := v.(type) {
	case *Node:
		return "node(" + t.schema.name + ")"
	case *NodeMap:
		return "map[string]node(" + t.schema.name + ")"
	case []*Node:
		return "a node list"
	default:
		return fmt.Sprintf("%T", v)
	}
}
