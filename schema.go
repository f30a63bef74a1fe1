// FILE: lixenwraith/nodeconf/schema.go
package nodeconf

import (
	"fmt"
	"slices"
)

// Param declares one named, typed field of a schema.
type Param struct {
	Name     string
	Types    []Type
	Default  any
	Required bool
	Help     string
}

// Type returns the declared type, folding multiple declared types into a union.
func (p Param) Type() Type {
	if len(p.Types) == 1 {
		return p.Types[0]
	}
	return Union(p.Types...)
}

// IsNode reports whether the parameter holds a nested node, node map or node list.
func (p Param) IsNode() bool {
	return len(p.Types) == 1 && p.Types[0].IsNode()
}

// Schema is an immutable, ordered set of parameter declarations.
// Create one with NewSchema(...).Build().
type Schema struct {
	name   string
	params []Param
	index  map[string]int
	flex   bool
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Params returns the declared parameters in declaration order.
func (s *Schema) Params() []Param {
	out := slices.Clone(s.params)
	for i := range out {
		out[i].Types = slices.Clone(out[i].Types)
	}
	return out
}

// Param returns the declaration for name.
func (s *Schema) Param(name string) (Param, bool) {
	i, ok := s.index[name]
	if !ok {
		return Param{}, false
	}
	return s.params[i], true
}

// IsFlex reports whether nodes of this schema keep undeclared keys.
func (s *Schema) IsFlex() bool { return s.flex }

// ParamInfo is one row of a schema's flattened parameter listing.
type ParamInfo struct {
	Path     string
	Type     Type
	Default  any
	Required bool
	Help     string
}

// Parameters lists every leaf parameter reachable from the schema with its
// dotted path. Keys of node maps and indexes of node lists are shown as "*".
func (s *Schema) Parameters() []ParamInfo {
	var out []ParamInfo
	s.collectParams("", &out, map[*Schema]bool{})
	return out
}

func (s *Schema) collectParams(prefix string, out *[]ParamInfo, visiting map[*Schema]bool) {
	// Recursive schemas are listed once per branch
	if visiting[s] {
		return
	}
	visiting[s] = true
	defer delete(visiting, s)

	for _, p := range s.params {
		path := joinPath(prefix, p.Name)
		if !p.IsNode() {
			*out = append(*out, ParamInfo{
				Path:     path,
				Type:     p.Type(),
				Default:  p.Default,
				Required: p.Required,
				Help:     p.Help,
			})
			continue
		}

		t := p.Types[0]
		switch t.Kind() {
		case KindNode:
			t.Schema().collectParams(path, out, visiting)
		case KindNodeMap, KindNodeList:
			t.Schema().collectParams(path+".*", out, visiting)
		}
	}
}

// SchemaBuilder declares a schema parameter by parameter. The first
// declaration error is kept and returned by Build.
type SchemaBuilder struct {
	schema *Schema
	err    error
}

// NewSchema starts a schema declaration.
func NewSchema(name string) *SchemaBuilder {
	return &SchemaBuilder{
		schema: &Schema{
			name:  name,
			index: make(map[string]int),
		},
	}
}

// Required declares a parameter that must be present in the input data.
func (b *SchemaBuilder) Required(name string, types ...Type) *SchemaBuilder {
	b.add(Param{Name: name, Types: types, Required: true})
	return b
}

// Optional declares a parameter that falls back to def when absent.
// def is cast to the declared types when the schema is built.
func (b *SchemaBuilder) Optional(name string, def any, types ...Type) *SchemaBuilder {
	b.add(Param{Name: name, Types: types, Default: def})
	return b
}

// Node declares a nested node. When absent it is built from the child
// schema's defaults.
func (b *SchemaBuilder) Node(name string, child *Schema) *SchemaBuilder {
	b.add(Param{Name: name, Types: []Type{NodeType(child)}})
	return b
}

// NodeMap declares a mapping of arbitrary keys to nodes of one schema.
// When absent it is empty.
func (b *SchemaBuilder) NodeMap(name string, child *Schema) *SchemaBuilder {
	b.add(Param{Name: name, Types: []Type{NodeMapType(child)}})
	return b
}

// NodeList declares a sequence of nodes of one schema. When absent it is empty.
func (b *SchemaBuilder) NodeList(name string, child *Schema) *SchemaBuilder {
	b.add(Param{Name: name, Types: []Type{NodeListType(child)}})
	return b
}

// Help attaches a description to the most recently declared parameter.
func (b *SchemaBuilder) Help(text string) *SchemaBuilder {
	if n := len(b.schema.params); n > 0 {
		b.schema.params[n-1].Help = text
	}
	return b
}

// Flex makes nodes of this schema keep undeclared keys as raw values instead
// of applying the unknown-key policy.
func (b *SchemaBuilder) Flex() *SchemaBuilder {
	b.schema.flex = true
	return b
}

// Build returns the schema or the first declaration error as a *ConfigError.
func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	s := b.schema
	// Later builder calls must not leak into the returned schema
	b.schema = &Schema{
		name:   s.name,
		params: slices.Clone(s.params),
		index:  make(map[string]int, len(s.index)),
		flex:   s.flex,
	}
	for k, v := range s.index {
		b.schema.index[k] = v
	}
	return s, nil
}

// MustBuild is like Build but panics on error.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("schema build failed: %v", err))
	}
	return s
}

func (b *SchemaBuilder) add(p Param) {
	if b.err != nil {
		return
	}
	if err := b.check(&p); err != nil {
		b.err = err
		return
	}
	b.schema.index[p.Name] = len(b.schema.params)
	b.schema.params = append(b.schema.params, p)
}

func (b *SchemaBuilder) check(p *Param) error {
	fail := func(format string, args ...any) error {
		return &ConfigError{Schema: b.schema.name, Param: p.Name, Reason: fmt.Sprintf(format, args...)}
	}

	if !isValidKeySegment(p.Name) {
		return fail("invalid parameter name")
	}
	if _, exists := b.schema.index[p.Name]; exists {
		return fail("parameter declared twice")
	}
	if len(p.Types) == 0 {
		return fail("at least one type must be declared")
	}
	for _, t := range p.Types {
		if err := t.Err(); err != nil {
			return fail("%v", err)
		}
		if t.IsNode() && len(p.Types) > 1 {
			return fail("a node type cannot be combined with other types")
		}
	}

	if p.Required || p.IsNode() {
		if p.Default != nil {
			return fail("required and node parameters take no default")
		}
		return nil
	}

	// Placeholders are resolved against the built tree, not cast here
	if s, ok := p.Default.(string); ok && isPlaceholder(s) {
		return nil
	}
	def, err := Cast(p.Default, p.Types...)
	if err != nil {
		return fail("default %v: %v", p.Default, err)
	}
	p.Types = slices.Clone(p.Types)
	p.Default = def
	return nil
}
