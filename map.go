// FILE: lixenwraith/nodeconf/map.go
package nodeconf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"

	"gopkg.in/yaml.v3"
)

// Map is an insertion-ordered mapping from string keys to raw configuration
// values. Values are scalars, []any sequences, or nested *Map.
//
// Every parser in this package produces *Map so that the order in which keys
// appear in a source survives merging and construction. A nil *Map behaves as
// an empty, read-only mapping.
type Map struct {
	keys   []string
	values map[string]any
}

// NewMap returns an empty mapping.
func NewMap() *Map {
	return &Map{values: make(map[string]any)}
}

// MapOf builds a mapping from alternating keys and values.
// It panics if a key is not a string or the argument count is odd.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("nodeconf.MapOf: odd number of arguments")
	}
	m := NewMap()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("nodeconf.MapOf: key %v is %T, not string", kv[i], kv[i]))
		}
		m.Set(key, kv[i+1])
	}
	return m
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. A new key is appended to the key order; an
// existing key keeps its position. Plain Go maps inside value are converted
// to *Map.
func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = normalize(value)
}

// Delete removes key, if present.
func (m *Map) Delete(key string) {
	if m == nil {
		return
	}
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
}

// All iterates over key/value pairs in order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of the mapping.
func (m *Map) Clone() *Map {
	if m == nil {
		return NewMap()
	}
	out := &Map{
		keys:   slices.Clone(m.keys),
		values: make(map[string]any, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = deepCopy(v)
	}
	return out
}

// ToStd converts the mapping, recursively, to plain map[string]any values.
// Key order is lost.
func (m *Map) ToStd() map[string]any {
	out := make(map[string]any, m.Len())
	for k, v := range m.All() {
		out[k] = toStd(v)
	}
	return out
}

// Lookup returns the value at a dot-separated path.
func (m *Map) Lookup(path string) (any, bool) {
	var current any = m
	for _, segment := range splitPath(path) {
		cm, ok := current.(*Map)
		if !ok {
			return nil, false
		}
		v, exists := cm.Get(segment)
		if !exists {
			return nil, false
		}
		current = v
	}
	return current, true
}

// SetPath stores value at a dot-separated path, creating intermediate
// mappings. A non-mapping value in the way is replaced by a new mapping.
func (m *Map) SetPath(path string, value any) {
	segments := splitPath(path)
	current := m

	for _, segment := range segments[:len(segments)-1] {
		next, exists := current.Get(segment)
		nextMap, isMap := next.(*Map)
		if !exists || !isMap {
			nextMap = NewMap()
			current.Set(segment, nextMap)
		}
		current = nextMap
	}

	current.Set(segments[len(segments)-1], value)
}

// Flatten returns a flat map of dot-notation paths to leaf values.
func (m *Map) Flatten() map[string]any {
	return flattenMap(m, "")
}

// MarshalYAML emits the mapping as an ordered YAML mapping node.
func (m *Map) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for k, v := range m.All() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", k, err)
		}
		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node, nil
}

// UnmarshalYAML decodes a YAML mapping, keeping key order.
func (m *Map) UnmarshalYAML(node *yaml.Node) error {
	v, err := fromYAMLNode(node)
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*m = Map{values: make(map[string]any)}
	case *Map:
		*m = *t
	default:
		return fmt.Errorf("expected a YAML mapping, got %T", v)
	}
	return nil
}

// MarshalJSON emits the mapping as a JSON object with keys in order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	for k, v := range m.All() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping key order. Integral numbers
// decode to int64, other numbers to float64.
func (m *Map) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	v, err := decodeJSONValue(decoder)
	if err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*m = Map{values: make(map[string]any)}
	case *Map:
		*m = *t
	default:
		return fmt.Errorf("expected a JSON object, got %T", v)
	}
	return nil
}

// fromYAMLNode converts a YAML node tree into raw values.
func fromYAMLNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)
	case yaml.MappingNode:
		m := NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, valueNode := node.Content[i], node.Content[i+1]
			if key.Tag == "!!merge" || key.Kind == yaml.ScalarNode && key.Value == "<<" && key.Style == 0 {
				// "<<: *anchor" pulls the anchored mapping's keys in, explicit keys win
				merged, err := fromYAMLNode(valueNode)
				if err != nil {
					return nil, err
				}
				if mm, ok := merged.(*Map); ok {
					for k, v := range mm.All() {
						if _, exists := m.Get(k); !exists {
							m.Set(k, v)
						}
					}
				}
				continue
			}
			value, err := fromYAMLNode(valueNode)
			if err != nil {
				return nil, err
			}
			m.Set(key.Value, value)
		}
		return m, nil
	case yaml.SequenceNode:
		list := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := fromYAMLNode(item)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return normalize(v), nil
	}
}

// decodeJSONValue reads one JSON value from the token stream.
func decodeJSONValue(decoder *json.Decoder) (any, error) {
	tok, err := decoder.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for decoder.More() {
				keyTok, err := decoder.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected JSON object key %v", keyTok)
				}
				value, err := decodeJSONValue(decoder)
				if err != nil {
					return nil, err
				}
				m.Set(key, value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			list := make([]any, 0)
			for decoder.More() {
				value, err := decodeJSONValue(decoder)
				if err != nil {
					return nil, err
				}
				list = append(list, value)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected JSON delimiter %v", t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		return t.Float64()
	default:
		return t, nil
	}
}
