// FILE: lixenwraith/nodeconf/args.go
package nodeconf

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// Override is one parsed "path=value" command-line token.
type Override struct {
	Path  string
	Value any
}

// ParseOverride parses a "path=value" token. The value is read as a YAML
// literal, so "3", "true", "[1, 2]" and "{a: 1}" become typed values; text
// that is not valid YAML is kept as a string. An empty value is the empty
// string.
func ParseOverride(token string) (Override, error) {
	path, raw, found := strings.Cut(token, "=")
	if !found {
		return Override{}, &CLIParseError{Token: token, Reason: "missing '='"}
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Override{}, &CLIParseError{Token: token, Reason: "empty path"}
	}
	for _, segment := range splitPath(path) {
		if !isValidKeySegment(segment) {
			return Override{}, &CLIParseError{Token: token, Reason: "invalid path segment " + quoteSegment(segment)}
		}
	}
	return Override{Path: path, Value: parseValue(raw)}, nil
}

// Map expands the override into nested single-key mappings:
// "a.b.c=5" becomes {a: {b: {c: 5}}}.
func (o Override) Map() *Map {
	m := NewMap()
	m.SetPath(o.Path, o.Value)
	return m
}

// ParseArgs parses override tokens and merges them in order, so a later token
// wins over an earlier one at the same path. The first malformed token aborts
// parsing.
func ParseArgs(tokens []string) (*Map, error) {
	layers := make([]*Map, 0, len(tokens))
	for _, token := range tokens {
		o, err := ParseOverride(token)
		if err != nil {
			return nil, err
		}
		layers = append(layers, o.Map())
	}
	return Merge(layers...), nil
}

// parseValue reads raw as a YAML scalar, sequence or mapping, falling back to
// the raw string.
func parseValue(raw string) any {
	if strings.TrimSpace(raw) == "" {
		return raw
	}
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(raw), &node); err != nil {
		return raw
	}
	v, err := fromYAMLNode(&node)
	if err != nil {
		return raw
	}
	return v
}

func quoteSegment(s string) string {
	if s == "" {
		return `""`
	}
	return `"` + s + `"`
}
