// FILE: lixenwraith/nodeconf/env.go
package nodeconf

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxValueSize is the largest environment value accepted, in bytes.
const MaxValueSize = 1024 * 1024

// LoadEnv collects environment values for every leaf parameter of schema.
// Values are read as YAML literals, like command-line overrides. Parameters
// below node maps and node lists have no fixed path and are skipped.
func LoadEnv(schema *Schema, opts LoadOptions) (*Map, error) {
	transform := envTransform(opts)
	out := NewMap()

	for _, info := range schema.Parameters() {
		if strings.Contains(info.Path, "*") {
			continue
		}
		if opts.EnvWhitelist != nil && !opts.EnvWhitelist[info.Path] {
			continue
		}

		envVar := transform(info.Path)
		value, exists := os.LookupEnv(envVar)
		if !exists {
			continue
		}
		if len(value) > MaxValueSize {
			return nil, fmt.Errorf("environment variable %s exceeds %d bytes", envVar, MaxValueSize)
		}
		out.SetPath(info.Path, parseValue(value))
	}

	return out, nil
}

// DiscoverEnv finds all environment variables matching schema paths
// and returns a map of path -> env var name for found variables
func DiscoverEnv(schema *Schema, opts LoadOptions) map[string]string {
	transform := envTransform(opts)
	discovered := make(map[string]string)

	for _, info := range schema.Parameters() {
		if strings.Contains(info.Path, "*") {
			continue
		}
		envVar := transform(info.Path)
		if _, exists := os.LookupEnv(envVar); exists {
			discovered[info.Path] = envVar
		}
	}

	return discovered
}

// ExportEnv renders every leaf of a constructed tree as an environment
// variable assignment. Lists and mappings are rendered as flow-style YAML so
// LoadEnv reads them back.
func ExportEnv(root *Node, opts LoadOptions) (map[string]string, error) {
	transform := envTransform(opts)
	exports := make(map[string]string)

	for rec := range Traverse(root, false, true) {
		if rec.Value == nil {
			continue
		}
		value, err := envValue(rec.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rec.Path, err)
		}
		exports[transform(rec.Path)] = value
	}

	return exports, nil
}

func envValue(v any) (string, error) {
	switch v.(type) {
	case []any, *Map:
		node := &yaml.Node{}
		if err := node.Encode(v); err != nil {
			return "", err
		}
		setFlowStyle(node)
		out, err := yaml.Marshal(node)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(out)), nil
	}
	return castString(v)
}

func setFlowStyle(node *yaml.Node) {
	node.Style |= yaml.FlowStyle
	for _, child := range node.Content {
		setFlowStyle(child)
	}
}

func envTransform(opts LoadOptions) EnvTransformFunc {
	if opts.EnvTransform != nil {
		return opts.EnvTransform
	}
	return DefaultEnvTransform(opts.EnvPrefix)
}

// DefaultEnvTransform creates the default environment variable transformer:
// dots and dashes become underscores, letters are upper-cased and prefix is
// prepended as given.
func DefaultEnvTransform(prefix string) EnvTransformFunc {
	return func(path string) string {
		env := strings.NewReplacer(".", "_", "-", "_").Replace(path)
		env = strings.ToUpper(env)
		if prefix != "" {
			env = prefix + env
		}
		return env
	}
}
