// File: lixenwraith/nodeconf/convenience.go
package nodeconf

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Quick resolves schema with the standard precedence CLI > Env > File >
// Default in a single call. args are "path=value" override tokens.
// A missing configFile is reported as ErrConfigNotFound next to a usable tree.
func Quick(schema *Schema, envPrefix, configFile string, args []string) (*Node, error) {
	return NewBuilder(schema).
		WithEnvPrefix(envPrefix).
		WithFile(configFile).
		WithArgs(args).
		Build()
}

// QuickCustom resolves schema with custom load options
func QuickCustom(schema *Schema, opts LoadOptions, configFile string, args []string) (*Node, error) {
	b := NewBuilder(schema).WithFile(configFile).WithArgs(args)
	b.opts = opts
	return b.Build()
}

// MustQuick is like Quick but panics on error
func MustQuick(schema *Schema, envPrefix, configFile string, args []string) *Node {
	root, err := Quick(schema, envPrefix, configFile, args)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return root
}

// Debug returns a formatted string showing every source's values and the
// merged result
func (r *Resolution) Debug() string {
	var b strings.Builder
	b.WriteString("Configuration Debug Info:\n")
	fmt.Fprintf(&b, "Precedence (lowest first): %v\n", r.Order)
	if r.FilePath != "" {
		fmt.Fprintf(&b, "File: %s\n", r.FilePath)
	}

	for _, src := range r.Order {
		fmt.Fprintf(&b, "%s:\n", src)
		writeFlat(&b, r.Sources[src].Flatten())
	}
	b.WriteString("merged:\n")
	writeFlat(&b, r.Merged.Flatten())

	return b.String()
}

func writeFlat(b *strings.Builder, flat map[string]any) {
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		fmt.Fprintf(b, "  %s: %v\n", path, flat[path])
	}
}

// Dump writes the tree to w in the given format
func Dump(w io.Writer, root *Node, format Format) error {
	data, err := Marshal(root, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// DumpStdout writes the tree to stdout as YAML
func DumpStdout(root *Node) error {
	return Dump(os.Stdout, root, FormatYAML)
}
