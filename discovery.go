// FILE: lixenwraith/nodeconf/discovery.go
package nodeconf

import (
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// FileDiscoveryOptions describes where a program looks for its
// configuration file when none is named explicitly.
type FileDiscoveryOptions struct {
	// Name is the file name without extension, usually the schema name
	Name string

	// Extensions are tried in order within each directory
	Extensions []string

	// Paths are searched before the current and XDG directories
	Paths []string

	// EnvVar names a variable holding an explicit path
	EnvVar string

	// CLIFlag is a token among the builder's args naming the file, as
	// "--config path" or "--config=path". Both tokens are removed from the
	// overrides when found.
	CLIFlag string

	UseXDG        bool
	UseCurrentDir bool
}

// DefaultDiscoveryOptions looks for name.{yaml,yml,toml,json,jsonc} in the
// current directory and the XDG config directories, with NAME_CONFIG and
// --config as explicit overrides.
func DefaultDiscoveryOptions(name string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          name,
		Extensions:    []string{".yaml", ".yml", ".toml", ".json", ".jsonc"},
		EnvVar:        strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_CONFIG",
		CLIFlag:       "--config",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// Candidates yields every file path discovery would try, in order. Explicit
// flag and env paths are not included.
func (o FileDiscoveryOptions) Candidates() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, dir := range o.searchDirs() {
			for _, ext := range o.Extensions {
				if !yield(filepath.Join(dir, o.Name+ext)) {
					return
				}
			}
		}
	}
}

func (o FileDiscoveryOptions) searchDirs() []string {
	dirs := slices.Clone(o.Paths)
	if o.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	if o.UseXDG {
		dirs = append(dirs, xdgConfigDirs(o.Name)...)
	}
	return dirs
}

// WithFileDiscovery selects the configuration file by precedence: the
// CLIFlag token, then EnvVar, then the first existing candidate. Finding
// nothing leaves the builder without a file, which is not an error.
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	if path, ok := b.takeFileFlag(opts.CLIFlag); ok {
		b.file = path
		return b
	}
	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			b.file = path
			return b
		}
	}
	for path := range opts.Candidates() {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			b.file = path
			break
		}
	}
	return b
}

// takeFileFlag removes "flag path" or "flag=path" from the args.
func (b *Builder) takeFileFlag(flag string) (string, bool) {
	if flag == "" {
		return "", false
	}
	for i, arg := range b.args {
		if arg == flag && i+1 < len(b.args) {
			path := b.args[i+1]
			b.args = slices.Delete(b.args, i, i+2)
			return path, true
		}
		if value, found := strings.CutPrefix(arg, flag+"="); found {
			b.args = slices.Delete(b.args, i, i+1)
			return value, true
		}
	}
	return "", false
}

// xdgConfigDirs lists the user config directory first, then each entry of
// XDG_CONFIG_DIRS (or /etc/xdg and /etc when unset).
func xdgConfigDirs(name string) []string {
	var dirs []string
	if base, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(base, name))
	}

	system := filepath.SplitList(os.Getenv("XDG_CONFIG_DIRS"))
	if len(system) == 0 {
		system = []string{"/etc/xdg", "/etc"}
	}
	for _, dir := range system {
		dirs = append(dirs, filepath.Join(dir, name))
	}
	return dirs
}
