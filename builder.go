// File: lixenwraith/nodeconf/builder.go
package nodeconf

import (
	"errors"
	"fmt"
	"slices"
)

// ValidatorFunc checks a constructed tree after all schema validation passed.
type ValidatorFunc func(root *Node) error

// Resolution is the outcome of one build: the raw mapping contributed by
// each source, their merge, and the constructed tree.
type Resolution struct {
	Sources  map[Source]*Map
	Order    []Source
	Merged   *Map
	Root     *Node
	FilePath string
	// FileErr is the non-fatal error of a configuration file that was not
	// found; it is kept even when construction fails afterwards
	FileErr error
}

// Builder provides a fluent interface for resolving a schema from defaults,
// a file, the environment and command-line overrides.
type Builder struct {
	schema     *Schema
	opts       LoadOptions
	defaults   *Map
	file       string
	args       []string
	construct  []Option
	err        error
	validators []ValidatorFunc
}

// NewBuilder creates a new configuration builder for schema
func NewBuilder(schema *Schema) *Builder {
	b := &Builder{
		schema:     schema,
		opts:       DefaultLoadOptions(),
		validators: make([]ValidatorFunc, 0),
	}
	if schema == nil {
		b.err = &ConfigError{Reason: "nil schema"}
	}
	return b
}

// WithDefaults sets programmatic defaults, a *Map or map[string]any, applied
// below every other source.
func (b *Builder) WithDefaults(defaults any) *Builder {
	switch d := defaults.(type) {
	case nil:
		b.defaults = nil
	case *Map:
		b.defaults = d.Clone()
	case map[string]any:
		b.defaults = normalize(d).(*Map)
	default:
		b.err = fmt.Errorf("defaults must be *Map or map[string]any, got %T", defaults)
	}
	return b
}

// WithEnvPrefix sets the environment variable prefix
func (b *Builder) WithEnvPrefix(prefix string) *Builder {
	b.opts.EnvPrefix = prefix
	return b
}

// WithFile sets the configuration file path
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithFileFormat forces the configuration file format
func (b *Builder) WithFileFormat(format Format) *Builder {
	b.opts.FileFormat = format
	return b
}

// WithArgs sets the "path=value" override tokens
func (b *Builder) WithArgs(args []string) *Builder {
	b.args = slices.Clone(args)
	return b
}

// WithSources sets the precedence order for configuration sources, highest first
func (b *Builder) WithSources(sources ...Source) *Builder {
	b.opts.Sources = sources
	return b
}

// WithEnvTransform sets a custom environment variable transformer
func (b *Builder) WithEnvTransform(fn EnvTransformFunc) *Builder {
	b.opts.EnvTransform = fn
	return b
}

// WithEnvWhitelist limits which paths are checked for env vars
func (b *Builder) WithEnvWhitelist(paths ...string) *Builder {
	if b.opts.EnvWhitelist == nil {
		b.opts.EnvWhitelist = make(map[string]bool)
	}
	for _, path := range paths {
		b.opts.EnvWhitelist[path] = true
	}
	return b
}

// WithMaxFileSize rejects configuration files larger than size bytes
func (b *Builder) WithMaxFileSize(size int64) *Builder {
	b.opts.MaxFileSize = size
	return b
}

// WithStrict selects the unknown-key policy; strict is the default
func (b *Builder) WithStrict(strict bool) *Builder {
	if strict {
		b.construct = append(b.construct, Strict())
	} else {
		b.construct = append(b.construct, Lenient())
	}
	return b
}

// WithOptions appends construction options
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.construct = append(b.construct, opts...)
	return b
}

// WithValidator adds a validation function that runs at the end of the build process
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// Resolve gathers every source, merges them by precedence and constructs the
// tree. When construction or validation fails the partial resolution, with
// Sources and Merged filled in, is returned alongside the error. A missing
// configuration file is not fatal and is reported as ErrConfigNotFound next
// to a complete resolution.
func (b *Builder) Resolve() (*Resolution, error) {
	if b.err != nil {
		return nil, b.err
	}

	res := &Resolution{
		Sources:  make(map[Source]*Map),
		FilePath: b.file,
	}
	for _, src := range b.opts.Sources {
		switch src {
		case SourceDefault:
			if b.defaults != nil {
				res.Sources[src] = b.defaults.Clone()
			}
		case SourceFile:
			if b.file == "" {
				continue
			}
			m, err := LoadFile(b.file, b.opts)
			if err != nil {
				if !errors.Is(err, ErrConfigNotFound) {
					return nil, err
				}
				res.FileErr = err
				continue
			}
			res.Sources[src] = m
		case SourceEnv:
			m, err := LoadEnv(b.schema, b.opts)
			if err != nil {
				return nil, err
			}
			res.Sources[src] = m
		case SourceCLI:
			m, err := ParseArgs(b.args)
			if err != nil {
				return nil, err
			}
			res.Sources[src] = m
		default:
			return nil, fmt.Errorf("unknown configuration source %q", src)
		}
	}

	// Lowest precedence merges first
	layers := make([]*Map, 0, len(b.opts.Sources))
	for i := len(b.opts.Sources) - 1; i >= 0; i-- {
		src := b.opts.Sources[i]
		if m, ok := res.Sources[src]; ok {
			res.Order = append(res.Order, src)
			layers = append(layers, m)
		}
	}
	res.Merged = Merge(layers...)

	root, err := Construct(b.schema, res.Merged, b.construct...)
	if err != nil {
		return res, err
	}
	for _, validator := range b.validators {
		if err := validator(root); err != nil {
			return res, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	res.Root = root

	// ErrConfigNotFound or nil
	return res, res.FileErr
}

// Build resolves and returns the constructed tree. A missing configuration
// file is returned as ErrConfigNotFound together with a usable tree.
func (b *Builder) Build() (*Node, error) {
	res, err := b.Resolve()
	if res == nil || res.Root == nil {
		return nil, err
	}
	return res.Root, err
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Node {
	root, err := b.Build()
	if err != nil {
		// ErrConfigNotFound is not fatal, the tree holds defaults and overrides
		if !errors.Is(err, ErrConfigNotFound) {
			panic(fmt.Sprintf("config build failed: %v", err))
		}
	}
	return root
}

// BuildAndDecode builds and decodes the final configuration into the provided target struct pointer
func (b *Builder) BuildAndDecode(target any) error {
	root, err := b.Build()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return err
	}

	if err := root.Decode(target); err != nil {
		return fmt.Errorf("failed to decode final config into target: %w", err)
	}

	// ErrConfigNotFound or nil
	return err
}
