// FILE: lixenwraith/nodeconf/loader.go
package nodeconf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Source represents a configuration source, used to define load precedence
type Source string

const (
	// SourceDefault represents programmatic defaults given to the builder.
	// Schema defaults always apply last, during construction.
	SourceDefault Source = "default"
	// SourceFile represents values loaded from a configuration file
	SourceFile Source = "file"
	// SourceEnv represents values loaded from environment variables
	SourceEnv Source = "env"
	// SourceCLI represents values parsed from "path=value" tokens
	SourceCLI Source = "cli"
)

// Format names a serialization format.
type Format string

const (
	FormatAuto  Format = ""
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
	FormatJSONC Format = "jsonc"
	FormatTOML  Format = "toml"
	FormatCBOR  Format = "cbor"
)

// EnvTransformFunc converts a configuration path to an environment variable name
type EnvTransformFunc func(path string) string

// LoadOptions configures how configuration is loaded from multiple sources
type LoadOptions struct {
	// Sources defines the precedence order (first = highest priority)
	// Default: [SourceCLI, SourceEnv, SourceFile, SourceDefault]
	Sources []Source

	// EnvPrefix is prepended to environment variable names
	// Example: "MYAPP_" transforms "server.port" to "MYAPP_SERVER_PORT"
	EnvPrefix string

	// EnvTransform customizes how paths map to environment variables
	// If nil, uses default transformation (dots to underscores, uppercase)
	EnvTransform EnvTransformFunc

	// EnvWhitelist limits which paths are checked for env vars (nil = all)
	EnvWhitelist map[string]bool

	// FileFormat forces the file format; FormatAuto detects it
	FileFormat Format

	// MaxFileSize rejects larger configuration files (0 = unlimited)
	MaxFileSize int64
}

// DefaultLoadOptions returns the standard load options
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		Sources: []Source{SourceCLI, SourceEnv, SourceFile, SourceDefault},
	}
}

// LoadFile reads and parses a configuration file into an ordered mapping.
// A missing file yields ErrConfigNotFound.
func LoadFile(path string, opts LoadOptions) (*Map, error) {
	fileInfo, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file '%s': %w", path, err)
	}
	if opts.MaxFileSize > 0 && fileInfo.Size() > opts.MaxFileSize {
		return nil, fmt.Errorf("config file '%s' exceeds maximum size %d bytes", path, opts.MaxFileSize)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file '%s': %w", path, err)
	}
	defer file.Close()

	var reader io.Reader = file
	if opts.MaxFileSize > 0 {
		reader = io.LimitReader(file, opts.MaxFileSize)
	}
	fileData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	format := opts.FileFormat
	if format == FormatAuto {
		// Try extension first, then content
		format = detectFileFormat(path)
		if format == FormatAuto {
			format = detectFormatFromContent(fileData)
		}
	}

	m, err := Parse(fileData, format)
	if err != nil {
		return nil, fmt.Errorf("config file '%s': %w", path, err)
	}
	return m, nil
}

// Parse decodes a document in the given format into an ordered mapping.
// An empty document is an empty mapping.
func Parse(data []byte, format Format) (*Map, error) {
	m := NewMap()
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, m); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatJSONC:
		if err := json.Unmarshal(jsonc.ToJSON(data), m); err != nil {
			return nil, fmt.Errorf("failed to parse JSONC: %w", err)
		}
	case FormatTOML:
		var raw map[string]any
		md, err := toml.Decode(string(data), &raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		m = orderedTOML(raw, md)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
	return m, nil
}

// orderedTOML rebuilds a decoded TOML document in the order its keys were
// defined. Tables inside arrays of tables keep sorted key order.
func orderedTOML(raw map[string]any, md toml.MetaData) *Map {
	out := NewMap()
	for _, key := range md.Keys() {
		parent := out
		for i, segment := range key[:len(key)-1] {
			next, exists := parent.Get(segment)
			if !exists {
				if _, isTable := lookupStd(raw, key[:i+1]).(map[string]any); !isTable {
					parent = nil
					break
				}
				next = NewMap()
				parent.Set(segment, next)
			}
			nextMap, isMap := next.(*Map)
			if !isMap {
				// Keys inside arrays of tables are carried by the array value
				parent = nil
				break
			}
			parent = nextMap
		}
		if parent == nil {
			continue
		}

		last := key[len(key)-1]
		if _, exists := parent.Get(last); exists {
			continue
		}
		switch v := lookupStd(raw, key).(type) {
		case nil:
		case map[string]any:
			parent.Set(last, NewMap())
		case []map[string]any:
			list := make([]any, len(v))
			for i, table := range v {
				list[i] = normalize(table)
			}
			parent.Set(last, list)
		default:
			parent.Set(last, v)
		}
	}
	fillMissing(out, raw)
	return out
}

// fillMissing adds keys of raw that the metadata walk did not place.
func fillMissing(dst *Map, raw map[string]any) {
	for key, value := range normalize(raw).(*Map).All() {
		existing, exists := dst.Get(key)
		if !exists {
			dst.Set(key, value)
			continue
		}
		dstMap, ok := existing.(*Map)
		if rawMap, isMap := raw[key].(map[string]any); ok && isMap {
			fillMissing(dstMap, rawMap)
		}
	}
}

func lookupStd(m map[string]any, key []string) any {
	var current any = m
	for _, segment := range key {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = cm[segment]
	}
	return current
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml", ".tml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".jsonc":
		return FormatJSONC
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// detectFormatFromContent attempts to detect format by parsing. YAML accepts
// most TOML as a plain scalar, so it is tried last and defaults.
func detectFormatFromContent(data []byte) Format {
	var jsonTest any
	if err := json.Unmarshal(data, &jsonTest); err == nil {
		return FormatJSON
	}

	var tomlTest map[string]any
	if err := toml.Unmarshal(data, &tomlTest); err == nil {
		return FormatTOML
	}

	return FormatYAML
}

// atomicWriteFile performs atomic file write
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	tempPath := tempFile.Name()
	defer os.Remove(tempPath) // Clean up on any error

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Chmod(tempPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
