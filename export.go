// FILE: lixenwraith/nodeconf/export.go
package nodeconf

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// cborEncMode uses Core Deterministic Encoding (sorted map keys, smallest
// integer encoding), so equal trees always produce identical bytes.
var cborEncMode cbor.EncMode

func init() {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	var err error
	cborEncMode, err = encOptions.EncMode()
	if err != nil {
		panic("nodeconf: CBOR encoder initialization failed: " + err.Error())
	}
}

// Marshal serializes a constructed tree. YAML and JSON keep declaration and
// source key order; TOML and CBOR sort keys. Durations are written in their
// string form ("1m30s").
func Marshal(root *Node, format Format) ([]byte, error) {
	return MarshalMap(root.ToMap(), format)
}

// MarshalMap serializes a raw mapping. See Marshal.
func MarshalMap(m *Map, format Format) ([]byte, error) {
	data := exportable(m).(*Map)

	switch format {
	case FormatYAML, FormatAuto:
		var buf bytes.Buffer
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(data); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if err := encoder.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return buf.Bytes(), nil

	case FormatJSON, FormatJSONC:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return append(out, '\n'), nil

	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(data.ToStd()); err != nil {
			return nil, fmt.Errorf("failed to marshal TOML: %w", err)
		}
		return buf.Bytes(), nil

	case FormatCBOR:
		out, err := cborEncMode.Marshal(data.ToStd())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal CBOR: %w", err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// Save writes the tree to path atomically, in the format implied by the
// file extension (YAML when unknown).
func (n *Node) Save(path string) error {
	format := detectFileFormat(path)
	if format == FormatAuto && filepath.Ext(path) == ".cbor" {
		format = FormatCBOR
	}
	data, err := Marshal(n, format)
	if err != nil {
		return err
	}
	return atomicWriteFile(path, data)
}

// Fingerprint returns the hex BLAKE3-256 digest of the tree's deterministic
// CBOR encoding. Trees with equal values have equal fingerprints regardless
// of source key order.
func (n *Node) Fingerprint() (string, error) {
	data, err := Marshal(n, FormatCBOR)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// exportable rewrites values that serializers would otherwise render as raw
// integers.
func exportable(v any) any {
	switch t := v.(type) {
	case *Map:
		out := NewMap()
		for k, item := range t.All() {
			out.Set(k, exportable(item))
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = exportable(item)
		}
		return out
	case time.Duration:
		return t.String()
	default:
		return v
	}
}
