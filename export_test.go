// FILE: lixenwraith/nodeconf/export_test.go
package nodeconf

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportFixture(t *testing.T) *Node {
	t.Helper()
	db := NewSchema("db").Optional("host", "localhost", String).MustBuild()
	s := NewSchema("svc").
		Optional("name", "x", String).
		Optional("port", 8080, Int).
		Optional("timeout", 90*time.Second, Duration).
		Node("db", db).
		MustBuild()
	root, err := Construct(s, nil)
	require.NoError(t, err)
	return root
}

// TestMarshal tests serializing constructed trees
func TestMarshal(t *testing.T) {
	root := exportFixture(t)

	t.Run("YAML", func(t *testing.T) {
		out, err := Marshal(root, FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, "name: x\nport: 8080\ntimeout: 1m30s\ndb:\n  host: localhost\n", string(out))
	})

	t.Run("JSON", func(t *testing.T) {
		out, err := Marshal(root, FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, `{
  "name": "x",
  "port": 8080,
  "timeout": "1m30s",
  "db": {
    "host": "localhost"
  }
}
`, string(out))
	})

	t.Run("TOML", func(t *testing.T) {
		out, err := Marshal(root, FormatTOML)
		require.NoError(t, err)

		m, err := Parse(out, FormatTOML)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"name":    "x",
			"port":    int64(8080),
			"timeout": "1m30s",
			"db":      map[string]any{"host": "localhost"},
		}, m.ToStd())
	})

	t.Run("CBOR", func(t *testing.T) {
		out, err := Marshal(root, FormatCBOR)
		require.NoError(t, err)

		var decoded struct {
			Name    string            `cbor:"name"`
			Port    int               `cbor:"port"`
			Timeout string            `cbor:"timeout"`
			DB      map[string]string `cbor:"db"`
		}
		require.NoError(t, cbor.Unmarshal(out, &decoded))
		assert.Equal(t, "x", decoded.Name)
		assert.Equal(t, 8080, decoded.Port)
		assert.Equal(t, "1m30s", decoded.Timeout)
		assert.Equal(t, map[string]string{"host": "localhost"}, decoded.DB)
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := Marshal(root, Format("ini"))
		assert.Error(t, err)
	})

	t.Run("Dump", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, Dump(&buf, root, FormatYAML))
		assert.Contains(t, buf.String(), "timeout: 1m30s")
	})
}

// TestSave tests atomic writes in the format implied by the extension
func TestSave(t *testing.T) {
	root := exportFixture(t)
	dir := t.TempDir()

	for _, name := range []string{"out.yaml", "out.json", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, root.Save(path))

			m, err := LoadFile(path, LoadOptions{})
			require.NoError(t, err)

			again, err := Construct(root.Schema(), m)
			require.NoError(t, err)
			assert.True(t, root.Equal(again))
		})
	}

	t.Run("CBOR", func(t *testing.T) {
		path := filepath.Join(dir, "out.cbor")
		require.NoError(t, root.Save(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		want, err := Marshal(root, FormatCBOR)
		require.NoError(t, err)
		assert.Equal(t, want, data)
	})
}

// TestFingerprint tests the content digest
func TestFingerprint(t *testing.T) {
	s := NewSchema("s").
		Optional("a", 1, Int).
		Optional("b", "x", String).
		Flex().
		MustBuild()

	build := func(data *Map) string {
		root, err := Construct(s, data)
		require.NoError(t, err)
		fp, err := root.Fingerprint()
		require.NoError(t, err)
		return fp
	}

	base := build(MapOf("a", 2, "extra_one", 1, "extra_two", 2))
	assert.Len(t, base, 64)

	// Source key order does not matter
	assert.Equal(t, base, build(MapOf("extra_two", 2, "extra_one", 1, "a", "2")))
	assert.NotEqual(t, base, build(MapOf("a", 3, "extra_one", 1, "extra_two", 2)))
}
