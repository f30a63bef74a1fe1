// FILE: lixenwraith/nodeconf/builder_test.go
package nodeconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBuilder isolates the builder from variables of the host environment.
func testBuilder() *Builder {
	return NewBuilder(serverSchema()).WithEnvPrefix("NODECONF_TEST_")
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestBuilder tests layered resolution through the builder
func TestBuilder(t *testing.T) {
	t.Run("Precedence", func(t *testing.T) {
		path := writeConfig(t, "server.yaml", "host: file-host\nport: 1000\nmode: prod\n")
		t.Setenv("BLD_PORT", "2000")
		t.Setenv("BLD_MODE", "dev")

		root, err := testBuilder().
			WithDefaults(map[string]any{"timeout": "1m", "port": 1}).
			WithFile(path).
			WithEnvPrefix("BLD_").
			WithArgs([]string{"port=3000"}).
			Build()
		require.NoError(t, err)

		port, _ := root.Int("port")
		assert.Equal(t, int64(3000), port)
		mode, _ := root.String("mode")
		assert.Equal(t, "dev", mode)
		host, _ := root.String("host")
		assert.Equal(t, "file-host", host)
		timeout, _ := root.Duration("timeout")
		assert.Equal(t, time.Minute, timeout)
	})

	t.Run("Resolution", func(t *testing.T) {
		path := writeConfig(t, "server.yaml", "host: h\n")

		res, err := testBuilder().
			WithDefaults(MapOf("port", 1)).
			WithFile(path).
			WithEnvPrefix("BLD_UNSET_").
			WithArgs([]string{"tls.enabled=true"}).
			Resolve()
		require.NoError(t, err)

		assert.Equal(t, []Source{SourceDefault, SourceFile, SourceEnv, SourceCLI}, res.Order)
		assert.Equal(t, MapOf("port", 1), res.Sources[SourceDefault])
		assert.Equal(t, MapOf("host", "h"), res.Sources[SourceFile])
		assert.Equal(t, 0, res.Sources[SourceEnv].Len())
		assert.Equal(t, MapOf("port", 1, "host", "h", "tls", MapOf("enabled", true)), res.Merged)
		assert.Equal(t, path, res.FilePath)
		require.NotNil(t, res.Root)

		debug := res.Debug()
		assert.Contains(t, debug, "Precedence (lowest first): [default file env cli]")
		assert.Contains(t, debug, "  tls.enabled: true")
	})

	t.Run("MissingFileIsNotFatal", func(t *testing.T) {
		root, err := testBuilder().
			WithFile(filepath.Join(t.TempDir(), "missing.yaml")).
			WithArgs([]string{"host=h"}).
			Build()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfigNotFound))
		require.NotNil(t, root)
		host, _ := root.String("host")
		assert.Equal(t, "h", host)
	})

	t.Run("MissingFileKeptWhenConstructionFails", func(t *testing.T) {
		res, err := testBuilder().
			WithFile(filepath.Join(t.TempDir(), "missing.yaml")).
			Resolve()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		require.NotNil(t, res)
		assert.Nil(t, res.Root)
		assert.True(t, errors.Is(res.FileErr, ErrConfigNotFound))
	})

	t.Run("MalformedFileIsFatal", func(t *testing.T) {
		path := writeConfig(t, "bad.yaml", "host: [unclosed\n")
		root, err := testBuilder().WithFile(path).Build()
		require.Error(t, err)
		assert.Nil(t, root)
	})

	t.Run("ValidationErrorKeepsSources", func(t *testing.T) {
		res, err := testBuilder().
			WithArgs([]string{"port=abc", "host=h"}).
			Resolve()
		require.Error(t, err)

		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "port", ve.Path)

		require.NotNil(t, res)
		assert.Nil(t, res.Root)
		port, _ := res.Merged.Get("port")
		assert.Equal(t, "abc", port)
	})

	t.Run("CLIParseError", func(t *testing.T) {
		_, err := testBuilder().WithArgs([]string{"host"}).Build()
		assert.True(t, errors.Is(err, ErrCLIParse))
	})

	t.Run("CustomSources", func(t *testing.T) {
		t.Setenv("BLD_HOST", "from-env")
		root, err := testBuilder().
			WithEnvPrefix("BLD_").
			WithSources(SourceCLI, SourceDefault).
			WithDefaults(MapOf("host", "from-defaults")).
			Build()
		require.NoError(t, err)
		host, _ := root.String("host")
		assert.Equal(t, "from-defaults", host)
	})

	t.Run("UnknownSource", func(t *testing.T) {
		_, err := testBuilder().WithSources(Source("vault")).Build()
		assert.Error(t, err)
	})

	t.Run("EnvWhitelist", func(t *testing.T) {
		t.Setenv("BLD_HOST", "env-host")
		t.Setenv("BLD_PORT", "1")
		root, err := testBuilder().
			WithEnvPrefix("BLD_").
			WithEnvWhitelist("host").
			Build()
		require.NoError(t, err)
		port, _ := root.Int("port")
		assert.Equal(t, int64(8080), port)
	})

	t.Run("Lenient", func(t *testing.T) {
		_, err := testBuilder().WithArgs([]string{"host=h", "extra=1"}).Build()
		assert.True(t, errors.Is(err, ErrValidation))

		root, err := testBuilder().
			WithArgs([]string{"host=h", "extra=1"}).
			WithStrict(false).
			Build()
		require.NoError(t, err)
		assert.NotContains(t, root.Keys(), "extra")
	})

	t.Run("Validators", func(t *testing.T) {
		var calls []string
		_, err := testBuilder().
			WithArgs([]string{"host=h", "mode=prod"}).
			WithValidator(func(root *Node) error {
				calls = append(calls, "first")
				return nil
			}).
			WithValidator(func(root *Node) error {
				calls = append(calls, "second")
				if mode, _ := root.String("mode"); mode == "prod" {
					if enabled, _ := root.Bool("tls.enabled"); !enabled {
						return fmt.Errorf("prod requires tls")
					}
				}
				return nil
			}).
			Build()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "prod requires tls")
		assert.Equal(t, []string{"first", "second"}, calls)
	})

	t.Run("InvalidDefaults", func(t *testing.T) {
		_, err := testBuilder().WithDefaults(42).Build()
		assert.Error(t, err)
	})

	t.Run("NilSchema", func(t *testing.T) {
		_, err := NewBuilder(nil).Build()
		assert.True(t, errors.Is(err, ErrConfig))
	})

	t.Run("MustBuild", func(t *testing.T) {
		assert.Panics(t, func() { testBuilder().MustBuild() })

		root := testBuilder().
			WithFile(filepath.Join(t.TempDir(), "missing.yaml")).
			WithArgs([]string{"host=h"}).
			MustBuild()
		assert.NotNil(t, root)
	})

	t.Run("BuildAndDecode", func(t *testing.T) {
		type tlsConfig struct {
			Enabled bool `yaml:"enabled"`
		}
		type server struct {
			Host    string        `yaml:"host"`
			Port    int           `yaml:"port"`
			Timeout time.Duration `yaml:"timeout"`
			Tags    []string      `yaml:"tags"`
			TLS     tlsConfig     `yaml:"tls"`
		}

		var cfg server
		err := testBuilder().
			WithArgs([]string{"host=h", "tags=[x, y]", "tls.enabled=true"}).
			BuildAndDecode(&cfg)
		require.NoError(t, err)
		assert.Equal(t, server{
			Host:    "h",
			Port:    8080,
			Timeout: 30 * time.Second,
			Tags:    []string{"x", "y"},
			TLS:     tlsConfig{Enabled: true},
		}, cfg)
	})
}

// TestQuick tests the one-call helpers
func TestQuick(t *testing.T) {
	path := writeConfig(t, "app.toml", "host = \"toml-host\"\nport = 7000\n")

	t.Run("Quick", func(t *testing.T) {
		t.Setenv("QK_PORT", "7001")
		root, err := Quick(serverSchema(), "QK_", path, []string{"mode=prod"})
		require.NoError(t, err)

		host, _ := root.String("host")
		port, _ := root.Int("port")
		mode, _ := root.String("mode")
		assert.Equal(t, "toml-host", host)
		assert.Equal(t, int64(7001), port)
		assert.Equal(t, "prod", mode)
	})

	t.Run("QuickCustom", func(t *testing.T) {
		t.Setenv("QK_PORT", "7001")
		opts := LoadOptions{Sources: []Source{SourceCLI, SourceFile}, EnvPrefix: "QK_"}
		root, err := QuickCustom(serverSchema(), opts, path, nil)
		require.NoError(t, err)
		port, _ := root.Int("port")
		assert.Equal(t, int64(7000), port)
	})

	t.Run("MustQuickPanics", func(t *testing.T) {
		assert.Panics(t, func() { MustQuick(serverSchema(), "QK_", path, []string{"port=x"}) })
	})
}
