// FILE: lixenwraith/nodeconf/register_test.go
package nodeconf

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registerLogConfig struct {
	Level  string `yaml:"level" help:"minimum level"`
	Format string `yaml:"format"`
}

type registerPeer struct {
	Addr   string `yaml:"addr" nodeconf:"required"`
	Weight int    `yaml:"weight"`
}

type registerConfig struct {
	Name     string                  `yaml:"name" nodeconf:"required"`
	Port     int                     `yaml:"port"`
	Ratio    float64                 `yaml:"ratio"`
	Debug    bool                    `yaml:"debug"`
	Timeout  time.Duration           `yaml:"timeout"`
	Tags     []string                `yaml:"tags"`
	Bind     net.IP                  `yaml:"bind"`
	Log      registerLogConfig       `yaml:"log"`
	Peers    []registerPeer          `yaml:"peers"`
	Backends map[string]registerPeer `yaml:"backends"`
	Skipped  string                  `yaml:"-"`
	internal int
}

// TestSchemaFromStruct tests deriving schemas from annotated structs
func TestSchemaFromStruct(t *testing.T) {
	defaults := registerConfig{
		Port:    8080,
		Ratio:   0.5,
		Timeout: 5 * time.Second,
		Tags:    []string{"a"},
		Bind:    net.ParseIP("0.0.0.0"),
		Log:     registerLogConfig{Level: "info", Format: "text"},
	}

	s, err := SchemaFromStruct("app", &defaults)
	require.NoError(t, err)

	t.Run("Parameters", func(t *testing.T) {
		var paths []string
		for _, p := range s.Parameters() {
			paths = append(paths, p.Path)
		}
		assert.Equal(t, []string{
			"name", "port", "ratio", "debug", "timeout", "tags", "bind",
			"log.level", "log.format",
			"peers.*.addr", "peers.*.weight",
			"backends.*.addr", "backends.*.weight",
		}, paths)

		name, _ := s.Param("name")
		assert.True(t, name.Required)

		port, _ := s.Param("port")
		assert.Equal(t, int64(8080), port.Default)
		assert.Equal(t, KindInt, port.Type().Kind())

		tags, _ := s.Param("tags")
		assert.Equal(t, "list[string]", tags.Type().String())

		bind, _ := s.Param("bind")
		assert.Equal(t, KindGo, bind.Type().Kind())

		peers, _ := s.Param("peers")
		assert.Equal(t, KindNodeList, peers.Types[0].Kind())
		backends, _ := s.Param("backends")
		assert.Equal(t, KindNodeMap, backends.Types[0].Kind())

		assert.Equal(t, "minimum level", s.Parameters()[7].Help)
	})

	t.Run("RoundTrip", func(t *testing.T) {
		root, err := Construct(s, MapOf(
			"name", "svc",
			"bind", "10.1.1.1",
			"peers", []any{MapOf("addr", "p1:80")},
			"backends", MapOf("main", MapOf("addr", "b1:80", "weight", 3)),
		))
		require.NoError(t, err)

		var cfg registerConfig
		require.NoError(t, root.Decode(&cfg))
		assert.Equal(t, "svc", cfg.Name)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, 0.5, cfg.Ratio)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
		assert.Equal(t, []string{"a"}, cfg.Tags)
		assert.True(t, net.ParseIP("10.1.1.1").Equal(cfg.Bind))
		assert.Equal(t, registerLogConfig{Level: "info", Format: "text"}, cfg.Log)
		assert.Equal(t, []registerPeer{{Addr: "p1:80"}}, cfg.Peers)
		assert.Equal(t, map[string]registerPeer{"main": {Addr: "b1:80", Weight: 3}}, cfg.Backends)
	})

	t.Run("RequiredInList", func(t *testing.T) {
		_, err := Construct(s, MapOf("name", "svc", "peers", []any{MapOf("weight", 1)}))
		var ve *ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "peers.0.addr", ve.Path)
	})

	t.Run("NotAStruct", func(t *testing.T) {
		_, err := SchemaFromStruct("x", 42)
		assert.Error(t, err)

		var nilPtr *registerConfig
		_, err = SchemaFromStruct("x", nilPtr)
		assert.Error(t, err)
	})

	t.Run("Recursive", func(t *testing.T) {
		type tree struct {
			Value    int    `yaml:"value"`
			Children []tree `yaml:"children"`
		}
		_, err := SchemaFromStruct("tree", tree{})
		assert.Error(t, err)
	})
}
