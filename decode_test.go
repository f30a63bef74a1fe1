// FILE: lixenwraith/nodeconf/decode_test.go
package nodeconf

import (
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecode tests decoding constructed trees into Go values
func TestDecode(t *testing.T) {
	listener := NewSchema("listener").
		Optional("ip", "127.0.0.1", String).
		Optional("allow", "10.0.0.0/8", String).
		Optional("upstream", "https://example.com/api", String).
		MustBuild()
	worker := NewSchema("worker").Optional("threads", 1, Int).MustBuild()
	s := NewSchema("app").
		Optional("name", "svc", String).
		Optional("started", "2024-01-02T03:04:05Z", String).
		Optional("interval", "250ms", Duration).
		Optional("hosts", "a,b", String).
		Node("listener", listener).
		NodeMap("workers", worker).
		MustBuild()

	root, err := Construct(s, MapOf("workers", MapOf("fast", MapOf("threads", 8))))
	require.NoError(t, err)

	t.Run("Struct", func(t *testing.T) {
		type listenerConfig struct {
			IP       net.IP    `yaml:"ip"`
			Allow    net.IPNet `yaml:"allow"`
			Upstream *url.URL  `yaml:"upstream"`
		}
		type workerConfig struct {
			Threads int `yaml:"threads"`
		}
		type appConfig struct {
			Name     string                  `yaml:"name"`
			Started  time.Time               `yaml:"started"`
			Interval time.Duration           `yaml:"interval"`
			Hosts    []string                `yaml:"hosts"`
			Listener listenerConfig          `yaml:"listener"`
			Workers  map[string]workerConfig `yaml:"workers"`
		}

		var cfg appConfig
		require.NoError(t, root.Decode(&cfg))

		assert.Equal(t, "svc", cfg.Name)
		assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), cfg.Started.UTC())
		assert.Equal(t, 250*time.Millisecond, cfg.Interval)
		assert.Equal(t, []string{"a", "b"}, cfg.Hosts)
		assert.True(t, net.ParseIP("127.0.0.1").Equal(cfg.Listener.IP))
		assert.Equal(t, "10.0.0.0/8", cfg.Listener.Allow.String())
		require.NotNil(t, cfg.Listener.Upstream)
		assert.Equal(t, "example.com", cfg.Listener.Upstream.Host)
		assert.Equal(t, map[string]workerConfig{"fast": {Threads: 8}}, cfg.Workers)
	})

	t.Run("Path", func(t *testing.T) {
		var w struct {
			Threads int `yaml:"threads"`
		}
		require.NoError(t, root.DecodePath("workers.fast", &w))
		assert.Equal(t, 8, w.Threads)

		var threads int
		require.NoError(t, root.DecodePath("workers.fast.threads", &threads))
		assert.Equal(t, 8, threads)
	})

	t.Run("Map", func(t *testing.T) {
		var m map[string]any
		require.NoError(t, root.DecodePath("listener", &m))
		assert.Equal(t, "127.0.0.1", m["ip"])
	})

	t.Run("Errors", func(t *testing.T) {
		var cfg struct{}
		assert.Error(t, root.Decode(cfg))
		assert.Error(t, root.DecodePath("nope", &cfg))

		var bad struct {
			Listener struct {
				IP net.IP `yaml:"ip"`
			} `yaml:"listener"`
		}
		broken, err := Construct(s, MapOf("listener", MapOf("ip", "not-an-ip")))
		require.NoError(t, err)
		assert.Error(t, broken.Decode(&bad))
	})
}
