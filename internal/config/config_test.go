package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gdnsd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
server:
  zone: pool.example.com
resources:
  web: [192.0.2.1, 192.0.2.2]
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 53, cfg.Server.Port)
	assert.Equal(t, "pool.example.com.", cfg.Server.Zone)
	assert.False(t, cfg.Server.DisableTCP)
	assert.Equal(t, uint32(3600), cfg.Server.MaxTTL)
	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "127.0.0.1", cfg.API.Host)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/gdnsd.yaml")
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"zone required",
			"resources:\n  web: [192.0.2.1]\n",
			"server.zone",
		},
		{
			"resources required",
			"server:\n  zone: example.com\n",
			"resources stanza",
		},
		{
			"bad server port",
			"server:\n  zone: example.com\n  port: 70000\nresources:\n  web: [192.0.2.1]\n",
			"server.port",
		},
		{
			"api port required when enabled",
			"server:\n  zone: example.com\napi:\n  enabled: true\nresources:\n  web: [192.0.2.1]\n",
			"api.port",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.src))
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestResourceConfigPreservesOrder(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
server:
  zone: example.com
resources:
  zfirst: [192.0.2.1]
  asecond: [192.0.2.2]
  mthird: [192.0.2.3]
`))
	require.NoError(t, err)

	v, err := cfg.ResourceConfig()
	require.NoError(t, err)
	require.True(t, v.IsMapping())

	var names []string
	for _, p := range v.Pairs() {
		names = append(names, p.Key)
	}
	assert.Equal(t, []string{"zfirst", "asecond", "mthird"}, names)

	// Each call hands out an independent tree.
	v2, err := cfg.ResourceConfig()
	require.NoError(t, err)
	_, _ = v.Take("zfirst")
	assert.Equal(t, 3, v2.Len())
}

func TestNormalizeZone(t *testing.T) {
	assert.Equal(t, "example.com.", NormalizeZone("Example.COM"))
	assert.Equal(t, "example.com.", NormalizeZone("example.com."))
	assert.Equal(t, "example.com.", NormalizeZone("  example.com "))
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("GDNSD_CONFIG", "/from/env")
	assert.Equal(t, "/from/flag", ResolveConfigPath("/from/flag"))
	assert.Equal(t, "/from/env", ResolveConfigPath(""))
	assert.Equal(t, "/from/env", ResolveConfigPath("   "))

	t.Setenv("GDNSD_CONFIG", "")
	assert.Equal(t, "", ResolveConfigPath(""))
}
