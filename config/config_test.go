package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBytesMinimal(t *testing.T) {
	cfg, err := parseBytes([]byte(`data_dir: /var/lib/kipsql`))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/kipsql", cfg.DataDir)
	assert.Equal(t, 128, cfg.CacheSize())
}

func TestParseBytesWithBootstrap(t *testing.T) {
	cfg, err := parseBytes([]byte(`
data_dir: /tmp/kipsql
catalog_cache_size: 256
bootstrap:
  driver: mysql
  host: 127.0.0.1
  port: 3306
  user: root
  db_name: app
`))
	require.NoError(t, err)
	require.NotNil(t, cfg.Bootstrap)
	assert.Equal(t, "mysql", cfg.Bootstrap.Driver)
	assert.Equal(t, 3306, cfg.Bootstrap.Port)
	assert.Equal(t, 256, cfg.CacheSize())
}

func TestParseBytesRejectsUnknownField(t *testing.T) {
	_, err := parseBytes([]byte(`data_dirrr: /tmp/x`))
	assert.Error(t, err)
}
