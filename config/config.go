// Package config decodes the YAML configuration that drives kipsql's
// storage engine and optional bootstrap-from-external-database step
// (§4.8), the same way database.parseGeneratorConfigFromBytes decodes a
// GeneratorConfig: gopkg.in/yaml.v3 with KnownFields(true) so a typo in
// the file fails loudly instead of silently no-opping.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/k0kubun/kipsql/storage"
)

// Engine is the top-level configuration document.
type Engine struct {
	// DataDir is the pebble data directory; empty means an in-memory
	// store (mvcc.OpenMem), used by tests and the dry-run CLI path.
	DataDir string `yaml:"data_dir"`

	// CatalogCacheSize bounds the per-transaction TableCatalog LRU
	// (storage.DefaultCatalogCacheSize when zero).
	CatalogCacheSize int `yaml:"catalog_cache_size"`

	// Bootstrap optionally introspects a live external database and
	// seeds the catalog from it before the fixture runs, on every run
	// where it is set (§4.11).
	Bootstrap *Bootstrap `yaml:"bootstrap"`
}

// Bootstrap configures the importer's connection to the source database.
type Bootstrap struct {
	Driver   string `yaml:"driver"` // "mysql", "postgres", "mssql", "sqlite3"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DbName   string `yaml:"db_name"`
	Socket   string `yaml:"socket"`
	SslMode  string `yaml:"ssl_mode"`
}

// CacheSize returns the configured cache size, or storage's default when
// unset.
func (e Engine) CacheSize() int {
	if e.CatalogCacheSize <= 0 {
		return storage.DefaultCatalogCacheSize
	}
	return e.CatalogCacheSize
}

// Load reads and decodes path into an Engine config.
func Load(path string) (Engine, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return Engine{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return parseBytes(buf)
}

// parseBytes is split out from Load for testing without touching disk,
// the same shape as database.parseGeneratorConfigFromBytes.
func parseBytes(buf []byte) (Engine, error) {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)

	var cfg Engine
	if err := dec.Decode(&cfg); err != nil {
		return Engine{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
